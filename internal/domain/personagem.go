package domain

import (
	"context"
	"encoding/json"
)

// ChaveNomePersonagem é a chave obrigatória da ficha que carrega o nome
// do personagem. Todo o restante da ficha é livre, definido pelo template
// do sistema de RPG.
const ChaveNomePersonagem = "nome_personagem"

// Personagem representa uma ficha de personagem pertencente a um usuário
// e vinculada a um sistema de RPG. A ficha completa é armazenada como uma
// string JSON opaca, pois cada sistema define campos diferentes.
type Personagem struct {
	ID             int64  `json:"id"`
	IDUsuario      int64  `json:"id_usuario"`
	IDSistema      int64  `json:"id_sistema"`
	NomePersonagem string `json:"nome_personagem"`
	FichaJSON      string `json:"-"`
}

// Ficha decodifica a ficha JSON em um mapa de campos.
func (p *Personagem) Ficha() map[string]interface{} {
	ficha := map[string]interface{}{}
	if p.FichaJSON != "" {
		_ = json.Unmarshal([]byte(p.FichaJSON), &ficha)
	}
	return ficha
}

// AtualizarFicha substitui o conteúdo da ficha pelo novo mapa de campos.
func (p *Personagem) AtualizarFicha(dados map[string]interface{}) error {
	b, err := json.Marshal(dados)
	if err != nil {
		return err
	}
	p.FichaJSON = string(b)
	return nil
}

// AtualizarNome atualiza o nome do personagem.
func (p *Personagem) AtualizarNome(novoNome string) {
	p.NomePersonagem = novoNome
}

// MarshalJSON expõe a ficha decodificada no JSON de resposta em vez da
// string crua armazenada no banco.
func (p Personagem) MarshalJSON() ([]byte, error) {
	type alias Personagem
	return json.Marshal(struct {
		alias
		Ficha map[string]interface{} `json:"ficha"`
	}{alias(p), p.Ficha()})
}

// PersonagemRepository define o contrato de persistência para personagens.
type PersonagemRepository interface {
	Salvar(ctx context.Context, personagem Personagem) (Personagem, error)
	Atualizar(ctx context.Context, personagem Personagem) error
	Deletar(ctx context.Context, id int64) error
	BuscarPorID(ctx context.Context, id int64) (Personagem, error)
	BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]Personagem, error)
}
