package domain

import (
	"context"
	"time"
)

// Sala representa uma sala de jogo: um mestre, um sistema de RPG e até
// cinco participantes, identificada externamente por um código de convite.
type Sala struct {
	ID            int64     `json:"id"`
	IDMestre      int64     `json:"id_mestre"`
	IDSistema     int64     `json:"id_sistema"`
	NomeSala      string    `json:"nome_sala"`
	CodigoConvite string    `json:"codigo_convite"`
	Ativa         bool      `json:"ativa"`
	DataCriacao   time.Time `json:"data_criacao"`
}

// AlterarNome altera o nome da sala.
func (s *Sala) AlterarNome(novoNome string) {
	s.NomeSala = novoNome
}

// Participante representa a linha de participação de um usuário em uma sala.
// O personagem é opcional: o mestre participa sem personagem e os jogadores
// só o escolhem ao entrar na mesa.
type Participante struct {
	IDSala         int64   `json:"id_sala"`
	IDUsuario      int64   `json:"id_usuario"`
	IDPersonagem   *int64  `json:"id_personagem,omitempty"`
	NomeUsuario    string  `json:"nome_usuario"`
	NomePersonagem *string `json:"nome_personagem,omitempty"`
}

// SalaInfo agrega a sala com os dados extras que a listagem do painel
// precisa (nome do sistema e quantidade de jogadores).
type SalaInfo struct {
	Sala                Sala   `json:"sala"`
	NomeSistema         string `json:"nome_sistema"`
	QuantidadeJogadores int    `json:"quantidade_jogadores"`
}

// SalaDetalhes é o estado de entrada de um usuário em uma sala: a sala, os
// participantes e o que a tela de jogo precisa decidir — se ainda falta
// escolher personagem (o mestre é isento) e com que nome e tipo as
// publicações do usuário saem no log.
type SalaDetalhes struct {
	Sala                        Sala           `json:"sala"`
	Participantes               []Participante `json:"participantes"`
	EhMestre                    bool           `json:"eh_mestre"`
	PrecisaSelecionarPersonagem bool           `json:"precisa_selecionar_personagem"`
	NomeAutor                   string         `json:"nome_autor"`
	TipoLog                     TipoLog        `json:"tipo_log"`
}

// SalaRepository define o contrato de persistência para salas e participantes.
type SalaRepository interface {
	// Salvar insere a sala e o mestre como primeiro participante em uma
	// única transação.
	Salvar(ctx context.Context, sala Sala) (Sala, error)
	AtualizarNome(ctx context.Context, sala Sala) error
	Deletar(ctx context.Context, id int64) error
	BuscarPorID(ctx context.Context, id int64) (Sala, error)
	BuscarPorCodigoConvite(ctx context.Context, codigo string) (Sala, error)
	BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]SalaInfo, error)
	ContarParticipantes(ctx context.Context, idSala int64) (int, error)
	// AdicionarParticipante insere a participação apenas se a sala ainda
	// tiver vaga (limite verificado na mesma instrução SQL). Retorna false
	// quando a sala está cheia.
	AdicionarParticipante(ctx context.Context, idSala, idUsuario int64, limite int) (bool, error)
	// RemoverParticipante retorna false quando nenhuma linha foi removida.
	RemoverParticipante(ctx context.Context, idSala, idUsuario int64) (bool, error)
	AssociarPersonagem(ctx context.Context, idSala, idUsuario, idPersonagem int64) error
	BuscarParticipante(ctx context.Context, idSala, idUsuario int64) (Participante, error)
	ListarParticipantes(ctx context.Context, idSala int64) ([]Participante, error)
}
