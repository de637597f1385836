package salaservice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

// Regras de capacidade da plataforma.
const (
	// LimiteParticipantes é o máximo de participantes por sala (mestre incluído).
	LimiteParticipantes = 5
	// LimiteSalasPorUsuario é o máximo de salas em que um usuário pode participar.
	LimiteSalasPorUsuario = 2
)

// Alfabeto do código de convite: sem 0/O/1/I para evitar ambiguidade na leitura.
const (
	alfabetoConvite      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	tamanhoCodigoConvite = 6
	maxTentativasConvite = 5
)

// Service implementa os casos de uso de sala: criação, entrada por convite,
// edição, exclusão, saída, expulsão e associação de personagem.
type Service struct {
	salaRepo       domain.SalaRepository
	usuarioRepo    domain.UsuarioRepository
	personagemRepo domain.PersonagemRepository
	logger         logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Salas.
func NewService(salaRepo domain.SalaRepository, usuarioRepo domain.UsuarioRepository, personagemRepo domain.PersonagemRepository, logger logger.Logger) *Service {
	return &Service{
		salaRepo:       salaRepo,
		usuarioRepo:    usuarioRepo,
		personagemRepo: personagemRepo,
		logger:         logger,
	}
}

// CriarSala cria uma nova sala de jogo. O mestre entra automaticamente como
// primeiro participante, na mesma transação da criação.
func (s *Service) CriarSala(ctx context.Context, idMestre, idSistema int64, nomeSala string) (domain.Sala, error) {
	s.logger.Debug("Iniciando criação de sala no serviço.", map[string]interface{}{"id_mestre": idMestre, "nome_sala": nomeSala})

	if strings.TrimSpace(nomeSala) == "" {
		return domain.Sala{}, apperror.NewValidationError("O nome da sala não pode estar vazio.")
	}

	// 1. Regra de Negócio: o mestre precisa existir.
	if _, err := s.usuarioRepo.BuscarPorID(ctx, idMestre); err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Sala{}, apperror.NewValidationError("Usuário mestre inválido.")
		}
		return domain.Sala{}, err
	}

	// 2. Gera um código de convite livre. O código não é chave primária,
	// mas precisa ser único: uma colisão faria um convite resolver para a
	// sala errada, então tentamos algumas vezes e contamos com o índice
	// único do schema como última barreira.
	codigo, err := s.gerarCodigoConviteLivre(ctx)
	if err != nil {
		return domain.Sala{}, err
	}

	novaSala := domain.Sala{
		IDMestre:      idMestre,
		IDSistema:     idSistema,
		NomeSala:      nomeSala,
		CodigoConvite: codigo,
	}

	// 3. Persistência (sala + mestre-participante em uma transação).
	sala, err := s.salaRepo.Salvar(ctx, novaSala)
	if err != nil {
		s.logger.Error("Falha ao criar sala no repositório.", err)
		return domain.Sala{}, err
	}

	s.logger.Info("Sala criada com sucesso.", map[string]interface{}{"id_sala": sala.ID, "codigo_convite": sala.CodigoConvite})
	return sala, nil
}

// EntrarSala adiciona um usuário a uma sala a partir do código de convite.
// A ordem das verificações importa: existência da sala → participação
// duplicada → limite pessoal de salas → capacidade da sala.
func (s *Service) EntrarSala(ctx context.Context, idUsuario int64, codigoConvite string) error {
	s.logger.Debug("Iniciando entrada em sala no serviço.", map[string]interface{}{"id_usuario": idUsuario})

	// 1. Valida o código da sala.
	sala, err := s.salaRepo.BuscarPorCodigoConvite(ctx, strings.ToUpper(strings.TrimSpace(codigoConvite)))
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewNotFoundError("Nenhuma sala encontrada com este código de convite.")
		}
		return err
	}

	// 2. Verifica se o usuário já está na sala.
	salasDoUsuario, err := s.salaRepo.BuscarPorUsuarioID(ctx, idUsuario)
	if err != nil {
		return err
	}
	for _, info := range salasDoUsuario {
		if info.Sala.ID == sala.ID {
			return apperror.NewConflictError("Você já participa desta sala.")
		}
	}

	// 3. Verifica o limite pessoal de salas.
	if len(salasDoUsuario) >= LimiteSalasPorUsuario {
		return apperror.NewConflictError(fmt.Sprintf("Você atingiu o limite de %d salas como jogador.", LimiteSalasPorUsuario))
	}

	// 4. Verifica se a sala está cheia.
	totalParticipantes, err := s.salaRepo.ContarParticipantes(ctx, sala.ID)
	if err != nil {
		return err
	}
	if totalParticipantes >= LimiteParticipantes {
		return apperror.NewConflictError(fmt.Sprintf("Esta sala já atingiu o limite de %d participantes.", LimiteParticipantes))
	}

	// 5. Insere a participação. O limite é reavaliado dentro da própria
	// instrução SQL, então entradas concorrentes não estouram a capacidade.
	inserido, err := s.salaRepo.AdicionarParticipante(ctx, sala.ID, idUsuario, LimiteParticipantes)
	if err != nil {
		return err
	}
	if !inserido {
		return apperror.NewConflictError(fmt.Sprintf("Esta sala já atingiu o limite de %d participantes.", LimiteParticipantes))
	}

	s.logger.Info("Usuário entrou na sala com sucesso.", map[string]interface{}{"id_sala": sala.ID, "id_usuario": idUsuario})
	return nil
}

// EditarSala renomeia uma sala. Apenas o mestre pode editar.
func (s *Service) EditarSala(ctx context.Context, idSala, idMestre int64, novoNome string) error {
	s.logger.Debug("Iniciando edição de sala no serviço.", map[string]interface{}{"id_sala": idSala})

	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return err
	}

	if sala.IDMestre != idMestre {
		return apperror.NewForbiddenError("Você não tem permissão para editar esta sala.")
	}

	if strings.TrimSpace(novoNome) == "" {
		return apperror.NewValidationError("O nome da sala não pode estar vazio.")
	}

	sala.AlterarNome(novoNome)

	if err := s.salaRepo.AtualizarNome(ctx, sala); err != nil {
		s.logger.Error("Falha ao atualizar nome da sala no repositório.", err)
		return err
	}

	s.logger.Info("Sala editada com sucesso.", map[string]interface{}{"id_sala": idSala})
	return nil
}

// DeletarSala exclui uma sala. Apenas o mestre pode excluir; participantes
// e log caem em cascata na camada de armazenamento.
func (s *Service) DeletarSala(ctx context.Context, idSala, idMestre int64) error {
	s.logger.Debug("Iniciando exclusão de sala no serviço.", map[string]interface{}{"id_sala": idSala})

	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return err
	}

	if sala.IDMestre != idMestre {
		return apperror.NewForbiddenError("Você não tem permissão para excluir esta sala.")
	}

	if err := s.salaRepo.Deletar(ctx, idSala); err != nil {
		s.logger.Error("Falha ao deletar sala no repositório.", err)
		return err
	}

	s.logger.Info("Sala excluída com sucesso.", map[string]interface{}{"id_sala": idSala})
	return nil
}

// SairSala remove a participação do próprio usuário. O mestre não sai da
// sala: ele a exclui.
func (s *Service) SairSala(ctx context.Context, idSala, idUsuario int64) error {
	s.logger.Debug("Iniciando saída de sala no serviço.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return err
	}

	if sala.IDMestre == idUsuario {
		return apperror.NewValidationError("O mestre não pode sair da sala. A sala deve ser excluída.")
	}

	removido, err := s.salaRepo.RemoverParticipante(ctx, idSala, idUsuario)
	if err != nil {
		return err
	}
	if !removido {
		return apperror.NewNotFoundError("Não foi possível sair da sala. Você pode já não ser um participante.")
	}

	s.logger.Info("Usuário saiu da sala com sucesso.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})
	return nil
}

// ExpulsarJogador remove um jogador da sala a pedido do mestre.
func (s *Service) ExpulsarJogador(ctx context.Context, idSala, idMestre, idJogadorAlvo int64) error {
	s.logger.Debug("Iniciando expulsão de jogador no serviço.", map[string]interface{}{"id_sala": idSala, "id_alvo": idJogadorAlvo})

	// Regra de Negócio: o mestre não pode expulsar a si mesmo.
	if idMestre == idJogadorAlvo {
		return apperror.NewValidationError("O mestre não pode expulsar a si mesmo.")
	}

	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return err
	}

	if sala.IDMestre != idMestre {
		return apperror.NewForbiddenError("Apenas o mestre da sala pode expulsar jogadores.")
	}

	removido, err := s.salaRepo.RemoverParticipante(ctx, idSala, idJogadorAlvo)
	if err != nil {
		return err
	}
	if !removido {
		return apperror.NewNotFoundError("Não foi possível expulsar o jogador. Ele pode já não ser um participante.")
	}

	s.logger.Info("Jogador expulso com sucesso.", map[string]interface{}{"id_sala": idSala, "id_alvo": idJogadorAlvo})
	return nil
}

// AssociarPersonagem vincula um personagem do usuário à sua participação na
// sala. O personagem precisa pertencer ao usuário e ser do mesmo sistema da
// sala.
func (s *Service) AssociarPersonagem(ctx context.Context, idSala, idUsuario, idPersonagem int64) error {
	s.logger.Debug("Iniciando associação de personagem no serviço.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario, "id_personagem": idPersonagem})

	// 1. A sala precisa existir (e define o sistema de jogo esperado).
	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return err
	}

	// 2. O personagem precisa existir.
	personagem, err := s.personagemRepo.BuscarPorID(ctx, idPersonagem)
	if err != nil {
		return err
	}

	// 3. Regra de Segurança: o personagem deve pertencer ao usuário.
	if personagem.IDUsuario != idUsuario {
		return apperror.NewForbiddenError("Você só pode selecionar personagens que lhe pertencem.")
	}

	// 4. Regra de Compatibilidade: mesmo sistema de jogo da sala.
	if personagem.IDSistema != sala.IDSistema {
		return apperror.NewValidationError("Este personagem não é compatível com o sistema de jogo desta sala.")
	}

	if err := s.salaRepo.AssociarPersonagem(ctx, idSala, idUsuario, idPersonagem); err != nil {
		return err
	}

	s.logger.Info("Personagem associado com sucesso.", map[string]interface{}{"id_sala": idSala, "id_personagem": idPersonagem})
	return nil
}

// ListarSalasDoUsuario lista as salas do usuário para o painel.
func (s *Service) ListarSalasDoUsuario(ctx context.Context, idUsuario int64) ([]domain.SalaInfo, error) {
	s.logger.Debug("Iniciando listagem de salas do usuário no serviço.", map[string]interface{}{"id_usuario": idUsuario})
	return s.salaRepo.BuscarPorUsuarioID(ctx, idUsuario)
}

// BuscarDetalhes monta o estado de entrada do usuário na sala: participantes,
// se falta escolher personagem e a identidade de publicação no log.
// Usuários que não participam da sala recebem acesso negado.
func (s *Service) BuscarDetalhes(ctx context.Context, idSala, idUsuario int64) (domain.SalaDetalhes, error) {
	s.logger.Debug("Iniciando busca de detalhes da sala no serviço.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return domain.SalaDetalhes{}, err
	}

	participante, err := s.salaRepo.BuscarParticipante(ctx, idSala, idUsuario)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.SalaDetalhes{}, apperror.NewForbiddenError("Você não participa desta sala.")
		}
		return domain.SalaDetalhes{}, err
	}

	participantes, err := s.salaRepo.ListarParticipantes(ctx, idSala)
	if err != nil {
		return domain.SalaDetalhes{}, err
	}

	detalhes := domain.SalaDetalhes{
		Sala:          sala,
		Participantes: participantes,
		EhMestre:      sala.IDMestre == idUsuario,
	}

	if detalhes.EhMestre {
		// O mestre é isento da escolha de personagem.
		detalhes.NomeAutor = "Mestre"
		detalhes.TipoLog = domain.TipoLogMestre
	} else {
		detalhes.PrecisaSelecionarPersonagem = participante.IDPersonagem == nil
		detalhes.TipoLog = domain.TipoLogJogador
		if participante.NomePersonagem != nil {
			detalhes.NomeAutor = *participante.NomePersonagem
		} else {
			detalhes.NomeAutor = "Jogador Anónimo"
		}
	}

	return detalhes, nil
}

// gerarCodigoConviteLivre gera códigos de convite até encontrar um que não
// pertença a nenhuma sala existente.
func (s *Service) gerarCodigoConviteLivre(ctx context.Context) (string, error) {
	for tentativa := 0; tentativa < maxTentativasConvite; tentativa++ {
		codigo, err := gerarCodigoConvite()
		if err != nil {
			s.logger.Error("Falha ao gerar código de convite.", err)
			return "", apperror.NewInternalError("Falha ao gerar código de convite.", err)
		}

		_, err = s.salaRepo.BuscarPorCodigoConvite(ctx, codigo)
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return codigo, nil // Código livre.
		}
		if err != nil {
			return "", err
		}

		s.logger.Warn("Código de convite já em uso, gerando outro.", map[string]interface{}{"tentativa": tentativa + 1})
	}

	return "", apperror.NewInternalError("Não foi possível gerar um código de convite único.", nil)
}

// gerarCodigoConvite gera um código aleatório de 6 caracteres do alfabeto fixo.
func gerarCodigoConvite() (string, error) {
	codigo := make([]byte, tamanhoCodigoConvite)
	max := big.NewInt(int64(len(alfabetoConvite)))
	for i := range codigo {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		codigo[i] = alfabetoConvite[n.Int64()]
	}
	return string(codigo), nil
}
