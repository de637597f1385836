package logservice

import (
	"context"
	"errors"
	"strings"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

// Service implementa o log narrativo das salas: publicação e leitura de
// entradas. A identidade do autor é resolvida no servidor a partir da
// participação, nunca confiada ao cliente.
type Service struct {
	repo     domain.LogRepository
	salaRepo domain.SalaRepository
	logger   logger.Logger
}

// NewService cria uma nova instância do serviço de log de sala.
func NewService(repo domain.LogRepository, salaRepo domain.SalaRepository, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		salaRepo: salaRepo,
		logger:   logger,
	}
}

// Publicar adiciona uma entrada ao log da sala em nome do usuário. O mestre
// publica como "Mestre"; jogadores publicam com o nome do personagem
// selecionado, ou como "Jogador Anónimo" se ainda não escolheram.
func (s *Service) Publicar(ctx context.Context, idSala, idUsuario int64, mensagem string) (domain.LogEntry, error) {
	s.logger.Debug("Iniciando publicação no log da sala no serviço.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	mensagem = strings.TrimSpace(mensagem)
	if mensagem == "" {
		return domain.LogEntry{}, apperror.NewValidationError("A mensagem não pode estar vazia.")
	}

	sala, participante, err := s.exigirParticipacao(ctx, idSala, idUsuario)
	if err != nil {
		return domain.LogEntry{}, err
	}

	entrada := domain.LogEntry{
		IDSala:   idSala,
		Mensagem: mensagem,
	}
	if sala.IDMestre == idUsuario {
		entrada.AutorNome = "Mestre"
		entrada.TipoLog = domain.TipoLogMestre
	} else {
		entrada.TipoLog = domain.TipoLogJogador
		if participante.NomePersonagem != nil {
			entrada.AutorNome = *participante.NomePersonagem
		} else {
			entrada.AutorNome = "Jogador Anónimo"
		}
	}

	salva, err := s.repo.Salvar(ctx, entrada)
	if err != nil {
		s.logger.Error("Falha ao salvar entrada no log da sala.", err)
		return domain.LogEntry{}, err
	}

	s.logger.Info("Entrada publicada no log da sala.", map[string]interface{}{"id_sala": idSala, "id_log": salva.ID, "tipo": string(salva.TipoLog)})
	return salva, nil
}

// PublicarSistema adiciona uma entrada de sistema ao log (avisos automáticos
// da plataforma, como entrada e saída de jogadores).
func (s *Service) PublicarSistema(ctx context.Context, idSala int64, mensagem string) (domain.LogEntry, error) {
	mensagem = strings.TrimSpace(mensagem)
	if mensagem == "" {
		return domain.LogEntry{}, apperror.NewValidationError("A mensagem não pode estar vazia.")
	}

	entrada := domain.LogEntry{
		IDSala:    idSala,
		AutorNome: "Sistema",
		TipoLog:   domain.TipoLogSistema,
		Mensagem:  mensagem,
	}

	salva, err := s.repo.Salvar(ctx, entrada)
	if err != nil {
		s.logger.Error("Falha ao salvar entrada de sistema no log da sala.", err)
		return domain.LogEntry{}, err
	}
	return salva, nil
}

// ListarPorSala retorna o log completo da sala, em ordem cronológica.
// Somente participantes podem ler o log.
func (s *Service) ListarPorSala(ctx context.Context, idSala, idUsuario int64) ([]domain.LogEntry, error) {
	s.logger.Debug("Iniciando listagem do log da sala no serviço.", map[string]interface{}{"id_sala": idSala})

	if _, _, err := s.exigirParticipacao(ctx, idSala, idUsuario); err != nil {
		return nil, err
	}

	return s.repo.BuscarPorSalaID(ctx, idSala)
}

// exigirParticipacao busca a sala e garante que o usuário participa dela.
func (s *Service) exigirParticipacao(ctx context.Context, idSala, idUsuario int64) (domain.Sala, domain.Participante, error) {
	sala, err := s.salaRepo.BuscarPorID(ctx, idSala)
	if err != nil {
		return domain.Sala{}, domain.Participante{}, err
	}

	participante, err := s.salaRepo.BuscarParticipante(ctx, idSala, idUsuario)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Sala{}, domain.Participante{}, apperror.NewForbiddenError("Você não participa desta sala.")
		}
		return domain.Sala{}, domain.Participante{}, err
	}

	return sala, participante, nil
}
