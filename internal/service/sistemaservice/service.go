package sistemaservice

import (
	"context"

	"mesarpg/internal/domain"
	"mesarpg/internal/pkg/logger"
)

// Service expõe a consulta dos sistemas de RPG disponíveis. Os sistemas são
// dados semeados: não há criação nem edição pela API.
type Service struct {
	repo   domain.SistemaRPGRepository
	logger logger.Logger
}

// NewService cria uma nova instância do serviço de sistemas de RPG.
func NewService(repo domain.SistemaRPGRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// BuscarPorID retorna um sistema de RPG com seu template de ficha.
func (s *Service) BuscarPorID(ctx context.Context, id int64) (domain.SistemaRPG, error) {
	s.logger.Debug("Iniciando busca de sistema de RPG no serviço.", map[string]interface{}{"id_sistema": id})
	return s.repo.BuscarPorID(ctx, id)
}

// BuscarTodos lista os sistemas de RPG disponíveis para criação de salas e
// personagens.
func (s *Service) BuscarTodos(ctx context.Context) ([]domain.SistemaRPG, error) {
	s.logger.Debug("Iniciando listagem de sistemas de RPG no serviço.", nil)
	return s.repo.BuscarTodos(ctx)
}
