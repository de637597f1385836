package personagemservice

import (
	"context"
	"errors"
	"strings"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

// Service implementa os casos de uso de personagem: criação, edição,
// exclusão e consulta de fichas.
type Service struct {
	repo        domain.PersonagemRepository
	sistemaRepo domain.SistemaRPGRepository
	logger      logger.Logger
}

// NewService cria uma nova instância do serviço de personagem.
func NewService(repo domain.PersonagemRepository, sistemaRepo domain.SistemaRPGRepository, logger logger.Logger) *Service {
	return &Service{
		repo:        repo,
		sistemaRepo: sistemaRepo,
		logger:      logger,
	}
}

// Criar cria uma nova ficha de personagem para o usuário. A ficha é livre,
// mas precisa carregar o nome do personagem na chave reservada.
func (s *Service) Criar(ctx context.Context, idUsuario, idSistema int64, ficha map[string]interface{}) (domain.Personagem, error) {
	s.logger.Debug("Iniciando criação de personagem no serviço.", map[string]interface{}{"id_usuario": idUsuario, "id_sistema": idSistema})

	nome, err := extrairNome(ficha)
	if err != nil {
		return domain.Personagem{}, err
	}

	// Regra de Negócio: o sistema de RPG precisa existir.
	if _, err := s.sistemaRepo.BuscarPorID(ctx, idSistema); err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Personagem{}, apperror.NewValidationError("Sistema de RPG inválido.")
		}
		return domain.Personagem{}, err
	}

	novoPersonagem := domain.Personagem{
		IDUsuario:      idUsuario,
		IDSistema:      idSistema,
		NomePersonagem: nome,
	}
	if err := novoPersonagem.AtualizarFicha(ficha); err != nil {
		return domain.Personagem{}, apperror.NewValidationError("A ficha contém valores que não podem ser serializados.")
	}

	personagem, err := s.repo.Salvar(ctx, novoPersonagem)
	if err != nil {
		s.logger.Error("Falha ao criar personagem no repositório.", err)
		return domain.Personagem{}, err
	}

	s.logger.Info("Personagem criado com sucesso.", map[string]interface{}{"id_personagem": personagem.ID, "id_usuario": idUsuario})
	return personagem, nil
}

// Atualizar substitui a ficha de um personagem do usuário. O sistema de RPG
// do personagem nunca muda após a criação.
func (s *Service) Atualizar(ctx context.Context, idPersonagem, idUsuario int64, ficha map[string]interface{}) (domain.Personagem, error) {
	s.logger.Debug("Iniciando atualização de personagem no serviço.", map[string]interface{}{"id_personagem": idPersonagem})

	nome, err := extrairNome(ficha)
	if err != nil {
		return domain.Personagem{}, err
	}

	personagem, err := s.buscarDoUsuario(ctx, idPersonagem, idUsuario)
	if err != nil {
		return domain.Personagem{}, err
	}

	personagem.AtualizarNome(nome)
	if err := personagem.AtualizarFicha(ficha); err != nil {
		return domain.Personagem{}, apperror.NewValidationError("A ficha contém valores que não podem ser serializados.")
	}

	if err := s.repo.Atualizar(ctx, personagem); err != nil {
		s.logger.Error("Falha ao atualizar personagem no repositório.", err)
		return domain.Personagem{}, err
	}

	s.logger.Info("Personagem atualizado com sucesso.", map[string]interface{}{"id_personagem": idPersonagem})
	return personagem, nil
}

// Deletar exclui um personagem do usuário. Participações que apontavam para
// ele voltam ao estado "sem personagem" na camada de armazenamento.
func (s *Service) Deletar(ctx context.Context, idPersonagem, idUsuario int64) error {
	s.logger.Debug("Iniciando exclusão de personagem no serviço.", map[string]interface{}{"id_personagem": idPersonagem})

	if _, err := s.buscarDoUsuario(ctx, idPersonagem, idUsuario); err != nil {
		return err
	}

	if err := s.repo.Deletar(ctx, idPersonagem); err != nil {
		s.logger.Error("Falha ao deletar personagem no repositório.", err)
		return err
	}

	s.logger.Info("Personagem excluído com sucesso.", map[string]interface{}{"id_personagem": idPersonagem})
	return nil
}

// BuscarPorID retorna um personagem do usuário.
func (s *Service) BuscarPorID(ctx context.Context, idPersonagem, idUsuario int64) (domain.Personagem, error) {
	s.logger.Debug("Iniciando busca de personagem no serviço.", map[string]interface{}{"id_personagem": idPersonagem})
	return s.buscarDoUsuario(ctx, idPersonagem, idUsuario)
}

// ListarDoUsuario lista todos os personagens do usuário.
func (s *Service) ListarDoUsuario(ctx context.Context, idUsuario int64) ([]domain.Personagem, error) {
	s.logger.Debug("Iniciando listagem de personagens no serviço.", map[string]interface{}{"id_usuario": idUsuario})
	return s.repo.BuscarPorUsuarioID(ctx, idUsuario)
}

// buscarDoUsuario busca o personagem e garante que ele pertence ao usuário.
func (s *Service) buscarDoUsuario(ctx context.Context, idPersonagem, idUsuario int64) (domain.Personagem, error) {
	personagem, err := s.repo.BuscarPorID(ctx, idPersonagem)
	if err != nil {
		return domain.Personagem{}, err
	}
	if personagem.IDUsuario != idUsuario {
		return domain.Personagem{}, apperror.NewForbiddenError("Este personagem não pertence a você.")
	}
	return personagem, nil
}

// extrairNome valida e extrai o nome do personagem da ficha.
func extrairNome(ficha map[string]interface{}) (string, error) {
	valor, ok := ficha[domain.ChaveNomePersonagem]
	if !ok {
		return "", apperror.NewValidationError("A ficha deve conter o campo 'nome_personagem'.")
	}
	nome, ok := valor.(string)
	if !ok || strings.TrimSpace(nome) == "" {
		return "", apperror.NewValidationError("O nome do personagem não pode estar vazio.")
	}
	return strings.TrimSpace(nome), nil
}
