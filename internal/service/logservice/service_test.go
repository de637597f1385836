package logservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/service/logservice"
)

// MockLogRepository é uma implementação mock da interface LogRepository
type MockLogRepository struct {
	mock.Mock
}

func (m *MockLogRepository) Salvar(ctx context.Context, entrada domain.LogEntry) (domain.LogEntry, error) {
	args := m.Called(ctx, entrada)
	return args.Get(0).(domain.LogEntry), args.Error(1)
}

func (m *MockLogRepository) BuscarPorSalaID(ctx context.Context, idSala int64) ([]domain.LogEntry, error) {
	args := m.Called(ctx, idSala)
	return args.Get(0).([]domain.LogEntry), args.Error(1)
}

// MockSalaRepository é um mock da interface SalaRepository
type MockSalaRepository struct {
	mock.Mock
}

func (m *MockSalaRepository) Salvar(ctx context.Context, sala domain.Sala) (domain.Sala, error) {
	args := m.Called(ctx, sala)
	return args.Get(0).(domain.Sala), args.Error(1)
}

func (m *MockSalaRepository) AtualizarNome(ctx context.Context, sala domain.Sala) error {
	args := m.Called(ctx, sala)
	return args.Error(0)
}

func (m *MockSalaRepository) Deletar(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSalaRepository) BuscarPorID(ctx context.Context, id int64) (domain.Sala, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Sala), args.Error(1)
}

func (m *MockSalaRepository) BuscarPorCodigoConvite(ctx context.Context, codigo string) (domain.Sala, error) {
	args := m.Called(ctx, codigo)
	return args.Get(0).(domain.Sala), args.Error(1)
}

func (m *MockSalaRepository) BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]domain.SalaInfo, error) {
	args := m.Called(ctx, idUsuario)
	return args.Get(0).([]domain.SalaInfo), args.Error(1)
}

func (m *MockSalaRepository) ContarParticipantes(ctx context.Context, idSala int64) (int, error) {
	args := m.Called(ctx, idSala)
	return args.Int(0), args.Error(1)
}

func (m *MockSalaRepository) AdicionarParticipante(ctx context.Context, idSala, idUsuario int64, limite int) (bool, error) {
	args := m.Called(ctx, idSala, idUsuario, limite)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalaRepository) RemoverParticipante(ctx context.Context, idSala, idUsuario int64) (bool, error) {
	args := m.Called(ctx, idSala, idUsuario)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalaRepository) AssociarPersonagem(ctx context.Context, idSala, idUsuario, idPersonagem int64) error {
	args := m.Called(ctx, idSala, idUsuario, idPersonagem)
	return args.Error(0)
}

func (m *MockSalaRepository) BuscarParticipante(ctx context.Context, idSala, idUsuario int64) (domain.Participante, error) {
	args := m.Called(ctx, idSala, idUsuario)
	return args.Get(0).(domain.Participante), args.Error(1)
}

func (m *MockSalaRepository) ListarParticipantes(ctx context.Context, idSala int64) ([]domain.Participante, error) {
	args := m.Called(ctx, idSala)
	return args.Get(0).([]domain.Participante), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func newServiceComMocks() (*logservice.Service, *MockLogRepository, *MockSalaRepository) {
	mockRepo := new(MockLogRepository)
	mockSalaRepo := new(MockSalaRepository)
	svc := logservice.NewService(mockRepo, mockSalaRepo, newTestLogger())
	return svc, mockRepo, mockSalaRepo
}

// --- Testes para Publicar ---

func TestPublicar_Success_Mestre(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(1)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 1}, nil)
	mockRepo.On("Salvar", mock.Anything, mock.MatchedBy(func(e domain.LogEntry) bool {
		return e.AutorNome == "Mestre" && e.TipoLog == domain.TipoLogMestre
	})).Return(domain.LogEntry{ID: 1, IDSala: 10, AutorNome: "Mestre", TipoLog: domain.TipoLogMestre}, nil)

	ctx := context.Background()
	entrada, err := svc.Publicar(ctx, 10, 1, "O dragão desperta.")

	assert.NoError(t, err)
	assert.Equal(t, domain.TipoLogMestre, entrada.TipoLog)
	mockRepo.AssertExpectations(t)
}

func TestPublicar_Success_JogadorComPersonagem(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	nome := "Tharion"
	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(2)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 2, NomePersonagem: &nome}, nil)
	mockRepo.On("Salvar", mock.Anything, mock.MatchedBy(func(e domain.LogEntry) bool {
		return e.AutorNome == "Tharion" && e.TipoLog == domain.TipoLogJogador
	})).Return(domain.LogEntry{ID: 2, AutorNome: "Tharion", TipoLog: domain.TipoLogJogador}, nil)

	ctx := context.Background()
	entrada, err := svc.Publicar(ctx, 10, 2, "Eu saco a espada.")

	assert.NoError(t, err)
	assert.Equal(t, "Tharion", entrada.AutorNome)
	mockRepo.AssertExpectations(t)
}

func TestPublicar_Success_JogadorSemPersonagem(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(2)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 2}, nil)
	mockRepo.On("Salvar", mock.Anything, mock.MatchedBy(func(e domain.LogEntry) bool {
		return e.AutorNome == "Jogador Anónimo" && e.TipoLog == domain.TipoLogJogador
	})).Return(domain.LogEntry{ID: 3, AutorNome: "Jogador Anónimo", TipoLog: domain.TipoLogJogador}, nil)

	ctx := context.Background()
	entrada, err := svc.Publicar(ctx, 10, 2, "Olá a todos.")

	assert.NoError(t, err)
	assert.Equal(t, "Jogador Anónimo", entrada.AutorNome)
	mockRepo.AssertExpectations(t)
}

func TestPublicar_Fail_MensagemVazia(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	ctx := context.Background()
	_, err := svc.Publicar(ctx, 10, 1, "   ")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockSalaRepo.AssertNotCalled(t, "BuscarPorID")
	mockRepo.AssertNotCalled(t, "Salvar")
}

func TestPublicar_Fail_NaoParticipante(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(3)).
		Return(domain.Participante{}, apperror.NewNotFoundError("Participante não encontrado."))

	ctx := context.Background()
	_, err := svc.Publicar(ctx, 10, 3, "Posso entrar?")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockRepo.AssertNotCalled(t, "Salvar")
}

// --- Testes para PublicarSistema ---

func TestPublicarSistema_Success(t *testing.T) {
	svc, mockRepo, _ := newServiceComMocks()

	mockRepo.On("Salvar", mock.Anything, mock.MatchedBy(func(e domain.LogEntry) bool {
		return e.AutorNome == "Sistema" && e.TipoLog == domain.TipoLogSistema
	})).Return(domain.LogEntry{ID: 4, AutorNome: "Sistema", TipoLog: domain.TipoLogSistema}, nil)

	ctx := context.Background()
	entrada, err := svc.PublicarSistema(ctx, 10, "Um jogador entrou na sala.")

	assert.NoError(t, err)
	assert.Equal(t, domain.TipoLogSistema, entrada.TipoLog)
	mockRepo.AssertExpectations(t)
}

// --- Testes para ListarPorSala ---

func TestListarPorSala_Success(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	esperadas := []domain.LogEntry{{ID: 1, IDSala: 10}, {ID: 2, IDSala: 10}}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(2)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 2}, nil)
	mockRepo.On("BuscarPorSalaID", mock.Anything, int64(10)).Return(esperadas, nil)

	ctx := context.Background()
	entradas, err := svc.ListarPorSala(ctx, 10, 2)

	assert.NoError(t, err)
	assert.Len(t, entradas, 2)
	mockRepo.AssertExpectations(t)
}

func TestListarPorSala_Fail_NaoParticipante(t *testing.T) {
	svc, mockRepo, mockSalaRepo := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(3)).
		Return(domain.Participante{}, apperror.NewNotFoundError("Participante não encontrado."))

	ctx := context.Background()
	_, err := svc.ListarPorSala(ctx, 10, 3)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockRepo.AssertNotCalled(t, "BuscarPorSalaID")
}
