package salaservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/service/salaservice"
)

// MockSalaRepository é uma implementação mock da interface SalaRepository
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

// MockUsuarioRepository é um mock mínimo da interface UsuarioRepository
type MockUsuarioRepository struct {
	mock.Mock
}

func (m *MockUsuarioRepository) Salvar(ctx context.Context, usuario domain.Usuario) (domain.Usuario, error) {
	args := m.Called(ctx, usuario)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) Atualizar(ctx context.Context, usuario domain.Usuario) error {
	args := m.Called(ctx, usuario)
	return args.Error(0)
}

func (m *MockUsuarioRepository) BuscarPorID(ctx context.Context, id int64) (domain.Usuario, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) BuscarPorEmail(ctx context.Context, email string) (domain.Usuario, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) BuscarPorCodigoVerificacao(ctx context.Context, codigo string) (domain.Usuario, error) {
	args := m.Called(ctx, codigo)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

// MockPersonagemRepository é um mock da interface PersonagemRepository
type MockPersonagemRepository struct {
	mock.Mock
}

func (m *MockPersonagemRepository) Salvar(ctx context.Context, personagem domain.Personagem) (domain.Personagem, error) {
	args := m.Called(ctx, personagem)
	return args.Get(0).(domain.Personagem), args.Error(1)
}

func (m *MockPersonagemRepository) Atualizar(ctx context.Context, personagem domain.Personagem) error {
	args := m.Called(ctx, personagem)
	return args.Error(0)
}

func (m *MockPersonagemRepository) Deletar(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPersonagemRepository) BuscarPorID(ctx context.Context, id int64) (domain.Personagem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Personagem), args.Error(1)
}

func (m *MockPersonagemRepository) BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]domain.Personagem, error) {
	args := m.Called(ctx, idUsuario)
	return args.Get(0).([]domain.Personagem), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func newServiceComMocks() (*salaservice.Service, *MockSalaRepository, *MockUsuarioRepository, *MockPersonagemRepository) {
	mockSalaRepo := new(MockSalaRepository)
	mockUsuarioRepo := new(MockUsuarioRepository)
	mockPersonagemRepo := new(MockPersonagemRepository)
	svc := salaservice.NewService(mockSalaRepo, mockUsuarioRepo, mockPersonagemRepo, newTestLogger())
	return svc, mockSalaRepo, mockUsuarioRepo, mockPersonagemRepo
}

// --- Testes para CriarSala ---

func TestCriarSala_Success(t *testing.T) {
	svc, mockSalaRepo, mockUsuarioRepo, _ := newServiceComMocks()

	mockUsuarioRepo.On("BuscarPorID", mock.Anything, int64(1)).Return(domain.Usuario{ID: 1}, nil)
	// Qualquer código gerado está livre.
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, mock.AnythingOfType("string")).
		Return(domain.Sala{}, apperror.NewNotFoundError("Sala não encontrada."))
	mockSalaRepo.On("Salvar", mock.Anything, mock.MatchedBy(func(s domain.Sala) bool {
		return s.IDMestre == 1 && s.IDSistema == 2 && len(s.CodigoConvite) == 6
	})).Return(domain.Sala{ID: 10, IDMestre: 1, IDSistema: 2, NomeSala: "A Masmorra", CodigoConvite: "ABC234"}, nil)

	ctx := context.Background()
	sala, err := svc.CriarSala(ctx, 1, 2, "A Masmorra")

	assert.NoError(t, err)
	assert.Equal(t, int64(10), sala.ID)
	assert.Len(t, sala.CodigoConvite, 6)
	mockSalaRepo.AssertExpectations(t)
}

func TestCriarSala_Fail_NomeVazio(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	ctx := context.Background()
	_, err := svc.CriarSala(ctx, 1, 2, "   ")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "não pode estar vazio")
	mockSalaRepo.AssertNotCalled(t, "Salvar")
}

func TestCriarSala_Fail_MestreInvalido(t *testing.T) {
	svc, mockSalaRepo, mockUsuarioRepo, _ := newServiceComMocks()

	mockUsuarioRepo.On("BuscarPorID", mock.Anything, int64(99)).
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado."))

	ctx := context.Background()
	_, err := svc.CriarSala(ctx, 99, 2, "A Masmorra")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockSalaRepo.AssertNotCalled(t, "Salvar")
}

func TestCriarSala_Success_CodigoEmColisaoGeraOutro(t *testing.T) {
	svc, mockSalaRepo, mockUsuarioRepo, _ := newServiceComMocks()

	mockUsuarioRepo.On("BuscarPorID", mock.Anything, int64(1)).Return(domain.Usuario{ID: 1}, nil)
	// Primeira tentativa colide, segunda está livre.
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, mock.AnythingOfType("string")).
		Return(domain.Sala{ID: 5}, nil).Once()
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, mock.AnythingOfType("string")).
		Return(domain.Sala{}, apperror.NewNotFoundError("Sala não encontrada.")).Once()
	mockSalaRepo.On("Salvar", mock.Anything, mock.AnythingOfType("domain.Sala")).
		Return(domain.Sala{ID: 10}, nil)

	ctx := context.Background()
	_, err := svc.CriarSala(ctx, 1, 2, "A Masmorra")

	assert.NoError(t, err)
	mockSalaRepo.AssertNumberOfCalls(t, "BuscarPorCodigoConvite", 2)
}

// --- Testes para EntrarSala ---

func TestEntrarSala_Success(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, CodigoConvite: "ABC234"}
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ABC234").Return(sala, nil)
	mockSalaRepo.On("BuscarPorUsuarioID", mock.Anything, int64(2)).Return([]domain.SalaInfo{}, nil)
	mockSalaRepo.On("ContarParticipantes", mock.Anything, int64(10)).Return(3, nil)
	mockSalaRepo.On("AdicionarParticipante", mock.Anything, int64(10), int64(2), salaservice.LimiteParticipantes).Return(true, nil)

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "abc234") // Código normalizado para maiúsculas

	assert.NoError(t, err)
	mockSalaRepo.AssertExpectations(t)
}

func TestEntrarSala_Fail_CodigoDesconhecido(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ZZZZZZ").
		Return(domain.Sala{}, apperror.NewNotFoundError("Sala não encontrada."))

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "ZZZZZZ")

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.Contains(t, err.Error(), "código de convite")
	mockSalaRepo.AssertNotCalled(t, "AdicionarParticipante")
}

func TestEntrarSala_Fail_JaParticipa(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, CodigoConvite: "ABC234"}
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ABC234").Return(sala, nil)
	mockSalaRepo.On("BuscarPorUsuarioID", mock.Anything, int64(2)).
		Return([]domain.SalaInfo{{Sala: domain.Sala{ID: 10}}}, nil)

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "ABC234")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "já participa")
	mockSalaRepo.AssertNotCalled(t, "AdicionarParticipante")
}

func TestEntrarSala_Fail_LimiteDeSalasDoUsuario(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, CodigoConvite: "ABC234"}
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ABC234").Return(sala, nil)
	mockSalaRepo.On("BuscarPorUsuarioID", mock.Anything, int64(2)).
		Return([]domain.SalaInfo{{Sala: domain.Sala{ID: 20}}, {Sala: domain.Sala{ID: 30}}}, nil)

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "ABC234")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "limite")
	mockSalaRepo.AssertNotCalled(t, "AdicionarParticipante")
}

func TestEntrarSala_Fail_SalaCheia(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, CodigoConvite: "ABC234"}
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ABC234").Return(sala, nil)
	mockSalaRepo.On("BuscarPorUsuarioID", mock.Anything, int64(2)).Return([]domain.SalaInfo{}, nil)
	mockSalaRepo.On("ContarParticipantes", mock.Anything, int64(10)).Return(salaservice.LimiteParticipantes, nil)

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "ABC234")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockSalaRepo.AssertNotCalled(t, "AdicionarParticipante")
}

func TestEntrarSala_Fail_CorridaSalaCheia(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	// A contagem passou, mas a inserção condicional perdeu a corrida.
	sala := domain.Sala{ID: 10, CodigoConvite: "ABC234"}
	mockSalaRepo.On("BuscarPorCodigoConvite", mock.Anything, "ABC234").Return(sala, nil)
	mockSalaRepo.On("BuscarPorUsuarioID", mock.Anything, int64(2)).Return([]domain.SalaInfo{}, nil)
	mockSalaRepo.On("ContarParticipantes", mock.Anything, int64(10)).Return(4, nil)
	mockSalaRepo.On("AdicionarParticipante", mock.Anything, int64(10), int64(2), salaservice.LimiteParticipantes).Return(false, nil)

	ctx := context.Background()
	err := svc.EntrarSala(ctx, 2, "ABC234")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockSalaRepo.AssertExpectations(t)
}

// --- Testes para EditarSala e DeletarSala ---

func TestEditarSala_Fail_NaoMestre(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDMestre: 1}, nil)

	ctx := context.Background()
	err := svc.EditarSala(ctx, 10, 2, "Novo Nome")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockSalaRepo.AssertNotCalled(t, "AtualizarNome")
}

func TestDeletarSala_Success(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDMestre: 1}, nil)
	mockSalaRepo.On("Deletar", mock.Anything, int64(10)).Return(nil)

	ctx := context.Background()
	err := svc.DeletarSala(ctx, 10, 1)

	assert.NoError(t, err)
	mockSalaRepo.AssertExpectations(t)
}

// --- Testes para SairSala e ExpulsarJogador ---

func TestSairSala_Fail_MestreNaoSai(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDMestre: 1}, nil)

	ctx := context.Background()
	err := svc.SairSala(ctx, 10, 1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "mestre não pode sair")
	mockSalaRepo.AssertNotCalled(t, "RemoverParticipante")
}

func TestSairSala_Success(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDMestre: 1}, nil)
	mockSalaRepo.On("RemoverParticipante", mock.Anything, int64(10), int64(2)).Return(true, nil)

	ctx := context.Background()
	err := svc.SairSala(ctx, 10, 2)

	assert.NoError(t, err)
	mockSalaRepo.AssertExpectations(t)
}

func TestExpulsarJogador_Fail_NaoMestre(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDMestre: 1}, nil)

	ctx := context.Background()
	err := svc.ExpulsarJogador(ctx, 10, 2, 3)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockSalaRepo.AssertNotCalled(t, "RemoverParticipante")
}

func TestExpulsarJogador_Fail_ASiMesmo(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	ctx := context.Background()
	err := svc.ExpulsarJogador(ctx, 10, 1, 1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockSalaRepo.AssertNotCalled(t, "BuscarPorID")
}

// --- Testes para AssociarPersonagem ---

func TestAssociarPersonagem_Success(t *testing.T) {
	svc, mockSalaRepo, _, mockPersonagemRepo := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDSistema: 2}, nil)
	mockPersonagemRepo.On("BuscarPorID", mock.Anything, int64(5)).
		Return(domain.Personagem{ID: 5, IDUsuario: 2, IDSistema: 2}, nil)
	mockSalaRepo.On("AssociarPersonagem", mock.Anything, int64(10), int64(2), int64(5)).Return(nil)

	ctx := context.Background()
	err := svc.AssociarPersonagem(ctx, 10, 2, 5)

	assert.NoError(t, err)
	mockSalaRepo.AssertExpectations(t)
}

func TestAssociarPersonagem_Fail_OutroDono(t *testing.T) {
	svc, mockSalaRepo, _, mockPersonagemRepo := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDSistema: 2}, nil)
	mockPersonagemRepo.On("BuscarPorID", mock.Anything, int64(5)).
		Return(domain.Personagem{ID: 5, IDUsuario: 99, IDSistema: 2}, nil)

	ctx := context.Background()
	err := svc.AssociarPersonagem(ctx, 10, 2, 5)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockSalaRepo.AssertNotCalled(t, "AssociarPersonagem")
}

func TestAssociarPersonagem_Fail_SistemaIncompativel(t *testing.T) {
	svc, mockSalaRepo, _, mockPersonagemRepo := newServiceComMocks()

	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(domain.Sala{ID: 10, IDSistema: 2}, nil)
	mockPersonagemRepo.On("BuscarPorID", mock.Anything, int64(5)).
		Return(domain.Personagem{ID: 5, IDUsuario: 2, IDSistema: 3}, nil)

	ctx := context.Background()
	err := svc.AssociarPersonagem(ctx, 10, 2, 5)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "não é compatível")
	mockSalaRepo.AssertNotCalled(t, "AssociarPersonagem")
}

// --- Testes para BuscarDetalhes ---

func TestBuscarDetalhes_Success_Mestre(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(1)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 1}, nil)
	mockSalaRepo.On("ListarParticipantes", mock.Anything, int64(10)).
		Return([]domain.Participante{{IDSala: 10, IDUsuario: 1}}, nil)

	ctx := context.Background()
	detalhes, err := svc.BuscarDetalhes(ctx, 10, 1)

	assert.NoError(t, err)
	assert.True(t, detalhes.EhMestre)
	assert.False(t, detalhes.PrecisaSelecionarPersonagem)
	assert.Equal(t, "Mestre", detalhes.NomeAutor)
	assert.Equal(t, domain.TipoLogMestre, detalhes.TipoLog)
}

func TestBuscarDetalhes_Success_JogadorSemPersonagem(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(2)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 2}, nil)
	mockSalaRepo.On("ListarParticipantes", mock.Anything, int64(10)).
		Return([]domain.Participante{}, nil)

	ctx := context.Background()
	detalhes, err := svc.BuscarDetalhes(ctx, 10, 2)

	assert.NoError(t, err)
	assert.False(t, detalhes.EhMestre)
	assert.True(t, detalhes.PrecisaSelecionarPersonagem)
	assert.Equal(t, "Jogador Anónimo", detalhes.NomeAutor)
	assert.Equal(t, domain.TipoLogJogador, detalhes.TipoLog)
}

func TestBuscarDetalhes_Success_JogadorComPersonagem(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	idPersonagem := int64(5)
	nome := "Tharion"
	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(2)).
		Return(domain.Participante{IDSala: 10, IDUsuario: 2, IDPersonagem: &idPersonagem, NomePersonagem: &nome}, nil)
	mockSalaRepo.On("ListarParticipantes", mock.Anything, int64(10)).
		Return([]domain.Participante{}, nil)

	ctx := context.Background()
	detalhes, err := svc.BuscarDetalhes(ctx, 10, 2)

	assert.NoError(t, err)
	assert.False(t, detalhes.PrecisaSelecionarPersonagem)
	assert.Equal(t, "Tharion", detalhes.NomeAutor)
}

func TestBuscarDetalhes_Fail_NaoParticipante(t *testing.T) {
	svc, mockSalaRepo, _, _ := newServiceComMocks()

	sala := domain.Sala{ID: 10, IDMestre: 1}
	mockSalaRepo.On("BuscarPorID", mock.Anything, int64(10)).Return(sala, nil)
	mockSalaRepo.On("BuscarParticipante", mock.Anything, int64(10), int64(3)).
		Return(domain.Participante{}, apperror.NewNotFoundError("Participante não encontrado."))

	ctx := context.Background()
	_, err := svc.BuscarDetalhes(ctx, 10, 3)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockSalaRepo.AssertNotCalled(t, "ListarParticipantes")
}
