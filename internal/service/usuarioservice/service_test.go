package usuarioservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/pkg/password"
	"mesarpg/internal/service/usuarioservice"
)

// MockUsuarioRepository é uma implementação mock da interface UsuarioRepository
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

// MockTokenService é um mock do emissor de JWT.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID int64, nomeUsuario string) (string, error) {
	args := m.Called(userID, nomeUsuario)
	return args.String(0), args.Error(1)
}

// MockEmailService é um mock do envio de e-mail.
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Enviar(destinatarioEmail, destinatarioNome, assunto, corpoHTML string) error {
	args := m.Called(destinatarioEmail, destinatarioNome, assunto, corpoHTML)
	return args.Error(0)
}

// Helper function to create a basic logger
func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

func newServiceComMocks() (*usuarioservice.Service, *MockUsuarioRepository, *MockTokenService, *MockEmailService) {
	mockRepo := new(MockUsuarioRepository)
	mockToken := new(MockTokenService)
	mockEmail := new(MockEmailService)
	svc := usuarioservice.NewService(mockRepo, mockToken, mockEmail, newTestLogger())
	return svc, mockRepo, mockToken, mockEmail
}

// --- Testes para Cadastrar ---

func TestCadastrar_Success(t *testing.T) {
	svc, mockRepo, _, mockEmail := newServiceComMocks()

	cadastro := domain.Cadastro{NomeUsuario: "Ana", Email: "ana@exemplo.com", Senha: "segredo123"}

	mockRepo.On("BuscarPorEmail", mock.Anything, cadastro.Email).
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado."))
	mockRepo.On("Salvar", mock.Anything, mock.AnythingOfType("domain.Usuario")).
		Return(domain.Usuario{ID: 1, NomeUsuario: "Ana", Email: cadastro.Email}, nil)
	mockEmail.On("Enviar", cadastro.Email, "Ana", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	usuario, err := svc.Cadastrar(ctx, cadastro)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), usuario.ID)
	mockRepo.AssertExpectations(t)
	mockEmail.AssertExpectations(t)
}

func TestCadastrar_Fail_CamposObrigatorios(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	ctx := context.Background()
	_, err := svc.Cadastrar(ctx, domain.Cadastro{NomeUsuario: "", Email: "a@b.com", Senha: "x"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Salvar")
}

func TestCadastrar_Fail_EmailEmUso(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	cadastro := domain.Cadastro{NomeUsuario: "Ana", Email: "ana@exemplo.com", Senha: "segredo123"}

	mockRepo.On("BuscarPorEmail", mock.Anything, cadastro.Email).
		Return(domain.Usuario{ID: 7, Email: cadastro.Email}, nil)

	ctx := context.Background()
	_, err := svc.Cadastrar(ctx, cadastro)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "já está em uso")
	mockRepo.AssertNotCalled(t, "Salvar")
}

func TestCadastrar_Success_FalhaNoEmailNaoDesfazCadastro(t *testing.T) {
	svc, mockRepo, _, mockEmail := newServiceComMocks()

	cadastro := domain.Cadastro{NomeUsuario: "Ana", Email: "ana@exemplo.com", Senha: "segredo123"}

	mockRepo.On("BuscarPorEmail", mock.Anything, cadastro.Email).
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado."))
	mockRepo.On("Salvar", mock.Anything, mock.AnythingOfType("domain.Usuario")).
		Return(domain.Usuario{ID: 1, NomeUsuario: "Ana", Email: cadastro.Email}, nil)
	mockEmail.On("Enviar", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp indisponível"))

	ctx := context.Background()
	usuario, err := svc.Cadastrar(ctx, cadastro)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), usuario.ID)
	mockRepo.AssertExpectations(t)
}

// --- Testes para VerificarEmail ---

func TestVerificarEmail_Success(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	codigo := "123456"
	usuario := domain.Usuario{ID: 1, EmailVerificado: false, CodigoVerificacao: &codigo}

	mockRepo.On("BuscarPorCodigoVerificacao", mock.Anything, codigo).Return(usuario, nil)
	mockRepo.On("Atualizar", mock.Anything, mock.MatchedBy(func(u domain.Usuario) bool {
		return u.EmailVerificado && u.CodigoVerificacao == nil
	})).Return(nil)

	ctx := context.Background()
	err := svc.VerificarEmail(ctx, codigo)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestVerificarEmail_Fail_FormatoInvalido(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	ctx := context.Background()
	err := svc.VerificarEmail(ctx, "abc123")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "formato do código")
	mockRepo.AssertNotCalled(t, "BuscarPorCodigoVerificacao")
}

func TestVerificarEmail_Fail_CodigoDesconhecido(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	mockRepo.On("BuscarPorCodigoVerificacao", mock.Anything, "999999").
		Return(domain.Usuario{}, apperror.NewNotFoundError("Código não encontrado."))

	ctx := context.Background()
	err := svc.VerificarEmail(ctx, "999999")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "inválido ou expirado")
	mockRepo.AssertExpectations(t)
}

// --- Testes para Login ---

func TestLogin_Success(t *testing.T) {
	svc, mockRepo, mockToken, _ := newServiceComMocks()

	senhaHash, err := password.Hash("segredo123")
	assert.NoError(t, err)

	usuario := domain.Usuario{ID: 1, NomeUsuario: "Ana", Email: "ana@exemplo.com", SenhaHash: senhaHash, EmailVerificado: true}

	mockRepo.On("BuscarPorEmail", mock.Anything, usuario.Email).Return(usuario, nil)
	mockToken.On("GenerateToken", usuario.ID, usuario.NomeUsuario).Return("token-jwt", nil)

	ctx := context.Background()
	logado, token, err := svc.Login(ctx, usuario.Email, "segredo123")

	assert.NoError(t, err)
	assert.Equal(t, "token-jwt", token)
	assert.Equal(t, usuario.ID, logado.ID)
	mockRepo.AssertExpectations(t)
	mockToken.AssertExpectations(t)
}

func TestLogin_Fail_EmailInexistente(t *testing.T) {
	svc, mockRepo, mockToken, _ := newServiceComMocks()

	mockRepo.On("BuscarPorEmail", mock.Anything, "nada@exemplo.com").
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado."))

	ctx := context.Background()
	_, _, err := svc.Login(ctx, "nada@exemplo.com", "qualquer")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	assert.Contains(t, err.Error(), "E-mail ou senha inválidos")
	mockToken.AssertNotCalled(t, "GenerateToken")
}

func TestLogin_Fail_SenhaIncorreta(t *testing.T) {
	svc, mockRepo, mockToken, _ := newServiceComMocks()

	senhaHash, err := password.Hash("segredo123")
	assert.NoError(t, err)

	usuario := domain.Usuario{ID: 1, Email: "ana@exemplo.com", SenhaHash: senhaHash, EmailVerificado: true}
	mockRepo.On("BuscarPorEmail", mock.Anything, usuario.Email).Return(usuario, nil)

	ctx := context.Background()
	_, _, err = svc.Login(ctx, usuario.Email, "senha-errada")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	// Mesma mensagem do e-mail inexistente: não permite enumeração de contas.
	assert.Contains(t, err.Error(), "E-mail ou senha inválidos")
	mockToken.AssertNotCalled(t, "GenerateToken")
}

func TestLogin_Fail_EmailNaoVerificado(t *testing.T) {
	svc, mockRepo, mockToken, _ := newServiceComMocks()

	senhaHash, err := password.Hash("segredo123")
	assert.NoError(t, err)

	usuario := domain.Usuario{ID: 1, Email: "ana@exemplo.com", SenhaHash: senhaHash, EmailVerificado: false}
	mockRepo.On("BuscarPorEmail", mock.Anything, usuario.Email).Return(usuario, nil)

	ctx := context.Background()
	_, _, err = svc.Login(ctx, usuario.Email, "segredo123")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockToken.AssertNotCalled(t, "GenerateToken")
}

// --- Testes para AlterarSenha ---

func TestAlterarSenha_Success(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	senhaHash, err := password.Hash("antiga123")
	assert.NoError(t, err)

	usuario := domain.Usuario{ID: 1, SenhaHash: senhaHash}
	mockRepo.On("BuscarPorID", mock.Anything, int64(1)).Return(usuario, nil)
	mockRepo.On("Atualizar", mock.Anything, mock.MatchedBy(func(u domain.Usuario) bool {
		return u.SenhaHash != senhaHash
	})).Return(nil)

	ctx := context.Background()
	err = svc.AlterarSenha(ctx, 1, "antiga123", "nova-senha-456")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAlterarSenha_Fail_NovaSenhaCurta(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	ctx := context.Background()
	err := svc.AlterarSenha(ctx, 1, "antiga123", "abc")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "BuscarPorID")
}

func TestAlterarSenha_Fail_SenhaAtualIncorreta(t *testing.T) {
	svc, mockRepo, _, _ := newServiceComMocks()

	senhaHash, err := password.Hash("antiga123")
	assert.NoError(t, err)

	usuario := domain.Usuario{ID: 1, SenhaHash: senhaHash}
	mockRepo.On("BuscarPorID", mock.Anything, int64(1)).Return(usuario, nil)

	ctx := context.Background()
	err = svc.AlterarSenha(ctx, 1, "senha-errada", "nova-senha-456")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockRepo.AssertNotCalled(t, "Atualizar")
}
