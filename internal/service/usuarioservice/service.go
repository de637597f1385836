package usuarioservice

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
	"mesarpg/internal/pkg/password"
)

// TokenService é o contrato da camada de token (internal/pkg/token) que o
// serviço de usuário precisa para emitir o JWT no login.
type TokenService interface {
	GenerateToken(userID int64, nomeUsuario string) (string, error)
}

// Service implementa os casos de uso de usuário: cadastro, verificação de
// e-mail, login e troca de senha.
type Service struct {
	repo     domain.UsuarioRepository
	tokenSvc TokenService
	emailSvc domain.EmailService
	logger   logger.Logger
}

// NewService cria uma nova instância do serviço de usuário.
func NewService(repo domain.UsuarioRepository, tokenSvc TokenService, emailSvc domain.EmailService, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tokenSvc: tokenSvc,
		emailSvc: emailSvc,
		logger:   logger,
	}
}

// Cadastrar registra um novo usuário: valida os campos, garante e-mail
// único, gera o hash da senha e o código de verificação e dispara o e-mail
// de boas-vindas com o código.
func (s *Service) Cadastrar(ctx context.Context, cadastro domain.Cadastro) (domain.Usuario, error) {
	s.logger.Debug("Iniciando cadastro de usuário no serviço.", map[string]interface{}{"email": cadastro.Email})

	// 1. Validação básica dos campos obrigatórios.
	if strings.TrimSpace(cadastro.NomeUsuario) == "" || strings.TrimSpace(cadastro.Email) == "" || cadastro.Senha == "" {
		return domain.Usuario{}, apperror.NewValidationError("Nome, e-mail e senha são obrigatórios.")
	}

	// 2. Regra de Negócio: o e-mail não pode já estar em uso.
	_, err := s.repo.BuscarPorEmail(ctx, cadastro.Email)
	if err == nil {
		s.logger.Info("Cadastro recusado: e-mail já em uso.", map[string]interface{}{"email": cadastro.Email})
		return domain.Usuario{}, apperror.NewConflictError(fmt.Sprintf("O e-mail '%s' já está em uso.", cadastro.Email))
	}
	var notFoundErr *apperror.NotFoundError
	if !errors.As(err, &notFoundErr) {
		return domain.Usuario{}, err
	}

	// 3. Segurança: hash da senha com algoritmo memory-hard (Argon2id).
	senhaHash, err := password.Hash(cadastro.Senha)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.Usuario{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 4. Código de verificação de e-mail (6 dígitos numéricos).
	codigo, err := gerarCodigoVerificacao()
	if err != nil {
		s.logger.Error("Falha ao gerar código de verificação.", err)
		return domain.Usuario{}, apperror.NewInternalError("Falha ao gerar código de verificação.", err)
	}

	novoUsuario := domain.Usuario{
		NomeUsuario:       cadastro.NomeUsuario,
		Email:             cadastro.Email,
		SenhaHash:         senhaHash,
		EmailVerificado:   false,
		CodigoVerificacao: &codigo,
	}

	// 5. Persistência.
	usuario, err := s.repo.Salvar(ctx, novoUsuario)
	if err != nil {
		return domain.Usuario{}, err
	}

	// 6. Envio do e-mail de verificação. Uma falha aqui não desfaz o
	// cadastro: o usuário existe e pode pedir o reenvio do código.
	corpo := fmt.Sprintf(
		"<p>Olá, %s!</p><p>Bem-vindo ao MesaRPG. Seu código de verificação é:</p><h2>%s</h2>",
		usuario.NomeUsuario, codigo,
	)
	if err := s.emailSvc.Enviar(usuario.Email, usuario.NomeUsuario, "MesaRPG - Verifique seu e-mail", corpo); err != nil {
		s.logger.Warn("Falha ao enviar e-mail de verificação.", map[string]interface{}{"id_usuario": usuario.ID, "error": err.Error()})
	}

	s.logger.Info("Usuário cadastrado com sucesso.", map[string]interface{}{"id_usuario": usuario.ID, "email": usuario.Email})
	return usuario, nil
}

// VerificarEmail confirma o e-mail de um usuário a partir do código de 6
// dígitos. A operação é naturalmente idempotente no fracasso: depois de
// verificada a conta, o código é limpo e uma nova tentativa com o mesmo
// código volta a ser inválida.
func (s *Service) VerificarEmail(ctx context.Context, codigo string) error {
	s.logger.Debug("Iniciando verificação de e-mail no serviço.", nil)

	// 1. Validação de formato: evita ir ao banco com lixo.
	codigo = strings.TrimSpace(codigo)
	if codigo == "" || !ehNumerico(codigo) {
		return apperror.NewValidationError("O formato do código é inválido.")
	}

	// 2. Busca o usuário ainda não verificado dono do código.
	usuario, err := s.repo.BuscarPorCodigoVerificacao(ctx, codigo)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewValidationError("Código de verificação inválido ou expirado.")
		}
		return err
	}

	// 3. Marca como verificado e limpa o código.
	usuario.MarcarEmailComoVerificado()

	if err := s.repo.Atualizar(ctx, usuario); err != nil {
		s.logger.Error("Falha ao atualizar status de verificação do usuário.", err)
		return apperror.NewInternalError("Não foi possível atualizar o status do usuário.", err)
	}

	s.logger.Info("E-mail verificado com sucesso.", map[string]interface{}{"id_usuario": usuario.ID})
	return nil
}

// Login autentica um usuário e emite um JWT novo. E-mail inexistente e
// senha incorreta produzem exatamente o mesmo erro, para não permitir
// enumeração de contas.
func (s *Service) Login(ctx context.Context, email, senha string) (domain.Usuario, string, error) {
	s.logger.Debug("Iniciando login no serviço.", map[string]interface{}{"email": email})

	if email == "" || senha == "" {
		return domain.Usuario{}, "", apperror.NewUnauthorizedError("E-mail e senha são obrigatórios.")
	}

	// 1. Busca o usuário pelo e-mail.
	usuario, err := s.repo.BuscarPorEmail(ctx, email)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Usuario{}, "", apperror.NewUnauthorizedError("E-mail ou senha inválidos.")
		}
		return domain.Usuario{}, "", err
	}

	// 2. Compara a senha com o hash armazenado.
	ok, err := password.Verificar(senha, usuario.SenhaHash)
	if err != nil {
		s.logger.Error("Falha ao verificar hash de senha.", err)
		return domain.Usuario{}, "", apperror.NewInternalError("Falha ao verificar credenciais.", err)
	}
	if !ok {
		return domain.Usuario{}, "", apperror.NewUnauthorizedError("E-mail ou senha inválidos.")
	}

	// 3. Regra de Negócio: a conta precisa estar ativada.
	if !usuario.EmailVerificado {
		return domain.Usuario{}, "", apperror.NewForbiddenError("A sua conta de e-mail ainda não foi verificada. Utilize o código enviado por e-mail.")
	}

	// 4. Emite um token novo para esta sessão.
	tokenString, err := s.tokenSvc.GenerateToken(usuario.ID, usuario.NomeUsuario)
	if err != nil {
		s.logger.Error("Falha ao gerar token de autenticação.", err)
		return domain.Usuario{}, "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login efetuado com sucesso.", map[string]interface{}{"id_usuario": usuario.ID})
	return usuario, tokenString, nil
}

// AlterarSenha troca a senha do usuário após confirmar a senha atual.
func (s *Service) AlterarSenha(ctx context.Context, idUsuario int64, senhaAtual, novaSenha string) error {
	s.logger.Debug("Iniciando troca de senha no serviço.", map[string]interface{}{"id_usuario": idUsuario})

	if len(novaSenha) < 6 {
		return apperror.NewValidationError("A nova senha deve ter pelo menos 6 caracteres.")
	}

	usuario, err := s.repo.BuscarPorID(ctx, idUsuario)
	if err != nil {
		return err
	}

	ok, err := password.Verificar(senhaAtual, usuario.SenhaHash)
	if err != nil {
		s.logger.Error("Falha ao verificar hash de senha.", err)
		return apperror.NewInternalError("Falha ao verificar credenciais.", err)
	}
	if !ok {
		return apperror.NewUnauthorizedError("A senha atual está incorreta.")
	}

	novoHash, err := password.Hash(novaSenha)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da nova senha.", err)
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	usuario.AlterarSenha(novoHash)

	if err := s.repo.Atualizar(ctx, usuario); err != nil {
		return err
	}

	s.logger.Info("Senha alterada com sucesso.", map[string]interface{}{"id_usuario": idUsuario})
	return nil
}

// gerarCodigoVerificacao gera um código numérico de 6 dígitos (100000-999999).
func gerarCodigoVerificacao() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ehNumerico informa se a string contém apenas dígitos decimais.
func ehNumerico(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
