package usuario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/pkg/middleware"
)

// UsuarioService define o contrato que o Handler espera da camada de Serviço.
type UsuarioService interface {
	Cadastrar(ctx context.Context, cadastro domain.Cadastro) (domain.Usuario, error)
	VerificarEmail(ctx context.Context, codigo string) error
	Login(ctx context.Context, email, senha string) (domain.Usuario, string, error)
	AlterarSenha(ctx context.Context, idUsuario int64, senhaAtual, novaSenha string) error
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// VerificarRequest representa o payload com o código de verificação de e-mail.
type VerificarRequest struct {
	Codigo string `json:"codigo"`
}

// AlterarSenhaRequest representa o payload de troca de senha.
type AlterarSenhaRequest struct {
	SenhaAtual string `json:"senha_atual"`
	NovaSenha  string `json:"nova_senha"`
}

// Handler agrupa todos os métodos de Handler de usuários.
type Handler struct {
	Service UsuarioService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UsuarioService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	requestID, _ := middleware.GetRequestIDFromContext(r.Context())

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s [request_id=%s]", category, requestID), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path, "request_id": requestID})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// CadastrarHandler lida com a requisição POST /v1/cadastro.
// @Summary Cadastra um novo usuário
// @Description Cria a conta, envia o código de verificação por e-mail. A conta só pode fazer login após a verificação.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param cadastro body domain.Cadastro true "Dados de cadastro (nome, e-mail e senha)"
// @Success 201 {object} domain.Usuario "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou campos obrigatórios ausentes"
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /cadastro [post]
func (h *Handler) CadastrarHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cadastro domain.Cadastro
	if err := json.NewDecoder(r.Body).Decode(&cadastro); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	novoUsuario, err := h.Service.Cadastrar(ctx, cadastro)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, novoUsuario, nil, http.StatusCreated)
}

// VerificarEmailHandler lida com a requisição POST /v1/verificar.
// @Summary Verifica o e-mail de um usuário
// @Description Ativa a conta a partir do código de 6 dígitos enviado por e-mail.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param verificacao body VerificarRequest true "Código de verificação de 6 dígitos"
// @Success 200 {object} map[string]string "E-mail verificado"
// @Failure 400 {object} domain.ErrorResponse "Código inválido ou expirado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /verificar [post]
func (h *Handler) VerificarEmailHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerificarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if err := h.Service.VerificarEmail(ctx, req.Codigo); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "E-mail verificado com sucesso."}, nil, http.StatusOK)
}

// LoginHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe e-mail/senha, verifica as credenciais e a ativação da conta, e emite um JSON Web Token.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (e-mail e senha)"
// @Success 200 {object} map[string]interface{} "Token JWT e dados do usuário"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 403 {object} domain.ErrorResponse "Conta ainda não verificada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	usuario, token, err := h.Service.Login(ctx, req.Email, req.Senha)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	response := map[string]interface{}{
		"token":   token,
		"usuario": usuario,
	}
	h.handleServiceResponse(w, r, response, nil, http.StatusOK)
}

// AlterarSenhaHandler lida com a requisição PUT /v1/usuarios/senha.
// @Summary Altera a senha do usuário autenticado
// @Description Troca a senha após confirmar a senha atual.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param senha body AlterarSenhaRequest true "Senha atual e nova senha"
// @Success 204 "Nenhum conteúdo"
// @Failure 400 {object} domain.ErrorResponse "Nova senha inválida"
// @Failure 401 {object} domain.ErrorResponse "Senha atual incorreta"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /usuarios/senha [put]
func (h *Handler) AlterarSenhaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Sessão inválida."), http.StatusOK)
		return
	}

	var req AlterarSenhaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if err := h.Service.AlterarSenha(ctx, claims.UserID, req.SenhaAtual, req.NovaSenha); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}
