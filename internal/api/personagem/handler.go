package personagem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/pkg/middleware"
)

// PersonagemService define o contrato que o Handler espera da camada de Serviço.
type PersonagemService interface {
	Criar(ctx context.Context, idUsuario, idSistema int64, ficha map[string]interface{}) (domain.Personagem, error)
	Atualizar(ctx context.Context, idPersonagem, idUsuario int64, ficha map[string]interface{}) (domain.Personagem, error)
	Deletar(ctx context.Context, idPersonagem, idUsuario int64) error
	BuscarPorID(ctx context.Context, idPersonagem, idUsuario int64) (domain.Personagem, error)
	ListarDoUsuario(ctx context.Context, idUsuario int64) ([]domain.Personagem, error)
}

// CriarPersonagemRequest representa o payload de criação de personagem.
// A ficha é livre, mas deve conter o campo "nome_personagem".
type CriarPersonagemRequest struct {
	IDSistema int64                  `json:"id_sistema"`
	Ficha     map[string]interface{} `json:"ficha"`
}

// AtualizarPersonagemRequest representa o payload de atualização da ficha.
type AtualizarPersonagemRequest struct {
	Ficha map[string]interface{} `json:"ficha"`
}

// Handler agrupa todos os métodos de Handler de personagens.
type Handler struct {
	Service PersonagemService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc PersonagemService, log logger.Logger) *Handler {
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

// claimsOuErro extrai a identidade autenticada do contexto.
func claimsOuErro(ctx context.Context) (middleware.UserClaims, error) {
	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		return middleware.UserClaims{}, apperror.NewUnauthorizedError("Sessão inválida.")
	}
	return claims, nil
}

// idDaRota extrai e valida o ID numérico do path.
func idDaRota(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError("O ID na URL é inválido.")
	}
	return id, nil
}

// CriarPersonagemHandler lida com a requisição POST /v1/personagens.
// @Summary Cria um novo personagem
// @Description Cria uma ficha de personagem para o usuário autenticado, vinculada a um sistema de RPG.
// @Tags personagens
// @Accept json
// @Produce json
// @Param personagem body CriarPersonagemRequest true "Sistema de RPG e ficha do personagem"
// @Success 201 {object} domain.Personagem "Personagem criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Ficha inválida ou sistema desconhecido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /personagens [post]
func (h *Handler) CriarPersonagemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req CriarPersonagemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	personagem, err := h.Service.Criar(ctx, claims.UserID, req.IDSistema, req.Ficha)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, personagem, nil, http.StatusCreated)
}

// ListarPersonagensHandler lida com a requisição GET /v1/personagens.
// @Summary Lista os personagens do usuário autenticado
// @Tags personagens
// @Produce json
// @Success 200 {array} domain.Personagem "Lista de personagens"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /personagens [get]
func (h *Handler) ListarPersonagensHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	personagens, err := h.Service.ListarDoUsuario(ctx, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, personagens, nil, http.StatusOK)
}

// BuscarPersonagemHandler lida com a requisição GET /v1/personagens/{id}.
// @Summary Busca um personagem por ID
// @Description Retorna a ficha completa de um personagem do usuário autenticado.
// @Tags personagens
// @Produce json
// @Param id path int true "ID do Personagem"
// @Success 200 {object} domain.Personagem "Personagem encontrado"
// @Failure 403 {object} domain.ErrorResponse "Personagem de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Personagem não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /personagens/{id} [get]
func (h *Handler) BuscarPersonagemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	id, err := idDaRota(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	personagem, err := h.Service.BuscarPorID(ctx, id, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, personagem, nil, http.StatusOK)
}

// AtualizarPersonagemHandler lida com a requisição PUT /v1/personagens/{id}.
// @Summary Atualiza a ficha de um personagem
// @Description Substitui a ficha do personagem. O sistema de RPG não muda após a criação.
// @Tags personagens
// @Accept json
// @Produce json
// @Param id path int true "ID do Personagem"
// @Param personagem body AtualizarPersonagemRequest true "Nova ficha do personagem"
// @Success 200 {object} domain.Personagem "Personagem atualizado"
// @Failure 400 {object} domain.ErrorResponse "Ficha inválida"
// @Failure 403 {object} domain.ErrorResponse "Personagem de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Personagem não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /personagens/{id} [put]
func (h *Handler) AtualizarPersonagemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	id, err := idDaRota(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req AtualizarPersonagemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	personagem, err := h.Service.Atualizar(ctx, id, claims.UserID, req.Ficha)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, personagem, nil, http.StatusOK)
}

// DeletarPersonagemHandler lida com a requisição DELETE /v1/personagens/{id}.
// @Summary Exclui um personagem
// @Description Remove o personagem. Participações que o usavam voltam ao estado "sem personagem".
// @Tags personagens
// @Param id path int true "ID do Personagem"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Personagem de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Personagem não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /personagens/{id} [delete]
func (h *Handler) DeletarPersonagemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	id, err := idDaRota(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.Deletar(ctx, id, claims.UserID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}
