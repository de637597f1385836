package sistema

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

// SistemaService define o contrato que o Handler espera da camada de Serviço.
type SistemaService interface {
	BuscarPorID(ctx context.Context, id int64) (domain.SistemaRPG, error)
	BuscarTodos(ctx context.Context) ([]domain.SistemaRPG, error)
}

// Handler agrupa os métodos de Handler de sistemas de RPG.
type Handler struct {
	Service SistemaService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SistemaService, log logger.Logger) *Handler {
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

// ListarSistemasHandler lida com a requisição GET /v1/sistemas.
// @Summary Lista os sistemas de RPG disponíveis
// @Description Retorna os sistemas de jogo semeados na plataforma, usados na criação de salas e personagens.
// @Tags sistemas
// @Produce json
// @Success 200 {array} domain.SistemaRPG "Lista de sistemas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /sistemas [get]
func (h *Handler) ListarSistemasHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sistemas, err := h.Service.BuscarTodos(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, sistemas, nil, http.StatusOK)
}

// BuscarSistemaHandler lida com a requisição GET /v1/sistemas/{id}.
// @Summary Busca um sistema de RPG por ID
// @Description Retorna o sistema com o template de ficha usado para montar o formulário de personagem.
// @Tags sistemas
// @Produce json
// @Param id path int true "ID do Sistema"
// @Success 200 {object} domain.SistemaRPG "Sistema encontrado"
// @Failure 404 {object} domain.ErrorResponse "Sistema não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /sistemas/{id} [get]
func (h *Handler) BuscarSistemaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID na URL é inválido."), http.StatusOK)
		return
	}

	sistema, err := h.Service.BuscarPorID(ctx, id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, sistema, nil, http.StatusOK)
}
