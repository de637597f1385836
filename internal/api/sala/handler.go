package sala

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

// SalaService define o contrato que o Handler espera da camada de Serviço.
type SalaService interface {
	CriarSala(ctx context.Context, idMestre, idSistema int64, nomeSala string) (domain.Sala, error)
	EntrarSala(ctx context.Context, idUsuario int64, codigoConvite string) error
	EditarSala(ctx context.Context, idSala, idMestre int64, novoNome string) error
	DeletarSala(ctx context.Context, idSala, idMestre int64) error
	SairSala(ctx context.Context, idSala, idUsuario int64) error
	ExpulsarJogador(ctx context.Context, idSala, idMestre, idJogadorAlvo int64) error
	AssociarPersonagem(ctx context.Context, idSala, idUsuario, idPersonagem int64) error
	ListarSalasDoUsuario(ctx context.Context, idUsuario int64) ([]domain.SalaInfo, error)
	BuscarDetalhes(ctx context.Context, idSala, idUsuario int64) (domain.SalaDetalhes, error)
}

// LogService define o contrato do log narrativo que o Handler de salas usa.
type LogService interface {
	Publicar(ctx context.Context, idSala, idUsuario int64, mensagem string) (domain.LogEntry, error)
	ListarPorSala(ctx context.Context, idSala, idUsuario int64) ([]domain.LogEntry, error)
}

// CriarSalaRequest representa o payload de criação de sala.
type CriarSalaRequest struct {
	NomeSala  string `json:"nome_sala"`
	IDSistema int64  `json:"id_sistema"`
}

// EntrarSalaRequest representa o payload de entrada por código de convite.
type EntrarSalaRequest struct {
	CodigoConvite string `json:"codigo_convite"`
}

// EditarSalaRequest representa o payload de renomeação da sala.
type EditarSalaRequest struct {
	NomeSala string `json:"nome_sala"`
}

// SelecionarPersonagemRequest representa o payload de seleção de personagem.
type SelecionarPersonagemRequest struct {
	IDPersonagem int64 `json:"id_personagem"`
}

// PublicarLogRequest representa o payload de publicação no log da sala.
type PublicarLogRequest struct {
	Mensagem string `json:"mensagem"`
}

// Handler agrupa todos os métodos de Handler de salas.
type Handler struct {
	Service    SalaService
	LogService LogService
	Logger     logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Serviços e o Logger.
func NewHandler(svc SalaService, logSvc LogService, log logger.Logger) *Handler {
	return &Handler{
		Service:    svc,
		LogService: logSvc,
		Logger:     log,
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

// idDaRota extrai e valida um ID numérico de um segmento do path.
func idDaRota(r *http.Request, nome string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(nome), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError("O ID na URL é inválido.")
	}
	return id, nil
}

// CriarSalaHandler lida com a requisição POST /v1/salas.
// @Summary Cria uma nova sala de jogo
// @Description Cria a sala com um código de convite único. O usuário autenticado vira o mestre e entra como primeiro participante.
// @Tags salas
// @Accept json
// @Produce json
// @Param sala body CriarSalaRequest true "Nome da sala e sistema de RPG"
// @Success 201 {object} domain.Sala "Sala criada com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas [post]
func (h *Handler) CriarSalaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req CriarSalaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	sala, err := h.Service.CriarSala(ctx, claims.UserID, req.IDSistema, req.NomeSala)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, sala, nil, http.StatusCreated)
}

// ListarSalasHandler lida com a requisição GET /v1/salas.
// @Summary Lista as salas do usuário autenticado
// @Description Retorna as salas em que o usuário participa, com nome do sistema e contagem de jogadores.
// @Tags salas
// @Produce json
// @Success 200 {array} domain.SalaInfo "Lista de salas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas [get]
func (h *Handler) ListarSalasHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	salas, err := h.Service.ListarSalasDoUsuario(ctx, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, salas, nil, http.StatusOK)
}

// EntrarSalaHandler lida com a requisição POST /v1/salas/entrar.
// @Summary Entra em uma sala por código de convite
// @Description Adiciona o usuário autenticado como participante, respeitando o limite de participantes e o limite pessoal de salas.
// @Tags salas
// @Accept json
// @Produce json
// @Param convite body EntrarSalaRequest true "Código de convite da sala"
// @Success 200 {object} map[string]string "Entrada efetuada"
// @Failure 404 {object} domain.ErrorResponse "Código de convite desconhecido"
// @Failure 409 {object} domain.ErrorResponse "Sala cheia, limite de salas ou participação duplicada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/entrar [post]
func (h *Handler) EntrarSalaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req EntrarSalaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if err := h.Service.EntrarSala(ctx, claims.UserID, req.CodigoConvite); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "Você entrou na sala com sucesso."}, nil, http.StatusOK)
}

// BuscarDetalhesHandler lida com a requisição GET /v1/salas/{id}.
// @Summary Busca os detalhes de uma sala
// @Description Retorna a sala, os participantes e o estado de entrada do usuário (se falta escolher personagem e a identidade de publicação no log).
// @Tags salas
// @Produce json
// @Param id path int true "ID da Sala"
// @Success 200 {object} domain.SalaDetalhes "Detalhes da sala"
// @Failure 403 {object} domain.ErrorResponse "Usuário não participa da sala"
// @Failure 404 {object} domain.ErrorResponse "Sala não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id} [get]
func (h *Handler) BuscarDetalhesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	detalhes, err := h.Service.BuscarDetalhes(ctx, idSala, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, detalhes, nil, http.StatusOK)
}

// EditarSalaHandler lida com a requisição PUT /v1/salas/{id}.
// @Summary Renomeia uma sala
// @Description Altera o nome da sala. Apenas o mestre pode editar.
// @Tags salas
// @Accept json
// @Produce json
// @Param id path int true "ID da Sala"
// @Param sala body EditarSalaRequest true "Novo nome da sala"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Usuário não é o mestre"
// @Failure 404 {object} domain.ErrorResponse "Sala não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id} [put]
func (h *Handler) EditarSalaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req EditarSalaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if err := h.Service.EditarSala(ctx, idSala, claims.UserID, req.NomeSala); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// DeletarSalaHandler lida com a requisição DELETE /v1/salas/{id}.
// @Summary Exclui uma sala
// @Description Remove a sala, suas participações e seu log. Apenas o mestre pode excluir.
// @Tags salas
// @Param id path int true "ID da Sala"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Usuário não é o mestre"
// @Failure 404 {object} domain.ErrorResponse "Sala não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id} [delete]
func (h *Handler) DeletarSalaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.DeletarSala(ctx, idSala, claims.UserID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// SairSalaHandler lida com a requisição POST /v1/salas/{id}/sair.
// @Summary Sai de uma sala
// @Description Remove a participação do usuário autenticado. O mestre não pode sair: deve excluir a sala.
// @Tags salas
// @Param id path int true "ID da Sala"
// @Success 204 "Nenhum conteúdo"
// @Failure 400 {object} domain.ErrorResponse "O mestre não pode sair da sala"
// @Failure 404 {object} domain.ErrorResponse "Participação não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id}/sair [post]
func (h *Handler) SairSalaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.SairSala(ctx, idSala, claims.UserID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// ExpulsarJogadorHandler lida com a requisição DELETE /v1/salas/{id}/jogadores/{idJogador}.
// @Summary Expulsa um jogador da sala
// @Description Remove a participação de outro usuário. Apenas o mestre pode expulsar, e não a si mesmo.
// @Tags salas
// @Param id path int true "ID da Sala"
// @Param idJogador path int true "ID do Jogador a expulsar"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Usuário não é o mestre"
// @Failure 404 {object} domain.ErrorResponse "Participação não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id}/jogadores/{idJogador} [delete]
func (h *Handler) ExpulsarJogadorHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idJogador, err := idDaRota(r, "idJogador")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.ExpulsarJogador(ctx, idSala, claims.UserID, idJogador); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// SelecionarPersonagemHandler lida com a requisição PUT /v1/salas/{id}/personagem.
// @Summary Seleciona o personagem do usuário na sala
// @Description Vincula um personagem do usuário à sua participação. O personagem deve ser do mesmo sistema de RPG da sala.
// @Tags salas
// @Accept json
// @Param id path int true "ID da Sala"
// @Param personagem body SelecionarPersonagemRequest true "ID do personagem"
// @Success 204 "Nenhum conteúdo"
// @Failure 400 {object} domain.ErrorResponse "Personagem de sistema incompatível"
// @Failure 403 {object} domain.ErrorResponse "Personagem de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Sala ou personagem não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id}/personagem [put]
func (h *Handler) SelecionarPersonagemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req SelecionarPersonagemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	if err := h.Service.AssociarPersonagem(ctx, idSala, claims.UserID, req.IDPersonagem); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// PublicarLogHandler lida com a requisição POST /v1/salas/{id}/log.
// @Summary Publica uma entrada no log da sala
// @Description Adiciona a mensagem ao log narrativo. A identidade do autor (Mestre ou nome do personagem) é resolvida no servidor.
// @Tags salas
// @Accept json
// @Produce json
// @Param id path int true "ID da Sala"
// @Param entrada body PublicarLogRequest true "Mensagem a publicar"
// @Success 201 {object} domain.LogEntry "Entrada publicada"
// @Failure 400 {object} domain.ErrorResponse "Mensagem vazia"
// @Failure 403 {object} domain.ErrorResponse "Usuário não participa da sala"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id}/log [post]
func (h *Handler) PublicarLogHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req PublicarLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	entrada, err := h.LogService.Publicar(ctx, idSala, claims.UserID, req.Mensagem)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, entrada, nil, http.StatusCreated)
}

// ListarLogHandler lida com a requisição GET /v1/salas/{id}/log.
// @Summary Lista o log narrativo da sala
// @Description Retorna todas as entradas do log em ordem cronológica. Somente participantes podem ler.
// @Tags salas
// @Produce json
// @Param id path int true "ID da Sala"
// @Success 200 {array} domain.LogEntry "Entradas do log"
// @Failure 403 {object} domain.ErrorResponse "Usuário não participa da sala"
// @Failure 404 {object} domain.ErrorResponse "Sala não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /salas/{id}/log [get]
func (h *Handler) ListarLogHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := claimsOuErro(ctx)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	idSala, err := idDaRota(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	entradas, err := h.LogService.ListarPorSala(ctx, idSala, claims.UserID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, entradas, nil, http.StatusOK)
}
