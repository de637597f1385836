package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"mesarpg/internal/api/personagem"
	"mesarpg/internal/api/sala"
	"mesarpg/internal/api/sistema"
	"mesarpg/internal/api/usuario"
	"mesarpg/internal/pkg/cache"
	"mesarpg/internal/pkg/middleware"
)

// Config agrupa o que o roteador precisa além dos handlers: o serviço de
// token para o middleware de autenticação e o cache para o rate limiting.
type Config struct {
	TokenService         middleware.TokenService
	CacheClient          cache.Client
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// As rotas usam os padrões de método do ServeMux (Go 1.22+), então não há
// verificação manual de método nos handlers.
func NewRouter(
	usuarioHandler *usuario.Handler,
	salaHandler *sala.Handler,
	personagemHandler *personagem.Handler,
	sistemaHandler *sistema.Handler,
	cfg Config,
) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(cfg.TokenService)
	protegido := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// --- 1. Health Check e Documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas Públicas de Usuário (v1) ---
	mux.HandleFunc("POST /v1/cadastro", usuarioHandler.CadastrarHandler)
	mux.HandleFunc("POST /v1/verificar", usuarioHandler.VerificarEmailHandler)
	mux.HandleFunc("POST /v1/login", usuarioHandler.LoginHandler)

	// --- 3. Rotas Públicas de Sistemas de RPG (dados semeados) ---
	mux.HandleFunc("GET /v1/sistemas", sistemaHandler.ListarSistemasHandler)
	mux.HandleFunc("GET /v1/sistemas/{id}", sistemaHandler.BuscarSistemaHandler)

	// --- 4. Rotas Autenticadas de Usuário ---
	mux.Handle("PUT /v1/usuarios/senha", protegido(usuarioHandler.AlterarSenhaHandler))

	// --- 5. Rotas Autenticadas de Salas ---
	mux.Handle("POST /v1/salas", protegido(salaHandler.CriarSalaHandler))
	mux.Handle("GET /v1/salas", protegido(salaHandler.ListarSalasHandler))
	mux.Handle("POST /v1/salas/entrar", protegido(salaHandler.EntrarSalaHandler))
	mux.Handle("GET /v1/salas/{id}", protegido(salaHandler.BuscarDetalhesHandler))
	mux.Handle("PUT /v1/salas/{id}", protegido(salaHandler.EditarSalaHandler))
	mux.Handle("DELETE /v1/salas/{id}", protegido(salaHandler.DeletarSalaHandler))
	mux.Handle("POST /v1/salas/{id}/sair", protegido(salaHandler.SairSalaHandler))
	mux.Handle("DELETE /v1/salas/{id}/jogadores/{idJogador}", protegido(salaHandler.ExpulsarJogadorHandler))
	mux.Handle("PUT /v1/salas/{id}/personagem", protegido(salaHandler.SelecionarPersonagemHandler))
	mux.Handle("POST /v1/salas/{id}/log", protegido(salaHandler.PublicarLogHandler))
	mux.Handle("GET /v1/salas/{id}/log", protegido(salaHandler.ListarLogHandler))

	// --- 6. Rotas Autenticadas de Personagens ---
	mux.Handle("POST /v1/personagens", protegido(personagemHandler.CriarPersonagemHandler))
	mux.Handle("GET /v1/personagens", protegido(personagemHandler.ListarPersonagensHandler))
	mux.Handle("GET /v1/personagens/{id}", protegido(personagemHandler.BuscarPersonagemHandler))
	mux.Handle("PUT /v1/personagens/{id}", protegido(personagemHandler.AtualizarPersonagemHandler))
	mux.Handle("DELETE /v1/personagens/{id}", protegido(personagemHandler.DeletarPersonagemHandler))

	// --- 7. Middlewares Globais ---
	var handler http.Handler = mux
	handler = middleware.RateLimiter(cfg.CacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
