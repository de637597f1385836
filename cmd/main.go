package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"mesarpg/config"
	"mesarpg/internal/pkg/cache"
	"mesarpg/internal/pkg/database"
	"mesarpg/internal/pkg/logger"
	"mesarpg/internal/pkg/mailer"
	"mesarpg/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"mesarpg/internal/api/personagem"
	"mesarpg/internal/api/router"
	"mesarpg/internal/api/sala"
	"mesarpg/internal/api/sistema"
	"mesarpg/internal/api/usuario"
	"mesarpg/internal/repository/logrepo"
	"mesarpg/internal/repository/personagemrepo"
	"mesarpg/internal/repository/salarepo"
	"mesarpg/internal/repository/sistemarepo"
	"mesarpg/internal/repository/usuariorepo"
	"mesarpg/internal/service/logservice"
	"mesarpg/internal/service/personagemservice"
	"mesarpg/internal/service/salaservice"
	"mesarpg/internal/service/sistemaservice"
	"mesarpg/internal/service/usuarioservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço MesaRPG...")
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema.
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// D. Envio de E-mail (SMTP)
	emailSvc := mailer.NewSMTPMailer(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.SMTPFrom,
		FromName:  cfg.SMTPFromName,
	}, log)
	log.Debug("Serviço de e-mail SMTP inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	usuarioRepo := usuariorepo.NewUsuarioRepository(db, cfg.DBTimeout, log)
	salaRepo := salarepo.NewSalaRepository(db, cfg.DBTimeout, log)
	personagemRepo := personagemrepo.NewPersonagemRepository(db, cfg.DBTimeout, log)
	sistemaRepo := sistemarepo.NewSistemaRPGRepository(db, cacheClient, cfg.DBTimeout, log)
	logRepo := logrepo.NewLogRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	usuarioSvc := usuarioservice.NewService(usuarioRepo, tokenSvc, emailSvc, log)
	salaSvc := salaservice.NewService(salaRepo, usuarioRepo, personagemRepo, log)
	personagemSvc := personagemservice.NewService(personagemRepo, sistemaRepo, log)
	sistemaSvc := sistemaservice.NewService(sistemaRepo, log)
	logSvc := logservice.NewService(logRepo, salaRepo, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	usuarioHandler := usuario.NewHandler(usuarioSvc, log)
	salaHandler := sala.NewHandler(salaSvc, logSvc, log)
	personagemHandler := personagem.NewHandler(personagemSvc, log)
	sistemaHandler := sistema.NewHandler(sistemaSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(usuarioHandler, salaHandler, personagemHandler, sistemaHandler, router.Config{
		TokenService:         tokenSvc,
		CacheClient:          cacheClient,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor MesaRPG ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
