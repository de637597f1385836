package sistemarepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/cache"
	"mesarpg/internal/pkg/logger"
)

// Tempo de vida das entradas de cache de sistemas. Os sistemas são dados
// semeados e raramente mudam, então um TTL longo é seguro.
const cacheTTL = 1 * time.Hour

// SistemaRPGRepository implementa a interface domain.SistemaRPGRepository.
// Como os sistemas (e principalmente os templates de ficha) são lidos a cada
// criação de personagem, as buscas por ID passam por um cache Redis.
type SistemaRPGRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSistemaRPGRepository cria uma nova instância do repositório de sistemas.
func NewSistemaRPGRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *SistemaRPGRepository {
	return &SistemaRPGRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("sistema-rpg:%d", id)
}

// BuscarPorID busca um sistema de RPG pelo ID, preferindo o cache.
func (r *SistemaRPGRepository) BuscarPorID(ctx context.Context, id int64) (domain.SistemaRPG, error) {
	r.logger.Debug("Iniciando BuscarPorID de sistema no repositório.", map[string]interface{}{"id_sistema": id})

	// 1. Tentativa de cache. Falhas de cache nunca derrubam a leitura:
	// caímos para o banco.
	if cached, err := r.Cache.Get(ctx, cacheKey(id)); err == nil {
		var sistema domain.SistemaRPG
		if err := json.Unmarshal([]byte(cached), &sistema); err == nil {
			r.logger.Debug("Sistema encontrado no cache.", map[string]interface{}{"id_sistema": id})
			return sistema, nil
		}
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao consultar cache de sistemas.", map[string]interface{}{"id_sistema": id, "error": err.Error()})
	}

	// 2. Busca no banco.
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, nome_sistema, descricao, ficha_template_json
        FROM sistemas_rpg
        WHERE id = $1`

	var sistema domain.SistemaRPG
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&sistema.ID, &sistema.NomeSistema, &sistema.Descricao, &sistema.FichaTemplateJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Sistema não encontrado no DB.", map[string]interface{}{"id_sistema": id})
			return domain.SistemaRPG{}, apperror.NewNotFoundError(fmt.Sprintf("Sistema de RPG com ID %d não encontrado.", id))
		}
		r.logger.Error("Falha ao buscar sistema no DB.", err)
		return domain.SistemaRPG{}, apperror.NewDBError("Falha ao buscar sistema", err)
	}

	// 3. Popula o cache para as próximas leituras.
	if payload, err := json.Marshal(sistema); err == nil {
		if err := r.Cache.Set(ctx, cacheKey(id), string(payload), cacheTTL); err != nil {
			r.logger.Warn("Falha ao popular cache de sistemas.", map[string]interface{}{"id_sistema": id, "error": err.Error()})
		}
	}

	return sistema, nil
}

// BuscarTodos lista todos os sistemas de RPG cadastrados.
func (r *SistemaRPGRepository) BuscarTodos(ctx context.Context) ([]domain.SistemaRPG, error) {
	r.logger.Debug("Iniciando BuscarTodos de sistemas no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, nome_sistema, descricao, ficha_template_json
        FROM sistemas_rpg
        ORDER BY nome_sistema`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar BuscarTodos query.", err)
		return nil, apperror.NewDBError("Falha ao buscar sistemas", err)
	}
	defer rows.Close()

	var sistemas []domain.SistemaRPG
	for rows.Next() {
		var sistema domain.SistemaRPG
		err := rows.Scan(&sistema.ID, &sistema.NomeSistema, &sistema.Descricao, &sistema.FichaTemplateJSON)
		if err != nil {
			r.logger.Error("Falha ao mapear sistema na iteração.", err)
			return nil, apperror.NewDBError("Falha ao mapear sistemas do DB", err)
		}
		sistemas = append(sistemas, sistema)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de sistemas.", err)
		return nil, apperror.NewDBError("Erro após iteração de sistemas", err)
	}

	r.logger.Info("BuscarTodos concluído com sucesso.", map[string]interface{}{"total_sistemas": len(sistemas)})
	return sistemas, nil
}
