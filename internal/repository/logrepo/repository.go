package logrepo

import (
	"context"
	"database/sql"
	"time"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

// LogRepository implementa a interface domain.LogRepository sobre
// PostgreSQL. O log é append-only: não há UPDATE nem DELETE.
type LogRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewLogRepository cria e retorna uma nova instância do Repositório de Logs.
func NewLogRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *LogRepository {
	return &LogRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Salvar insere uma nova entrada no log da sala. O timestamp é atribuído
// pelo servidor no momento da inserção.
func (r *LogRepository) Salvar(ctx context.Context, entrada domain.LogEntry) (domain.LogEntry, error) {
	r.logger.Debug("Iniciando Salvar de entrada de log no repositório.", map[string]interface{}{"id_sala": entrada.IDSala, "tipo_log": entrada.TipoLog})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entrada.Timestamp = time.Now().UTC()

	query := `
        INSERT INTO sala_logs (id_sala, autor_nome, tipo_log, mensagem, timestamp)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		entrada.IDSala, entrada.AutorNome, string(entrada.TipoLog), entrada.Mensagem, entrada.Timestamp,
	).Scan(&entrada.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir entrada de log no DB.", err)
		return domain.LogEntry{}, apperror.NewDBError("Falha ao publicar no log", err)
	}

	r.logger.Info("Entrada de log salva com sucesso.", map[string]interface{}{"id": entrada.ID, "id_sala": entrada.IDSala})
	return entrada, nil
}

// BuscarPorSalaID retorna o histórico completo do log de uma sala, em ordem
// crescente de timestamp (mais antigas primeiro).
func (r *LogRepository) BuscarPorSalaID(ctx context.Context, idSala int64) ([]domain.LogEntry, error) {
	r.logger.Debug("Iniciando BuscarPorSalaID de log no repositório.", map[string]interface{}{"id_sala": idSala})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, id_sala, autor_nome, tipo_log, mensagem, timestamp
        FROM sala_logs
        WHERE id_sala = $1
        ORDER BY timestamp ASC, id ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, idSala)
	if err != nil {
		r.logger.Error("Falha ao executar BuscarPorSalaID query.", err)
		return nil, apperror.NewDBError("Falha ao buscar log da sala", err)
	}
	defer rows.Close()

	var entradas []domain.LogEntry
	for rows.Next() {
		var entrada domain.LogEntry
		var tipo string
		err := rows.Scan(&entrada.ID, &entrada.IDSala, &entrada.AutorNome, &tipo, &entrada.Mensagem, &entrada.Timestamp)
		if err != nil {
			r.logger.Error("Falha ao mapear entrada de log na iteração.", err)
			return nil, apperror.NewDBError("Falha ao mapear log do DB", err)
		}
		entrada.TipoLog = domain.TipoLog(tipo)
		entradas = append(entradas, entrada)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de log.", err)
		return nil, apperror.NewDBError("Erro após iteração do log", err)
	}

	r.logger.Info("BuscarPorSalaID concluído com sucesso.", map[string]interface{}{"id_sala": idSala, "total_entradas": len(entradas)})
	return entradas, nil
}
