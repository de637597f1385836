package salarepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

const codigoUniqueViolation = "23505"

// SalaRepository implementa a interface domain.SalaRepository sobre
// PostgreSQL, cobrindo as tabelas `salas` e `participantes`.
type SalaRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSalaRepository cria e retorna uma nova instância do Repositório de Salas.
func NewSalaRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SalaRepository {
	return &SalaRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Salvar insere a nova sala e o mestre como primeiro participante em uma
// única transação: ou ambas as linhas entram, ou nenhuma.
func (r *SalaRepository) Salvar(ctx context.Context, sala domain.Sala) (domain.Sala, error) {
	r.logger.Debug("Iniciando Salvar de sala no repositório.", map[string]interface{}{"nome_sala": sala.NomeSala, "id_mestre": sala.IDMestre})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de criação de sala.", err)
		return domain.Sala{}, apperror.NewDBError("Falha ao criar sala", err)
	}
	defer tx.Rollback()

	sala.Ativa = true
	sala.DataCriacao = time.Now().UTC()

	// 1. Insere a nova sala.
	querySala := `
        INSERT INTO salas (id_mestre, id_sistema, nome_sala, codigo_convite, ativa, data_criacao)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	err = tx.QueryRowContext(ctxTimeout, querySala,
		sala.IDMestre, sala.IDSistema, sala.NomeSala, sala.CodigoConvite, sala.Ativa, sala.DataCriacao,
	).Scan(&sala.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codigoUniqueViolation {
			r.logger.Warn("Colisão de código de convite ao criar sala.", map[string]interface{}{"codigo_convite": sala.CodigoConvite})
			return domain.Sala{}, apperror.NewConflictError("Código de convite já em uso.")
		}
		r.logger.Error("Falha ao inserir sala no DB.", err)
		return domain.Sala{}, apperror.NewDBError("Falha ao criar sala", err)
	}

	// 2. Insere o mestre como o primeiro participante.
	queryParticipante := `INSERT INTO participantes (id_sala, id_usuario) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctxTimeout, queryParticipante, sala.ID, sala.IDMestre); err != nil {
		r.logger.Error("Falha ao inserir mestre como participante.", err)
		return domain.Sala{}, apperror.NewDBError("Falha ao criar sala", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao confirmar transação de criação de sala.", err)
		return domain.Sala{}, apperror.NewDBError("Falha ao criar sala", err)
	}

	r.logger.Info("Sala criada com sucesso.", map[string]interface{}{"id_sala": sala.ID, "nome_sala": sala.NomeSala})
	return sala, nil
}

// AtualizarNome persiste o novo nome de uma sala existente.
func (r *SalaRepository) AtualizarNome(ctx context.Context, sala domain.Sala) error {
	r.logger.Debug("Iniciando AtualizarNome no repositório.", map[string]interface{}{"id_sala": sala.ID, "nome_sala": sala.NomeSala})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE salas SET nome_sala = $1 WHERE id = $2`

	result, err := r.DB.ExecContext(ctxTimeout, query, sala.NomeSala, sala.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar nome da sala no DB.", err)
		return apperror.NewDBError("Falha ao atualizar sala", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após AtualizarNome.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Sala com ID %d não encontrada para atualização.", sala.ID))
	}

	r.logger.Info("Nome da sala atualizado com sucesso.", map[string]interface{}{"id_sala": sala.ID})
	return nil
}

// Deletar remove uma sala. Participantes e entradas de log caem em cascata
// pelas restrições de chave estrangeira do schema.
func (r *SalaRepository) Deletar(ctx context.Context, id int64) error {
	r.logger.Debug("Iniciando Deletar de sala no repositório.", map[string]interface{}{"id_sala": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM salas WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar sala do DB.", err)
		return apperror.NewDBError("Falha ao deletar sala", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Deletar.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Sala com ID %d não encontrada para exclusão.", id))
	}

	r.logger.Info("Sala deletada com sucesso.", map[string]interface{}{"id_sala": id})
	return nil
}

// BuscarPorID busca uma sala pelo ID.
func (r *SalaRepository) BuscarPorID(ctx context.Context, id int64) (domain.Sala, error) {
	r.logger.Debug("Iniciando BuscarPorID de sala no repositório.", map[string]interface{}{"id_sala": id})

	query := `
        SELECT id, id_mestre, id_sistema, nome_sala, codigo_convite, ativa, data_criacao
        FROM salas
        WHERE id = $1`

	return r.buscarUma(ctx, query, id)
}

// BuscarPorCodigoConvite busca uma sala pelo seu código de convite.
func (r *SalaRepository) BuscarPorCodigoConvite(ctx context.Context, codigo string) (domain.Sala, error) {
	r.logger.Debug("Iniciando BuscarPorCodigoConvite no repositório.", map[string]interface{}{"codigo_convite": codigo})

	query := `
        SELECT id, id_mestre, id_sistema, nome_sala, codigo_convite, ativa, data_criacao
        FROM salas
        WHERE codigo_convite = $1`

	return r.buscarUma(ctx, query, codigo)
}

func (r *SalaRepository) buscarUma(ctx context.Context, query string, arg interface{}) (domain.Sala, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var sala domain.Sala
	err := r.DB.QueryRowContext(ctxTimeout, query, arg).Scan(
		&sala.ID, &sala.IDMestre, &sala.IDSistema, &sala.NomeSala,
		&sala.CodigoConvite, &sala.Ativa, &sala.DataCriacao,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Sala não encontrada no DB.", nil)
			return domain.Sala{}, apperror.NewNotFoundError("Sala não encontrada.")
		}
		r.logger.Error("Falha ao buscar sala no DB.", err)
		return domain.Sala{}, apperror.NewDBError("Falha ao buscar sala", err)
	}

	return sala, nil
}

// BuscarPorUsuarioID lista as salas das quais o usuário participa, com o
// nome do sistema e a contagem de jogadores que o painel exibe.
func (r *SalaRepository) BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]domain.SalaInfo, error) {
	r.logger.Debug("Iniciando BuscarPorUsuarioID no repositório.", map[string]interface{}{"id_usuario": idUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT
            s.id, s.id_mestre, s.id_sistema, s.nome_sala, s.codigo_convite, s.ativa, s.data_criacao,
            sr.nome_sistema,
            (SELECT COUNT(*) FROM participantes p2 WHERE p2.id_sala = s.id) AS quantidade_jogadores
        FROM salas s
        JOIN participantes p ON s.id = p.id_sala
        JOIN sistemas_rpg sr ON s.id_sistema = sr.id
        WHERE p.id_usuario = $1
        ORDER BY s.data_criacao DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, idUsuario)
	if err != nil {
		r.logger.Error("Falha ao executar BuscarPorUsuarioID query.", err)
		return nil, apperror.NewDBError("Falha ao buscar salas do usuário", err)
	}
	defer rows.Close()

	var salas []domain.SalaInfo
	for rows.Next() {
		var info domain.SalaInfo
		err := rows.Scan(
			&info.Sala.ID, &info.Sala.IDMestre, &info.Sala.IDSistema, &info.Sala.NomeSala,
			&info.Sala.CodigoConvite, &info.Sala.Ativa, &info.Sala.DataCriacao,
			&info.NomeSistema, &info.QuantidadeJogadores,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear sala na iteração de BuscarPorUsuarioID.", err)
			return nil, apperror.NewDBError("Falha ao mapear salas do DB", err)
		}
		salas = append(salas, info)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de salas.", err)
		return nil, apperror.NewDBError("Erro após iteração de salas", err)
	}

	r.logger.Info("BuscarPorUsuarioID concluído com sucesso.", map[string]interface{}{"id_usuario": idUsuario, "total_salas": len(salas)})
	return salas, nil
}

// ContarParticipantes retorna a quantidade de participantes de uma sala.
func (r *SalaRepository) ContarParticipantes(ctx context.Context, idSala int64) (int, error) {
	r.logger.Debug("Iniciando ContarParticipantes no repositório.", map[string]interface{}{"id_sala": idSala})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM participantes WHERE id_sala = $1`, idSala).Scan(&total)
	if err != nil {
		r.logger.Error("Falha ao contar participantes no DB.", err)
		return 0, apperror.NewDBError("Falha ao contar participantes", err)
	}

	return total, nil
}

// AdicionarParticipante insere a participação condicionada ao limite de
// vagas. A linha da sala é travada com FOR UPDATE antes da contagem, de modo
// que entradas concorrentes na mesma sala ficam serializadas e o limite não
// pode ser ultrapassado; a chave primária (id_sala, id_usuario) ainda barra
// entradas duplicadas. Retorna false quando a sala já está cheia.
func (r *SalaRepository) AdicionarParticipante(ctx context.Context, idSala, idUsuario int64, limite int) (bool, error) {
	r.logger.Debug("Iniciando AdicionarParticipante no repositório.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de entrada na sala.", err)
		return false, apperror.NewDBError("Falha ao adicionar participante", err)
	}
	defer tx.Rollback()

	var travaID int64
	err = tx.QueryRowContext(ctxTimeout, `SELECT id FROM salas WHERE id = $1 FOR UPDATE`, idSala).Scan(&travaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Sala não encontrada ao adicionar participante.", map[string]interface{}{"id_sala": idSala})
			return false, apperror.NewNotFoundError("Sala não encontrada.")
		}
		r.logger.Error("Falha ao travar sala para entrada.", err)
		return false, apperror.NewDBError("Falha ao adicionar participante", err)
	}

	query := `
        INSERT INTO participantes (id_sala, id_usuario)
        SELECT $1, $2
        WHERE (SELECT COUNT(*) FROM participantes WHERE id_sala = $1) < $3`

	result, err := tx.ExecContext(ctxTimeout, query, idSala, idUsuario, limite)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codigoUniqueViolation {
			r.logger.Info("Usuário já participa da sala (corrida de entrada).", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})
			return false, apperror.NewConflictError("Você já participa desta sala.")
		}
		r.logger.Error("Falha ao adicionar participante no DB.", err)
		return false, apperror.NewDBError("Falha ao adicionar participante", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após AdicionarParticipante.", err)
		return false, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao confirmar transação de entrada na sala.", err)
		return false, apperror.NewDBError("Falha ao adicionar participante", err)
	}

	inserido := rowsAffected > 0
	if inserido {
		r.logger.Info("Participante adicionado com sucesso.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})
	}
	return inserido, nil
}

// RemoverParticipante remove a participação de um usuário em uma sala.
// Retorna false quando o usuário não era participante.
func (r *SalaRepository) RemoverParticipante(ctx context.Context, idSala, idUsuario int64) (bool, error) {
	r.logger.Debug("Iniciando RemoverParticipante no repositório.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`DELETE FROM participantes WHERE id_sala = $1 AND id_usuario = $2`, idSala, idUsuario)
	if err != nil {
		r.logger.Error("Falha ao remover participante do DB.", err)
		return false, apperror.NewDBError("Falha ao remover participante", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após RemoverParticipante.", err)
		return false, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	removido := rowsAffected > 0
	if removido {
		r.logger.Info("Participante removido com sucesso.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})
	}
	return removido, nil
}

// AssociarPersonagem vincula um personagem à participação do usuário na sala.
func (r *SalaRepository) AssociarPersonagem(ctx context.Context, idSala, idUsuario, idPersonagem int64) error {
	r.logger.Debug("Iniciando AssociarPersonagem no repositório.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario, "id_personagem": idPersonagem})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE participantes SET id_personagem = $1 WHERE id_sala = $2 AND id_usuario = $3`

	result, err := r.DB.ExecContext(ctxTimeout, query, idPersonagem, idSala, idUsuario)
	if err != nil {
		r.logger.Error("Falha ao associar personagem no DB.", err)
		return apperror.NewDBError("Falha ao associar personagem", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após AssociarPersonagem.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError("Você não participa desta sala.")
	}

	r.logger.Info("Personagem associado com sucesso.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario, "id_personagem": idPersonagem})
	return nil
}

// BuscarParticipante retorna a linha de participação de um usuário em uma
// sala, com o nome do usuário e o nome do personagem escolhido (se houver).
func (r *SalaRepository) BuscarParticipante(ctx context.Context, idSala, idUsuario int64) (domain.Participante, error) {
	r.logger.Debug("Iniciando BuscarParticipante no repositório.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT p.id_sala, p.id_usuario, p.id_personagem, u.nome_usuario, pe.nome_personagem
        FROM participantes p
        JOIN usuarios u ON u.id = p.id_usuario
        LEFT JOIN personagens pe ON pe.id = p.id_personagem
        WHERE p.id_sala = $1 AND p.id_usuario = $2`

	var participante domain.Participante
	err := r.DB.QueryRowContext(ctxTimeout, query, idSala, idUsuario).Scan(
		&participante.IDSala, &participante.IDUsuario, &participante.IDPersonagem,
		&participante.NomeUsuario, &participante.NomePersonagem,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Participante não encontrado no DB.", map[string]interface{}{"id_sala": idSala, "id_usuario": idUsuario})
			return domain.Participante{}, apperror.NewNotFoundError("Você não participa desta sala.")
		}
		r.logger.Error("Falha ao buscar participante no DB.", err)
		return domain.Participante{}, apperror.NewDBError("Falha ao buscar participante", err)
	}

	return participante, nil
}

// ListarParticipantes lista os participantes de uma sala com os nomes de
// usuário e de personagem para exibição.
func (r *SalaRepository) ListarParticipantes(ctx context.Context, idSala int64) ([]domain.Participante, error) {
	r.logger.Debug("Iniciando ListarParticipantes no repositório.", map[string]interface{}{"id_sala": idSala})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT p.id_sala, p.id_usuario, p.id_personagem, u.nome_usuario, pe.nome_personagem
        FROM participantes p
        JOIN usuarios u ON u.id = p.id_usuario
        LEFT JOIN personagens pe ON pe.id = p.id_personagem
        WHERE p.id_sala = $1
        ORDER BY u.nome_usuario`

	rows, err := r.DB.QueryContext(ctxTimeout, query, idSala)
	if err != nil {
		r.logger.Error("Falha ao executar ListarParticipantes query.", err)
		return nil, apperror.NewDBError("Falha ao listar participantes", err)
	}
	defer rows.Close()

	var participantes []domain.Participante
	for rows.Next() {
		var participante domain.Participante
		err := rows.Scan(
			&participante.IDSala, &participante.IDUsuario, &participante.IDPersonagem,
			&participante.NomeUsuario, &participante.NomePersonagem,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear participante na iteração.", err)
			return nil, apperror.NewDBError("Falha ao mapear participantes do DB", err)
		}
		participantes = append(participantes, participante)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de participantes.", err)
		return nil, apperror.NewDBError("Erro após iteração de participantes", err)
	}

	return participantes, nil
}
