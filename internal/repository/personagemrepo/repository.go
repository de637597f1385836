package personagemrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mesarpg/internal/domain"
	apperror "mesarpg/internal/errors"
	"mesarpg/internal/pkg/logger"
)

// PersonagemRepository implementa a interface domain.PersonagemRepository
// sobre PostgreSQL. A ficha é persistida como JSONB opaco.
type PersonagemRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPersonagemRepository cria e retorna uma nova instância do Repositório de Personagens.
func NewPersonagemRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PersonagemRepository {
	return &PersonagemRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Salvar insere um novo personagem no banco de dados.
func (r *PersonagemRepository) Salvar(ctx context.Context, personagem domain.Personagem) (domain.Personagem, error) {
	r.logger.Debug("Iniciando Salvar de personagem no repositório.", map[string]interface{}{"nome_personagem": personagem.NomePersonagem, "id_usuario": personagem.IDUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO personagens (id_usuario, id_sistema, nome_personagem, ficha_json)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		personagem.IDUsuario, personagem.IDSistema, personagem.NomePersonagem, personagem.FichaJSON,
	).Scan(&personagem.ID)
	if err != nil {
		r.logger.Error("Falha ao inserir personagem no DB.", err)
		return domain.Personagem{}, apperror.NewDBError("Falha ao criar personagem", err)
	}

	r.logger.Info("Personagem criado com sucesso.", map[string]interface{}{"id_personagem": personagem.ID, "nome_personagem": personagem.NomePersonagem})
	return personagem, nil
}

// Atualizar sobrescreve o nome e a ficha de um personagem existente.
func (r *PersonagemRepository) Atualizar(ctx context.Context, personagem domain.Personagem) error {
	r.logger.Debug("Iniciando Atualizar de personagem no repositório.", map[string]interface{}{"id_personagem": personagem.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE personagens SET nome_personagem = $1, ficha_json = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, query, personagem.NomePersonagem, personagem.FichaJSON, personagem.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar personagem no DB.", err)
		return apperror.NewDBError("Falha ao atualizar personagem", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Atualizar.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Personagem com ID %d não encontrado para atualização.", personagem.ID))
	}

	r.logger.Info("Personagem atualizado com sucesso.", map[string]interface{}{"id_personagem": personagem.ID})
	return nil
}

// Deletar remove um personagem pelo ID. As participações que o referenciam
// voltam a ficar sem personagem (FK ON DELETE SET NULL).
func (r *PersonagemRepository) Deletar(ctx context.Context, id int64) error {
	r.logger.Debug("Iniciando Deletar de personagem no repositório.", map[string]interface{}{"id_personagem": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM personagens WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar personagem do DB.", err)
		return apperror.NewDBError("Falha ao deletar personagem", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Deletar.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Personagem com ID %d não encontrado para exclusão.", id))
	}

	r.logger.Info("Personagem deletado com sucesso.", map[string]interface{}{"id_personagem": id})
	return nil
}

// BuscarPorID busca um personagem pelo ID.
func (r *PersonagemRepository) BuscarPorID(ctx context.Context, id int64) (domain.Personagem, error) {
	r.logger.Debug("Iniciando BuscarPorID de personagem no repositório.", map[string]interface{}{"id_personagem": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, id_usuario, id_sistema, nome_personagem, ficha_json
        FROM personagens
        WHERE id = $1`

	var personagem domain.Personagem
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&personagem.ID, &personagem.IDUsuario, &personagem.IDSistema,
		&personagem.NomePersonagem, &personagem.FichaJSON,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Personagem não encontrado no DB.", map[string]interface{}{"id_personagem": id})
			return domain.Personagem{}, apperror.NewNotFoundError("Personagem não encontrado.")
		}
		r.logger.Error("Falha ao buscar personagem no DB.", err)
		return domain.Personagem{}, apperror.NewDBError("Falha ao buscar personagem", err)
	}

	return personagem, nil
}

// BuscarPorUsuarioID lista todos os personagens de um usuário.
func (r *PersonagemRepository) BuscarPorUsuarioID(ctx context.Context, idUsuario int64) ([]domain.Personagem, error) {
	r.logger.Debug("Iniciando BuscarPorUsuarioID de personagens no repositório.", map[string]interface{}{"id_usuario": idUsuario})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, id_usuario, id_sistema, nome_personagem, ficha_json
        FROM personagens
        WHERE id_usuario = $1
        ORDER BY nome_personagem`

	rows, err := r.DB.QueryContext(ctxTimeout, query, idUsuario)
	if err != nil {
		r.logger.Error("Falha ao executar BuscarPorUsuarioID query.", err)
		return nil, apperror.NewDBError("Falha ao buscar personagens do usuário", err)
	}
	defer rows.Close()

	var personagens []domain.Personagem
	for rows.Next() {
		var personagem domain.Personagem
		err := rows.Scan(
			&personagem.ID, &personagem.IDUsuario, &personagem.IDSistema,
			&personagem.NomePersonagem, &personagem.FichaJSON,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear personagem na iteração.", err)
			return nil, apperror.NewDBError("Falha ao mapear personagens do DB", err)
		}
		personagens = append(personagens, personagem)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de personagens.", err)
		return nil, apperror.NewDBError("Erro após iteração de personagens", err)
	}

	r.logger.Info("BuscarPorUsuarioID concluído com sucesso.", map[string]interface{}{"id_usuario": idUsuario, "total_personagens": len(personagens)})
	return personagens, nil
}
