package usuariorepo

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

// codigoUniqueViolation é o código de erro do PostgreSQL para violação de
// restrição de unicidade (e-mail duplicado).
const codigoUniqueViolation = "23505"

// UsuarioRepository implementa a interface domain.UsuarioRepository
// sobre PostgreSQL.
type UsuarioRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUsuarioRepository cria uma nova instância do UsuarioRepository, injetando o DB.
func NewUsuarioRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UsuarioRepository {
	return &UsuarioRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Salvar insere um novo usuário no banco de dados.
func (r *UsuarioRepository) Salvar(ctx context.Context, usuario domain.Usuario) (domain.Usuario, error) {
	r.logger.Debug("Iniciando Salvar de usuário no repositório.", map[string]interface{}{"email": usuario.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	usuario.DataCadastro = time.Now().UTC()

	query := `
        INSERT INTO usuarios (nome_usuario, email, senha_hash, email_verificado, codigo_verificacao, data_cadastro)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		usuario.NomeUsuario, usuario.Email, usuario.SenhaHash,
		usuario.EmailVerificado, usuario.CodigoVerificacao, usuario.DataCadastro,
	).Scan(&usuario.ID)

	if err != nil {
		// Violação de unicidade no e-mail vira um erro de conflito tipado,
		// que o serviço repassa como "e-mail já está em uso".
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == codigoUniqueViolation {
			r.logger.Info("Tentativa de cadastro com e-mail duplicado.", map[string]interface{}{"email": usuario.Email})
			return domain.Usuario{}, apperror.NewConflictError(fmt.Sprintf("O e-mail '%s' já está em uso.", usuario.Email))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.Usuario{}, apperror.NewDBError("Falha ao salvar usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"id_usuario": usuario.ID, "email": usuario.Email})
	return usuario, nil
}

// Atualizar persiste o estado mutável de um usuário existente
// (verificação de e-mail e troca de senha).
func (r *UsuarioRepository) Atualizar(ctx context.Context, usuario domain.Usuario) error {
	r.logger.Debug("Iniciando Atualizar de usuário no repositório.", map[string]interface{}{"id_usuario": usuario.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE usuarios
        SET senha_hash = $1, email_verificado = $2, codigo_verificacao = $3
        WHERE id = $4`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		usuario.SenhaHash, usuario.EmailVerificado, usuario.CodigoVerificacao, usuario.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return apperror.NewDBError("Falha ao atualizar usuário", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Atualizar.", err)
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Info("Usuário não encontrado para atualização.", map[string]interface{}{"id_usuario": usuario.ID})
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %d não encontrado para atualização.", usuario.ID))
	}

	r.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"id_usuario": usuario.ID})
	return nil
}

// BuscarPorID busca um usuário pelo seu ID.
func (r *UsuarioRepository) BuscarPorID(ctx context.Context, id int64) (domain.Usuario, error) {
	r.logger.Debug("Iniciando BuscarPorID de usuário no repositório.", map[string]interface{}{"id_usuario": id})

	query := `
        SELECT id, nome_usuario, email, senha_hash, email_verificado, codigo_verificacao, data_cadastro
        FROM usuarios
        WHERE id = $1`

	return r.buscarUm(ctx, query, id)
}

// BuscarPorEmail busca um usuário pelo endereço de e-mail.
func (r *UsuarioRepository) BuscarPorEmail(ctx context.Context, email string) (domain.Usuario, error) {
	r.logger.Debug("Iniciando BuscarPorEmail de usuário no repositório.", map[string]interface{}{"email": email})

	query := `
        SELECT id, nome_usuario, email, senha_hash, email_verificado, codigo_verificacao, data_cadastro
        FROM usuarios
        WHERE email = $1`

	return r.buscarUm(ctx, query, email)
}

// BuscarPorCodigoVerificacao busca um usuário ainda não verificado pelo seu
// código de verificação de e-mail.
func (r *UsuarioRepository) BuscarPorCodigoVerificacao(ctx context.Context, codigo string) (domain.Usuario, error) {
	r.logger.Debug("Iniciando BuscarPorCodigoVerificacao no repositório.", nil)

	query := `
        SELECT id, nome_usuario, email, senha_hash, email_verificado, codigo_verificacao, data_cadastro
        FROM usuarios
        WHERE codigo_verificacao = $1 AND email_verificado = FALSE`

	return r.buscarUm(ctx, query, codigo)
}

// buscarUm executa uma query que retorna no máximo um usuário e mapeia o
// resultado, traduzindo sql.ErrNoRows para NotFoundError.
func (r *UsuarioRepository) buscarUm(ctx context.Context, query string, arg interface{}) (domain.Usuario, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var usuario domain.Usuario
	err := r.DB.QueryRowContext(ctxTimeout, query, arg).Scan(
		&usuario.ID,
		&usuario.NomeUsuario,
		&usuario.Email,
		&usuario.SenhaHash,
		&usuario.EmailVerificado,
		&usuario.CodigoVerificacao,
		&usuario.DataCadastro,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Usuário não encontrado no DB.", nil)
			return domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado.")
		}
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.Usuario{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}

	return usuario, nil
}
