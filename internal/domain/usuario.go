package domain

import (
	"context"
	"time"
)

// Usuario representa a entidade de usuário da plataforma.
type Usuario struct {
	ID                int64     `json:"id"`
	NomeUsuario       string    `json:"nome_usuario"`
	Email             string    `json:"email"`
	SenhaHash         string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	EmailVerificado   bool      `json:"email_verificado"`
	CodigoVerificacao *string   `json:"-"` // Nulo assim que o e-mail é verificado
	DataCadastro      time.Time `json:"data_cadastro"`
}

// MarcarEmailComoVerificado marca o e-mail como verificado e descarta o código,
// que não é mais necessário.
func (u *Usuario) MarcarEmailComoVerificado() {
	u.EmailVerificado = true
	u.CodigoVerificacao = nil
}

// AlterarSenha substitui o hash de senha do usuário.
func (u *Usuario) AlterarSenha(novoHash string) {
	u.SenhaHash = novoHash
}

// Cadastro representa o payload de entrada para o cadastro de usuário.
type Cadastro struct {
	NomeUsuario string `json:"nome_usuario"`
	Email       string `json:"email"`
	Senha       string `json:"senha"`
}

// UsuarioRepository define o contrato de persistência para a entidade Usuario.
type UsuarioRepository interface {
	Salvar(ctx context.Context, usuario Usuario) (Usuario, error)
	Atualizar(ctx context.Context, usuario Usuario) error
	BuscarPorID(ctx context.Context, id int64) (Usuario, error)
	BuscarPorEmail(ctx context.Context, email string) (Usuario, error)
	BuscarPorCodigoVerificacao(ctx context.Context, codigo string) (Usuario, error)
}

// EmailService é o contrato do adaptador de envio de e-mails (SMTP).
// A camada de domínio depende apenas desta abstração.
type EmailService interface {
	Enviar(destinatarioEmail, destinatarioNome, assunto, corpoHTML string) error
}
