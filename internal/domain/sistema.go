package domain

import "context"

// SistemaRPG representa um sistema de jogo (ex: Fantasia Medieval, Zumbi).
// O template da ficha é um JSON consumido pelo cliente para montar o
// formulário de criação de personagem. Do ponto de vista da aplicação os
// sistemas são dados semeados, somente leitura.
type SistemaRPG struct {
	ID                int64   `json:"id"`
	NomeSistema       string  `json:"nome_sistema"`
	Descricao         *string `json:"descricao,omitempty"`
	FichaTemplateJSON *string `json:"ficha_template_json,omitempty"`
}

// SistemaRPGRepository define o contrato de leitura dos sistemas de RPG.
type SistemaRPGRepository interface {
	BuscarPorID(ctx context.Context, id int64) (SistemaRPG, error)
	BuscarTodos(ctx context.Context) ([]SistemaRPG, error)
}
