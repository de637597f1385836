package domain

import (
	"context"
	"time"
)

// TipoLog classifica uma entrada do log para fins de estilização.
type TipoLog string

const (
	TipoLogMestre  TipoLog = "mestre"
	TipoLogJogador TipoLog = "jogador"
	TipoLogSistema TipoLog = "sistema"
)

// Valido informa se o tipo é um dos três valores conhecidos.
func (t TipoLog) Valido() bool {
	switch t {
	case TipoLogMestre, TipoLogJogador, TipoLogSistema:
		return true
	}
	return false
}

// LogEntry representa uma única entrada no log narrativo de uma sala.
// É imutável após a criação: o log é estritamente append-only.
type LogEntry struct {
	ID        int64     `json:"id"`
	IDSala    int64     `json:"id_sala"`
	AutorNome string    `json:"autor_nome"` // Snapshot do nome exibido, não uma FK
	TipoLog   TipoLog   `json:"tipo_log"`
	Mensagem  string    `json:"mensagem"`
	Timestamp time.Time `json:"timestamp"`
}

// LogRepository define o contrato de persistência do log de salas.
// Não há atualização nem remoção de entradas.
type LogRepository interface {
	Salvar(ctx context.Context, entrada LogEntry) (LogEntry, error)
	BuscarPorSalaID(ctx context.Context, idSala int64) ([]LogEntry, error)
}
