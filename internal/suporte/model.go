// Package suporte registra as solicitações de suporte abertas pelos usuários.
// A tabela é criada por db.EnsureSupportSchema, fora do AutoMigrate.
package suporte

import "time"

const (
	StatusAberta     = "aberta"
	StatusRespondida = "respondida"
	StatusFechada    = "fechada"
)

var statusValidos = map[string]bool{
	StatusAberta:     true,
	StatusRespondida: true,
	StatusFechada:    true,
}

type Solicitacao struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UsuarioID     uint      `json:"usuarioId"`
	Assunto       string    `json:"assunto"`
	Mensagem      string    `json:"mensagem"`
	Status        string    `json:"status"`
	Resposta      *string   `json:"resposta,omitempty"`
	RespondidaPor *uint     `json:"respondidaPor,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Solicitacao) TableName() string { return "suporte_solicitacoes" }
