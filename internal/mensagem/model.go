package mensagem

import (
	"time"

	"gorm.io/gorm"
)

type Mensagem struct {
	gorm.Model
	RemetenteID    uint       `json:"remetenteId" gorm:"index;not null"`
	DestinatarioID uint       `json:"destinatarioId" gorm:"index;not null"`
	Texto          string     `json:"texto" gorm:"type:text;not null"`
	LidaEm         *time.Time `json:"lidaEm,omitempty"`
}

func (m Mensagem) Lida() bool { return m.LidaEm != nil }

// TableName evita o plural "mensagems" gerado pelo gorm.
func (Mensagem) TableName() string { return "mensagens" }
