package plano

import "time"

// Plano é a oferta comercial assinada pelos escritórios.
type Plano struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Nome           string    `gorm:"size:255;not null;uniqueIndex" json:"nome"`
	Descricao      string    `json:"descricao"`
	ValorMensal    float64   `gorm:"not null;default:0" json:"valorMensal"`
	LimiteUsuarios int       `gorm:"not null;default:1" json:"limiteUsuarios"`
	Ativo          bool      `gorm:"not null;default:true" json:"ativo"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
