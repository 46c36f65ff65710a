package assinatura

import (
	"time"

	"github.com/jusconnect/api/internal/plano"
	"gorm.io/gorm"
)

// Situações da assinatura.
const (
	StatusAtiva        = "Ativa"
	StatusCancelada    = "Cancelada"
	StatusInadimplente = "Inadimplente"
)

// Situações da fatura.
const (
	FaturaPendente  = "Pendente"
	FaturaPaga      = "Paga"
	FaturaVencida   = "Vencida"
	FaturaCancelada = "Cancelada"
)

var statusFaturaValidos = map[string]bool{
	FaturaPendente:  true,
	FaturaPaga:      true,
	FaturaVencida:   true,
	FaturaCancelada: true,
}

// Assinatura liga um usuário a um plano. Só pode haver uma Ativa por usuário.
type Assinatura struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UsuarioID    uint         `gorm:"not null;index;uniqueIndex:idx_assinaturas_usuario_ativa,where:status = 'Ativa'" json:"usuarioId"`
	PlanoID      uint         `gorm:"not null;index" json:"planoId"`
	Plano        *plano.Plano `gorm:"foreignKey:PlanoID" json:"plano,omitempty"`
	Status       string       `gorm:"size:30;not null;default:'Ativa';index" json:"status"`
	DataInicio   time.Time    `gorm:"not null" json:"dataInicio"`
	QtdFaturas   int          `gorm:"not null;default:0" json:"qtdFaturas"`
	TotalPago    float64      `gorm:"not null;default:0" json:"totalPago"`
	TotalReceber float64      `gorm:"not null;default:0" json:"totalReceber"`
	CanceladaEm  *time.Time   `json:"canceladaEm,omitempty"`

	Faturas []Fatura `gorm:"foreignKey:AssinaturaID;constraint:OnDelete:CASCADE" json:"faturas,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Fatura é uma mensalidade da assinatura.
type Fatura struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AssinaturaID   uint       `gorm:"not null;index" json:"assinaturaId"`
	Valor          float64    `gorm:"not null;default:0" json:"valor"`
	DataVencimento time.Time  `gorm:"not null;index" json:"dataVencimento"`
	Status         string     `gorm:"size:30;not null;default:'Pendente';index" json:"status"`
	DataPagamento  *time.Time `json:"dataPagamento,omitempty"`
	Comprovante    string     `gorm:"size:500" json:"comprovante,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// GerarFaturas cria qtd mensalidades a partir de inicio, uma por mês.
// Vencimentos em dias que não existem no mês caem no último dia dele.
func GerarFaturas(assinaturaID uint, valor float64, inicio time.Time, qtd int) []*Fatura {
	out := make([]*Fatura, 0, qtd)
	for i := 0; i < qtd; i++ {
		out = append(out, &Fatura{
			AssinaturaID:   assinaturaID,
			Valor:          valor,
			DataVencimento: somarMeses(inicio, i),
			Status:         FaturaPendente,
		})
	}
	return out
}

func somarMeses(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	primeiro := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	ultimo := primeiro.AddDate(0, 1, -1).Day()
	if d > ultimo {
		d = ultimo
	}
	return primeiro.AddDate(0, 0, d-1)
}

// inicioDoDia zera o horário mantendo o fuso.
func inicioDoDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
