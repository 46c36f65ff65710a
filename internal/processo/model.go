package processo

import (
	"time"

	"gorm.io/gorm"
)

// Situações do processo.
const (
	StatusAtivo     = "Ativo"
	StatusSuspenso  = "Suspenso"
	StatusArquivado = "Arquivado"
	StatusEncerrado = "Encerrado"
)

var statusValidos = map[string]bool{
	StatusAtivo:     true,
	StatusSuspenso:  true,
	StatusArquivado: true,
	StatusEncerrado: true,
}

type Processo struct {
	gorm.Model
	NumeroCNJ        string     `json:"numeroCnj" gorm:"uniqueIndex;not null"`
	Titulo           string     `json:"titulo"`
	ClienteID        uint       `json:"clienteId" gorm:"index;not null"`
	Area             string     `json:"area"`
	Tribunal         string     `json:"tribunal"`
	Vara             string     `json:"vara"`
	Status           string     `json:"status" gorm:"not null;default:Ativo;index"`
	DataDistribuicao *time.Time `json:"dataDistribuicao,omitempty"`
	ValorCausa       float64    `json:"valorCausa"`
	UsuarioID        uint       `json:"usuarioId" gorm:"index;not null"`
}
