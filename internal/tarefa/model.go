package tarefa

import (
	"time"

	"gorm.io/gorm"
)

const (
	PrioridadeBaixa = "baixa"
	PrioridadeMedia = "media"
	PrioridadeAlta  = "alta"
)

const (
	StatusPendente    = "pendente"
	StatusEmAndamento = "em_andamento"
	StatusConcluida   = "concluida"
)

var prioridadesValidas = map[string]bool{PrioridadeBaixa: true, PrioridadeMedia: true, PrioridadeAlta: true}

var statusValidos = map[string]bool{StatusPendente: true, StatusEmAndamento: true, StatusConcluida: true}

type Tarefa struct {
	gorm.Model
	Titulo         string     `json:"titulo" gorm:"not null"`
	Descricao      string     `json:"descricao"`
	OportunidadeID *uint      `json:"oportunidadeId,omitempty" gorm:"index"`
	ProcessoID     *uint      `json:"processoId,omitempty" gorm:"index"`
	ResponsavelID  uint       `json:"responsavelId" gorm:"index"`
	Prioridade     string     `json:"prioridade" gorm:"not null;default:media"`
	Status         string     `json:"status" gorm:"not null;default:pendente;index"`
	Prazo          *time.Time `json:"prazo,omitempty"`
	ConcluidaEm    *time.Time `json:"concluidaEm,omitempty"`
	UsuarioID      uint       `json:"usuarioId" gorm:"index;not null"`
}

// definirStatus mantém ConcluidaEm preenchido apenas enquanto a tarefa estiver concluída.
func (t *Tarefa) definirStatus(status string, now time.Time) {
	if status == StatusConcluida {
		if t.Status != StatusConcluida || t.ConcluidaEm == nil {
			t.ConcluidaEm = &now
		}
	} else {
		t.ConcluidaEm = nil
	}
	t.Status = status
}

// Atrasada indica prazo vencido sem conclusão.
func (t Tarefa) Atrasada(now time.Time) bool {
	return t.Status != StatusConcluida && t.Prazo != nil && t.Prazo.Before(now)
}
