package agenda

import (
	"time"

	"gorm.io/gorm"
)

// Tipos de compromisso.
const (
	TipoAudiencia = "audiencia"
	TipoReuniao   = "reuniao"
	TipoPrazo     = "prazo"
	TipoOutro     = "outro"
)

var tiposValidos = map[string]bool{TipoAudiencia: true, TipoReuniao: true, TipoPrazo: true, TipoOutro: true}

type Compromisso struct {
	gorm.Model
	Titulo     string    `json:"titulo" gorm:"not null"`
	Tipo       string    `json:"tipo" gorm:"not null;default:outro"`
	Inicio     time.Time `json:"inicio" gorm:"not null;index"`
	Fim        time.Time `json:"fim" gorm:"not null"`
	Local      string    `json:"local"`
	Descricao  string    `json:"descricao"`
	ProcessoID *uint     `json:"processoId,omitempty" gorm:"index"`
	ClienteID  *uint     `json:"clienteId,omitempty" gorm:"index"`
	UsuarioID  uint      `json:"usuarioId" gorm:"index;not null"`
}
