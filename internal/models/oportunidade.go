// Package models guarda as entidades compartilhadas entre oportunidade, comentario e tarefa,
// evitando ciclos de importação entre esses pacotes.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Status da oportunidade no funil.
const (
	StatusNovo            = "Novo"
	StatusEmNegociacao    = "Em Negociação"
	StatusPropostaEnviada = "Proposta Enviada"
	StatusGanha           = "Ganha"
	StatusPerdida         = "Perdida"
)

var statusOportunidade = map[string]bool{
	StatusNovo:            true,
	StatusEmNegociacao:    true,
	StatusPropostaEnviada: true,
	StatusGanha:           true,
	StatusPerdida:         true,
}

// StatusOportunidadeValido aceita apenas os status conhecidos do funil.
func StatusOportunidadeValido(s string) bool { return statusOportunidade[s] }

// Encerrada indica status final (Ganha ou Perdida).
func Encerrada(s string) bool { return s == StatusGanha || s == StatusPerdida }

// Documentos é uma lista de URLs persistida como jsonb.
type Documentos []string

func (d Documentos) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(d))
	return string(b), err
}

func (d *Documentos) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = Documentos{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("documentos: tipo não suportado")
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*d = out
	return nil
}

func (Documentos) GormDataType() string { return "jsonb" }

type Oportunidade struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Titulo          string     `gorm:"not null" json:"titulo"`
	ClienteID       *uint      `gorm:"index" json:"clienteId,omitempty"`
	NomeContato     string     `json:"nomeContato"`
	EmailContato    string     `json:"emailContato"`
	TelefoneContato string     `json:"telefoneContato"`
	Area            string     `json:"area"`
	Origem          string     `json:"origem"`
	Status          string     `gorm:"not null;default:Novo;index" json:"status"`
	ValorEstimado   float64    `json:"valorEstimado"`
	Documentos      Documentos `gorm:"type:jsonb;not null;default:'[]'" json:"documentos"`
	FechadaEm       *time.Time `json:"fechadaEm,omitempty"`

	UsuarioID   uint         `gorm:"index;not null" json:"usuarioId"`
	Comentarios []Comentario `gorm:"foreignKey:OportunidadeID" json:"comentarios,omitempty"`
}

// Comentario é uma anotação em uma oportunidade. Os do sistema registram mudanças de status.
type Comentario struct {
	gorm.Model
	Texto          string `gorm:"not null" json:"texto"`
	OportunidadeID uint   `gorm:"index;not null" json:"oportunidadeId"`
	UsuarioID      uint   `json:"usuarioId"` // 0 se for do sistema
	System         bool   `gorm:"default:false" json:"system"`
}

// ComentarioDeSistema monta o registro de histórico de uma transição de status.
func ComentarioDeSistema(oportunidadeID uint, de, para string) Comentario {
	return Comentario{
		Texto:          "Status alterado de \"" + de + "\" para \"" + para + "\"",
		OportunidadeID: oportunidadeID,
		System:         true,
	}
}
