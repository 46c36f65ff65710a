package cliente

import "gorm.io/gorm"

// Tipos de pessoa aceitos.
const (
	TipoPF = "PF"
	TipoPJ = "PJ"
)

type Cliente struct {
	gorm.Model
	Nome        string `json:"nome" gorm:"not null"`
	Tipo        string `json:"tipo" gorm:"size:2;not null;default:PF"`
	Documento   string `json:"documento" gorm:"index"`
	Email       string `json:"email"`
	Telefone    string `json:"telefone"`
	Endereco    string `json:"endereco"`
	Observacoes string `json:"observacoes"`
	UsuarioID   uint   `json:"usuarioId" gorm:"index;not null"`
}
