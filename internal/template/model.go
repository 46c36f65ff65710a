package template

import "gorm.io/gorm"

// Template é um modelo de documento (petição, contrato, procuração) escrito em Liquid.
type Template struct {
	gorm.Model
	Nome      string `json:"nome" gorm:"not null"`
	Categoria string `json:"categoria" gorm:"index"`
	Conteudo  string `json:"conteudo" gorm:"type:text;not null"`
	Publico   bool   `json:"publico" gorm:"default:false"`
	UsuarioID uint   `json:"usuarioId" gorm:"index;not null"`
}
