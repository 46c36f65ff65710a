package usuario

import "gorm.io/gorm"

type Usuario struct {
	gorm.Model
	Nome     string `json:"nome" gorm:"not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	OAB      string `json:"oab"`
	Telefone string `json:"telefone"`
	Foto     string `json:"foto"`
	Senha    string `json:"-"`
	IsAdmin  bool   `json:"isAdmin"`
	Ativo    bool   `json:"ativo" gorm:"default:true"`
}
