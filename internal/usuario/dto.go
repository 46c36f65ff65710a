package usuario

import (
	"strings"

	"github.com/jusconnect/api/internal/auth"
)

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type LoginResponse struct {
	auth.TokenResponse
	Usuario *Usuario `json:"usuario"`
}

type criarUsuarioRequest struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	OAB      string `json:"oab"`
	Telefone string `json:"telefone"`
	Foto     string `json:"foto"`
	Senha    string `json:"senha"`
}

// atualizarUsuarioRequest usa ponteiros para distinguir campo ausente de vazio.
type atualizarUsuarioRequest struct {
	Nome     *string `json:"nome"`
	Email    *string `json:"email"`
	OAB      *string `json:"oab"`
	Telefone *string `json:"telefone"`
	Foto     *string `json:"foto"`
	IsAdmin  *bool   `json:"isAdmin"`
	Ativo    *bool   `json:"ativo"`
}

type alterarSenhaRequest struct {
	SenhaAtual string `json:"senhaAtual"`
	NovaSenha  string `json:"novaSenha"`
}

func normalizarEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
