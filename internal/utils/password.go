package utils

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// TamanhoMinimoSenha é o mínimo de caracteres aceito no cadastro e na troca de senha.
const TamanhoMinimoSenha = 8

var ErrSenhaCurta = errors.New("a senha deve ter pelo menos 8 caracteres")

// HashSenha gera um hash bcrypt para a senha informada.
func HashSenha(senha string) (string, error) {
	if utf8.RuneCountInString(senha) < TamanhoMinimoSenha {
		return "", ErrSenhaCurta
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
	return string(hash), err
}

// VerificarSenha compara hash bcrypt com a senha em texto puro.
func VerificarSenha(hash, senha string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(senha)) == nil
}
