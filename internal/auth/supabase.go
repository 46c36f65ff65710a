package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims são os campos do access token do Supabase usados aqui.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SupabaseValidator verifica localmente tokens HS256 emitidos pelo Supabase Auth.
type SupabaseValidator struct {
	secret []byte
}

// NewSupabaseValidator devolve nil quando o segredo não está configurado.
func NewSupabaseValidator(secret string) *SupabaseValidator {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &SupabaseValidator{secret: []byte(secret)}
}

func (v *SupabaseValidator) Validate(raw string) (*SupabaseClaims, error) {
	var claims SupabaseClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithAudience("authenticated"), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token supabase: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("token supabase inválido")
	}
	if claims.Email == "" {
		return nil, errors.New("token supabase sem email")
	}
	return &claims, nil
}
