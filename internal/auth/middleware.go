package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKey string

const (
	CtxUserID  ctxKey = "usuarioID"
	CtxIsAdmin ctxKey = "isAdmin"
)

// ErrUsuarioNaoEncontrado é devolvido pelo resolver quando o email não tem usuário local.
var ErrUsuarioNaoEncontrado = errors.New("usuário não encontrado")

// UsuarioResolver liga tokens a usuários locais ativos: pelo email (Supabase)
// ou pelo ID gravado no refresh token.
type UsuarioResolver interface {
	ResolverPorEmail(ctx context.Context, email string) (id uint, isAdmin bool, err error)
	ResolverPorID(ctx context.Context, id uint) (isAdmin bool, err error)
}

// Authenticator aceita o access token próprio (RS256) e, se configurado, o do Supabase.
type Authenticator struct {
	Keys     *KeySet
	Supabase *SupabaseValidator
	Resolver UsuarioResolver
}

func NewAuthenticator(keys *KeySet, supabase *SupabaseValidator, resolver UsuarioResolver) *Authenticator {
	return &Authenticator{Keys: keys, Supabase: supabase, Resolver: resolver}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(h, "Bearer ")

		userID, isAdmin, err := a.identify(r.Context(), raw)
		if err != nil {
			http.Error(w, "Token inválido", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUsuario(r.Context(), userID, isAdmin)))
	})
}

// Opcional identifica o usuário quando há token válido e segue anônimo caso contrário.
// Usado nas rotas públicas que mostram mais dados para admin.
func (a *Authenticator) Opcional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			if userID, isAdmin, err := a.identify(r.Context(), strings.TrimPrefix(h, "Bearer ")); err == nil {
				r = r.WithContext(WithUsuario(r.Context(), userID, isAdmin))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) identify(ctx context.Context, raw string) (uint, bool, error) {
	claims, err := a.Keys.ParseAndValidate(raw)
	if err == nil {
		return claims.UserID, claims.IsAdmin, nil
	}
	if a.Supabase == nil || a.Resolver == nil {
		return 0, false, err
	}
	sb, sbErr := a.Supabase.Validate(raw)
	if sbErr != nil {
		return 0, false, sbErr
	}
	return a.Resolver.ResolverPorEmail(ctx, sb.Email)
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			http.Error(w, "Acesso restrito a administradores", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUsuario injeta a identidade no contexto da requisição.
func WithUsuario(ctx context.Context, userID uint, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, CtxUserID, userID)
	return context.WithValue(ctx, CtxIsAdmin, isAdmin)
}

func UsuarioID(ctx context.Context) uint {
	id, _ := ctx.Value(CtxUserID).(uint)
	return id
}

func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(CtxIsAdmin).(bool)
	return ok
}

// PodeAcessar diz se o usuário do contexto é o dono do registro ou admin.
func PodeAcessar(ctx context.Context, donoID uint) bool {
	return IsAdmin(ctx) || UsuarioID(ctx) == donoID
}
