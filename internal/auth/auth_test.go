package auth

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jusconnect/api/internal/config"
	"github.com/jusconnect/api/internal/utils/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{KID: "k1", Issuer: "jus-connect", Audience: "jus-connect-web", AccessTTL: time.Minute}
}

func novoKeySet(t *testing.T) *KeySet {
	t.Helper()
	keys, err := GenerateKeySet(testAuthConfig())
	require.NoError(t, err)
	return keys
}

func TestAccessToken_RoundTrip(t *testing.T) {
	keys := novoKeySet(t)
	raw, err := keys.GenerateAccessToken(42, true)
	require.NoError(t, err)

	claims, err := keys.ParseAndValidate(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	tok, _, err := jwt.NewParser().ParseUnverified(raw, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "k1", tok.Header["kid"])
}

func TestParseAndValidate_Rejeita(t *testing.T) {
	keys := novoKeySet(t)

	outraCfg := testAuthConfig()
	outraCfg.Audience = "outro-app"
	outras, err := NewKeySet(keys.priv, outraCfg)
	require.NoError(t, err)
	raw, err := outras.GenerateAccessToken(1, false)
	require.NoError(t, err)
	_, err = keys.ParseAndValidate(raw)
	assert.Error(t, err, "audience diferente")

	expirado := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "jus-connect",
		Audience:  []string{"jus-connect-web"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	expirado.Header["kid"] = "k1"
	raw, err = expirado.SignedString(keys.priv)
	require.NoError(t, err)
	_, err = keys.ParseAndValidate(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	semKid := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{UserID: 1})
	raw, err = semKid.SignedString(keys.priv)
	require.NoError(t, err)
	_, err = keys.ParseAndValidate(raw)
	assert.Error(t, err)

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1})
	raw, err = hs.SignedString([]byte("segredo"))
	require.NoError(t, err)
	_, err = keys.ParseAndValidate(raw)
	assert.Error(t, err)
}

func TestLoadKeySet(t *testing.T) {
	keys := novoKeySet(t)
	der := x509.MarshalPKCS1PrivateKey(keys.priv)
	path := filepath.Join(t.TempDir(), "priv.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}), 0o600))

	cfg := testAuthConfig()
	cfg.RSAPrivatePath = path
	loaded, err := LoadKeySet(cfg)
	require.NoError(t, err)

	raw, err := keys.GenerateAccessToken(3, false)
	require.NoError(t, err)
	_, err = loaded.ParseAndValidate(raw)
	assert.NoError(t, err, "mesma chave, mesmo kid")

	_, err = LoadKeySet(testAuthConfig())
	assert.Error(t, err)

	_, err = ParsePrivateKeyPEM([]byte("lixo"))
	assert.Error(t, err)
}

func TestJWKSHandler(t *testing.T) {
	keys := novoKeySet(t)
	rec := httptest.NewRecorder()
	keys.JWKSHandler(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	var body struct {
		Keys []jwk `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "k1", body.Keys[0].Kid)
	assert.Equal(t, "RS256", body.Keys[0].Alg)
	assert.Equal(t, "AQAB", body.Keys[0].E)
}

type fakeResolver struct {
	emails map[string]uint
	ids    map[uint]bool
}

func (f fakeResolver) ResolverPorEmail(ctx context.Context, email string) (uint, bool, error) {
	id, ok := f.emails[email]
	if !ok {
		return 0, false, ErrUsuarioNaoEncontrado
	}
	return id, false, nil
}

func (f fakeResolver) ResolverPorID(ctx context.Context, id uint) (bool, error) {
	admin, ok := f.ids[id]
	if !ok {
		return false, ErrUsuarioNaoEncontrado
	}
	return admin, nil
}

func supabaseToken(t *testing.T, secret, email, aud string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &SupabaseClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "6f1c0c1e-uuid",
			Audience:  []string{aud},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestMiddleware(t *testing.T) {
	keys := novoKeySet(t)
	a := NewAuthenticator(keys, NewSupabaseValidator("super-secreto"), fakeResolver{emails: map[string]uint{"ana@x.com": 11}})

	var gotID uint
	var gotAdmin bool
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotAdmin = UsuarioID(r.Context()), IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(header string) int {
		r := httptest.NewRequest(http.MethodGet, "/clientes", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer lixo"))

	raw, err := keys.GenerateAccessToken(5, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call("Bearer "+raw))
	assert.Equal(t, uint(5), gotID)
	assert.True(t, gotAdmin)

	assert.Equal(t, http.StatusOK, call("Bearer "+supabaseToken(t, "super-secreto", "ana@x.com", "authenticated")))
	assert.Equal(t, uint(11), gotID)
	assert.False(t, gotAdmin)

	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+supabaseToken(t, "super-secreto", "outro@x.com", "authenticated")))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+supabaseToken(t, "segredo-errado", "ana@x.com", "authenticated")))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+supabaseToken(t, "super-secreto", "ana@x.com", "anon")))

	semSupabase := NewAuthenticator(keys, NewSupabaseValidator(" "), nil)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+supabaseToken(t, "super-secreto", "ana@x.com", "authenticated"))
	semSupabase.Middleware(http.NotFoundHandler()).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpcional(t *testing.T) {
	keys := novoKeySet(t)
	a := NewAuthenticator(keys, nil, nil)

	var gotID uint
	var gotAdmin bool
	h := a.Opcional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotAdmin = UsuarioID(r.Context()), IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	call := func(header string) int {
		gotID, gotAdmin = 0, false
		r := httptest.NewRequest(http.MethodGet, "/planos", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(""))
	assert.Zero(t, gotID)

	assert.Equal(t, http.StatusOK, call("Bearer lixo"))
	assert.Zero(t, gotID)
	assert.False(t, gotAdmin)

	raw, err := keys.GenerateAccessToken(1, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call("Bearer "+raw))
	assert.Equal(t, uint(1), gotID)
	assert.True(t, gotAdmin)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
	h.ServeHTTP(rec, r.WithContext(WithUsuario(r.Context(), 2, false)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r.WithContext(WithUsuario(r.Context(), 1, true)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPodeAcessar(t *testing.T) {
	ctx := WithUsuario(context.Background(), 3, false)
	assert.True(t, PodeAcessar(ctx, 3))
	assert.False(t, PodeAcessar(ctx, 4))
	assert.True(t, PodeAcessar(WithUsuario(context.Background(), 1, true), 4))
	assert.False(t, PodeAcessar(context.Background(), 4))
}

var colunasRefresh = []string{"id", "user_id", "family_id", "hash", "is_admin", "expires_at", "revoked_at", "created_at"}

func TestRefresh_Rotaciona(t *testing.T) {
	db, mock := dbtest.New(t)
	keys := novoKeySet(t)
	svc := NewService(db, keys, fakeResolver{ids: map[uint]bool{9: true}}, time.Hour, true, nil)

	// a linha ainda diz não-admin; vale o perfil atual do cadastro
	mock.ExpectQuery(`SELECT \* FROM "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows(colunasRefresh).
			AddRow(1, 9, "fam-9", hashRaw("valor-antigo"), false, time.Now().Add(time.Hour), nil, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "refresh_tokens"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valor-antigo"})
	rec := httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := keys.ParseAndValidate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.True(t, claims.IsAdmin)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "valor-antigo", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_Recusa(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, novoKeySet(t), fakeResolver{ids: map[uint]bool{9: false}}, time.Hour, false, nil)

	rec := httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	revogado := time.Now().Add(-time.Minute)
	mock.ExpectQuery(`SELECT \* FROM "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows(colunasRefresh).
			AddRow(1, 9, "fam-9", "h", false, time.Now().Add(time.Hour), revogado, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"=\$1 WHERE family_id = \$2 AND revoked_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), "fam-9").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "reuso"})
	rec = httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	mock.ExpectQuery(`SELECT \* FROM "refresh_tokens"`).WillReturnError(errors.New("record not found"))
	r = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "desconhecido"})
	rec = httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_UsuarioInativoOuRemovido(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, novoKeySet(t), fakeResolver{ids: map[uint]bool{}}, time.Hour, false, nil)

	mock.ExpectQuery(`SELECT \* FROM "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows(colunasRefresh).
			AddRow(1, 9, "fam-9", hashRaw("valor"), true, time.Now().Add(time.Hour), nil, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"=\$1 WHERE user_id = \$2 AND revoked_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valor"})
	rec := httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RotacaoConcorrenteRevogaFamilia(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, novoKeySet(t), fakeResolver{ids: map[uint]bool{9: false}}, time.Hour, false, nil)

	mock.ExpectQuery(`SELECT \* FROM "refresh_tokens"`).
		WillReturnRows(sqlmock.NewRows(colunasRefresh).
			AddRow(1, 9, "fam-9", hashRaw("valor"), false, time.Now().Add(time.Hour), nil, time.Now()))
	// outro pedido revogou a mesma linha entre a leitura e o update
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"=\$1 WHERE revoked_at IS NULL AND "id" = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"=\$1 WHERE family_id = \$2 AND revoked_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), "fam-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valor"})
	rec := httptest.NewRecorder()
	svc.RefreshHTTPHandler(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevogarSessoes(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, novoKeySet(t), fakeResolver{}, time.Hour, false, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"=\$1 WHERE user_id = \$2 AND revoked_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, svc.RevogarSessoes(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout(t *testing.T) {
	db, mock := dbtest.New(t)
	svc := NewService(db, novoKeySet(t), fakeResolver{}, time.Hour, false, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET "revoked_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "valor"})
	rec := httptest.NewRecorder()
	svc.LogoutHTTPHandler(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(1, 2)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	call := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"), "outro IP tem cota própria")
}
