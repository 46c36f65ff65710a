package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const RefreshCookie = "rt"

// errRefreshReutilizado indica que outro pedido já rotacionou o mesmo refresh.
var errRefreshReutilizado = errors.New("refresh já rotacionado")

// TokenResponse é o corpo devolvido no login e no refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Service emite e rotaciona os refresh tokens. Usuarios confirma, a cada refresh,
// que o dono ainda existe e está ativo, e fornece o perfil atual.
type Service struct {
	DB           *gorm.DB
	Keys         *KeySet
	Usuarios     UsuarioResolver
	RefreshTTL   time.Duration
	CookieSecure bool
	Log          *zap.Logger
}

func NewService(db *gorm.DB, keys *KeySet, usuarios UsuarioResolver, refreshTTL time.Duration, cookieSecure bool, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{DB: db, Keys: keys, Usuarios: usuarios, RefreshTTL: refreshTTL, CookieSecure: cookieSecure, Log: log}
}

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Em localhost o cookie precisa de Secure=false; em produção use COOKIE_SECURE=true.
func (s *Service) setRTCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     "/auth", // cobre /auth/refresh e /auth/logout
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (s *Service) clearRTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Service) tokenResponse(access string) TokenResponse {
	return TokenResponse{AccessToken: access, TokenType: "Bearer", ExpiresIn: int(s.Keys.AccessTTL().Seconds())}
}

// IssueTokensOnLogin gera o access token e grava um novo refresh no cookie.
func (s *Service) IssueTokensOnLogin(w http.ResponseWriter, userID uint, isAdmin bool) (TokenResponse, error) {
	access, err := s.Keys.GenerateAccessToken(userID, isAdmin)
	if err != nil {
		return TokenResponse{}, err
	}
	raw, err := genRaw()
	if err != nil {
		return TokenResponse{}, err
	}

	rt := RefreshToken{
		UserID:    userID,
		FamilyID:  fmt.Sprintf("fam-%d-%d", userID, time.Now().UnixNano()),
		Hash:      hashRaw(raw),
		IsAdmin:   isAdmin,
		ExpiresAt: time.Now().Add(s.RefreshTTL),
	}
	if err := s.DB.Create(&rt).Error; err != nil {
		return TokenResponse{}, err
	}
	s.setRTCookie(w, raw, rt.ExpiresAt)
	return s.tokenResponse(access), nil
}

// RefreshHTTPHandler atende POST /auth/refresh: revoga o refresh atual e emite outro.
// O perfil vem do cadastro atual; usuário removido ou inativo perde a sessão.
func (s *Service) RefreshHTTPHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		http.Error(w, "Refresh ausente", http.StatusUnauthorized)
		return
	}
	ctx := r.Context()
	db := s.DB.WithContext(ctx)

	var cur RefreshToken
	if err := db.Where("hash = ?", hashRaw(c.Value)).First(&cur).Error; err != nil {
		s.clearRTCookie(w)
		http.Error(w, "Refresh inválido", http.StatusUnauthorized)
		return
	}
	if cur.RevokedAt != nil {
		s.Log.Warn("refresh revogado reutilizado", zap.Uint("usuario_id", cur.UserID), zap.String("familia", cur.FamilyID))
		s.revogarFamilia(ctx, cur.FamilyID)
		s.clearRTCookie(w)
		http.Error(w, "Refresh expirado", http.StatusUnauthorized)
		return
	}
	if time.Now().After(cur.ExpiresAt) {
		s.clearRTCookie(w)
		http.Error(w, "Refresh expirado", http.StatusUnauthorized)
		return
	}

	isAdmin, err := s.Usuarios.ResolverPorID(ctx, cur.UserID)
	if errors.Is(err, ErrUsuarioNaoEncontrado) {
		if err := s.RevogarSessoes(ctx, cur.UserID); err != nil {
			s.Log.Warn("falha ao revogar sessões de usuário inativo", zap.Uint("usuario_id", cur.UserID), zap.Error(err))
		}
		s.clearRTCookie(w)
		http.Error(w, "Usuário inativo", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.Log.Error("refresh: erro ao buscar usuário", zap.Uint("usuario_id", cur.UserID), zap.Error(err))
		http.Error(w, "Erro ao renovar sessão", http.StatusInternalServerError)
		return
	}

	access, err := s.Keys.GenerateAccessToken(cur.UserID, isAdmin)
	if err != nil {
		http.Error(w, "Erro ao gerar token", http.StatusInternalServerError)
		return
	}
	newRaw, err := genRaw()
	if err != nil {
		http.Error(w, "Erro ao gerar token", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	newRT := RefreshToken{
		UserID:    cur.UserID,
		FamilyID:  cur.FamilyID,
		Hash:      hashRaw(newRaw),
		IsAdmin:   isAdmin,
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&cur).Where("revoked_at IS NULL").Update("revoked_at", &now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRefreshReutilizado
		}
		return tx.Create(&newRT).Error
	})
	if errors.Is(err, errRefreshReutilizado) {
		s.Log.Warn("refresh rotacionado em paralelo", zap.Uint("usuario_id", cur.UserID), zap.String("familia", cur.FamilyID))
		s.revogarFamilia(ctx, cur.FamilyID)
		s.clearRTCookie(w)
		http.Error(w, "Refresh expirado", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.clearRTCookie(w)
		http.Error(w, "Erro ao renovar sessão", http.StatusInternalServerError)
		return
	}
	s.setRTCookie(w, newRaw, newRT.ExpiresAt)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.tokenResponse(access))
}

// RevogarSessoes invalida todos os refresh tokens do usuário.
func (s *Service) RevogarSessoes(ctx context.Context, userID uint) error {
	return s.DB.WithContext(ctx).Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

func (s *Service) revogarFamilia(ctx context.Context, familia string) {
	err := s.DB.WithContext(ctx).Model(&RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familia).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		s.Log.Warn("falha ao revogar família de refresh", zap.String("familia", familia), zap.Error(err))
	}
}

// LogoutHTTPHandler atende POST /auth/logout.
func (s *Service) LogoutHTTPHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		now := time.Now()
		if err := s.DB.Model(&RefreshToken{}).Where("hash = ?", hashRaw(c.Value)).Update("revoked_at", &now).Error; err != nil {
			s.Log.Warn("falha ao revogar refresh no logout", zap.Error(err))
		}
	}
	s.clearRTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
