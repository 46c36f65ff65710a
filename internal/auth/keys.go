package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jusconnect/api/internal/config"
)

// KeySet guarda a chave RSA ativa e as públicas aceitas, indexadas por kid.
type KeySet struct {
	priv      *rsa.PrivateKey
	pubKeys   map[string]*rsa.PublicKey
	activeKID string
	issuer    string
	audience  string
	accessTTL time.Duration
}

// NewKeySet monta o conjunto a partir de uma chave já carregada.
func NewKeySet(priv *rsa.PrivateKey, cfg config.AuthConfig) (*KeySet, error) {
	if priv == nil {
		return nil, errors.New("chave privada ausente")
	}
	if cfg.KID == "" || cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("AUTH_KID, AUTH_ISSUER e AUTH_AUDIENCE são obrigatórios")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &KeySet{
		priv:      priv,
		pubKeys:   map[string]*rsa.PublicKey{cfg.KID: &priv.PublicKey},
		activeKID: cfg.KID,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		accessTTL: ttl,
	}, nil
}

// LoadKeySet lê a chave de AUTH_RSA_PRIVATE_PATH (PKCS#1 ou PKCS#8).
func LoadKeySet(cfg config.AuthConfig) (*KeySet, error) {
	if cfg.RSAPrivatePath == "" {
		return nil, errors.New("AUTH_RSA_PRIVATE_PATH não definido")
	}
	b, err := os.ReadFile(cfg.RSAPrivatePath)
	if err != nil {
		return nil, fmt.Errorf("lendo chave privada: %w", err)
	}
	priv, err := ParsePrivateKeyPEM(b)
	if err != nil {
		return nil, err
	}
	return NewKeySet(priv, cfg)
}

// GenerateKeySet cria uma chave efêmera; tokens deixam de valer a cada reinício.
func GenerateKeySet(cfg config.AuthConfig) (*KeySet, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("gerando chave RSA: %w", err)
	}
	return NewKeySet(priv, cfg)
}

func ParsePrivateKeyPEM(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("falha ao decodificar PEM da chave privada")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k8, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("interpretando chave privada: %w", err)
	}
	priv, ok := k8.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("chave privada não é RSA")
	}
	return priv, nil
}

func (k *KeySet) pub(kid string) (*rsa.PublicKey, bool) { p, ok := k.pubKeys[kid]; return p, ok }
func (k *KeySet) KID() string                            { return k.activeKID }
func (k *KeySet) AccessTTL() time.Duration               { return k.accessTTL }
func signMethod() jwt.SigningMethod                      { return jwt.SigningMethodRS256 }
