// Package storage guarda os arquivos enviados pelos usuários em disco local ou no S3,
// conforme FILE_STORAGE_DRIVER.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jusconnect/api/internal/config"
)

var (
	ErrArmazenamentoDesabilitado = errors.New("armazenamento de arquivos desabilitado")
	ErrChaveInvalida             = errors.New("chave de arquivo inválida")
	ErrArquivoNaoEncontrado      = errors.New("arquivo não encontrado")
)

// Arquivo descreve um objeto gravado.
type Arquivo struct {
	Chave       string `json:"chave"`
	URL         string `json:"url"`
	Nome        string `json:"nome"`
	Tamanho     int64  `json:"tamanho"`
	ContentType string `json:"contentType"`
}

type Storage interface {
	Driver() string
	Save(ctx context.Context, nome, contentType string, r io.Reader) (Arquivo, error)
	Delete(ctx context.Context, chave string) error
	URL(chave string) string
}

// New escolhe o driver pela configuração já validada.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.StorageLocal:
		return NewLocal(cfg.Root, cfg.PublicURL)
	case config.StorageS3:
		return NewS3FromConfig(ctx, cfg)
	case config.StorageDisabled:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("driver de armazenamento desconhecido: %q", cfg.Driver)
	}
}

// NovaChave gera yyyy/mm/<uuid><ext> preservando a extensão original em minúsculas.
func NovaChave(nome string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(nome)))
	if len(ext) > 10 || strings.ContainsAny(ext, " /\\") {
		ext = ""
	}
	return fmt.Sprintf("%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// ValidarChave rejeita caminhos absolutos e qualquer tentativa de sair da raiz.
func ValidarChave(chave string) error {
	if chave == "" || strings.HasPrefix(chave, "/") || strings.Contains(chave, "\\") {
		return ErrChaveInvalida
	}
	clean := path.Clean(chave)
	if clean != chave || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return ErrChaveInvalida
	}
	return nil
}

func joinURL(base, chave string) string {
	return strings.TrimRight(base, "/") + "/" + chave
}

// Disabled recusa toda operação.
type Disabled struct{}

func (Disabled) Driver() string { return config.StorageDisabled }

func (Disabled) Save(context.Context, string, string, io.Reader) (Arquivo, error) {
	return Arquivo{}, ErrArmazenamentoDesabilitado
}

func (Disabled) Delete(context.Context, string) error { return ErrArmazenamentoDesabilitado }

func (Disabled) URL(string) string { return "" }
