package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jusconnect/api/internal/config"
)

// Local grava sob Root e publica em PublicURL + chave.
type Local struct {
	Root      string
	PublicURL string
	now       func() time.Time
}

func NewLocal(root, publicURL string) (*Local, error) {
	if root == "" {
		return nil, errors.New("FILE_STORAGE_ROOT obrigatório para o driver local")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("criando diretório de uploads: %w", err)
	}
	return &Local{Root: root, PublicURL: publicURL, now: time.Now}, nil
}

func (l *Local) Driver() string { return config.StorageLocal }

func (l *Local) Save(ctx context.Context, nome, contentType string, r io.Reader) (Arquivo, error) {
	chave := NovaChave(nome, l.now())
	dest := filepath.Join(l.Root, filepath.FromSlash(chave))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Arquivo{}, fmt.Errorf("criando diretório: %w", err)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Arquivo{}, fmt.Errorf("criando arquivo: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return Arquivo{}, fmt.Errorf("gravando arquivo: %w", err)
	}

	return Arquivo{Chave: chave, URL: l.URL(chave), Nome: nome, Tamanho: n, ContentType: contentType}, nil
}

func (l *Local) Delete(ctx context.Context, chave string) error {
	if err := ValidarChave(chave); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.Root, filepath.FromSlash(chave)))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrArquivoNaoEncontrado
	}
	return err
}

func (l *Local) URL(chave string) string { return joinURL(l.PublicURL, chave) }

// FileServer serve os arquivos gravados; prefix é o caminho montado no roteador.
func (l *Local) FileServer(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(noDirFS{http.Dir(l.Root)}))
}

// noDirFS esconde a listagem de diretórios.
type noDirFS struct{ fs http.FileSystem }

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
