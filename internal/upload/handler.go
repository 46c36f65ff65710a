// Package upload expõe o armazenamento de arquivos por HTTP.
package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/config"
	"github.com/jusconnect/api/internal/storage"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
)

// CampoArquivo é o nome do campo multipart.
const CampoArquivo = "arquivo"

// folga para os cabeçalhos do multipart além do próprio arquivo
const folgaMultipart = 1 << 20

type Handler struct {
	Storage  storage.Storage
	MaxBytes int64
	Log      *zap.Logger
}

func NewHandler(st storage.Storage, maxBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Storage: st, MaxBytes: maxBytes, Log: log}
}

// POST /uploads (multipart, campo "arquivo")
func (h *Handler) Enviar(w http.ResponseWriter, r *http.Request) {
	if h.Storage.Driver() == config.StorageDisabled {
		http.Error(w, storage.ErrArmazenamentoDesabilitado.Error(), http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+folgaMultipart)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			http.Error(w, "Arquivo excede o tamanho máximo permitido", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Formulário multipart inválido", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile(CampoArquivo)
	if err != nil {
		http.Error(w, "O campo 'arquivo' é obrigatório", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > h.MaxBytes {
		http.Error(w, "Arquivo excede o tamanho máximo permitido", http.StatusRequestEntityTooLarge)
		return
	}
	nome := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if nome == "." || nome == "/" {
		http.Error(w, "Nome de arquivo inválido", http.StatusBadRequest)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	arq, err := h.Storage.Save(r.Context(), nome, contentType, f)
	if errors.Is(err, storage.ErrArmazenamentoDesabilitado) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		h.Log.Error("erro ao gravar arquivo", zap.String("driver", h.Storage.Driver()), zap.Uint("usuario_id", auth.UsuarioID(r.Context())), zap.Error(err))
		http.Error(w, "Erro ao gravar arquivo", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, arq)
}

// DELETE /uploads?chave= (admin)
func (h *Handler) Remover(w http.ResponseWriter, r *http.Request) {
	chave := r.URL.Query().Get("chave")
	if err := storage.ValidarChave(chave); err != nil {
		http.Error(w, "Parâmetro 'chave' inválido", http.StatusBadRequest)
		return
	}
	err := h.Storage.Delete(r.Context(), chave)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, storage.ErrArmazenamentoDesabilitado):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, storage.ErrArquivoNaoEncontrado):
		http.Error(w, "Arquivo não encontrado", http.StatusNotFound)
	default:
		h.Log.Error("erro ao remover arquivo", zap.String("chave", chave), zap.Error(err))
		http.Error(w, "Erro ao remover arquivo", http.StatusInternalServerError)
	}
}
