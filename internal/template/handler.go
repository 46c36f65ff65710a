package template

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB           *gorm.DB
	Repository   Repository
	Renderizador *Renderizador
	Log          *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{DB: db, Repository: NewRepository(), Renderizador: NewRenderizador(), Log: log}
}

type templateRequest struct {
	Nome      string `json:"nome"`
	Categoria string `json:"categoria"`
	Conteudo  string `json:"conteudo"`
	Publico   bool   `json:"publico"`
}

type renderizarRequest struct {
	Variaveis map[string]any `json:"variaveis"`
}

type renderizarResponse struct {
	TemplateID uint   `json:"templateId"`
	Nome       string `json:"nome"`
	Conteudo   string `json:"conteudo"`
}

// validar exige nome e conteúdo Liquid que compile.
func (h *Handler) validar(req *templateRequest) error {
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		return errors.New("nome é obrigatório")
	}
	if strings.TrimSpace(req.Conteudo) == "" {
		return errors.New("conteúdo é obrigatório")
	}
	if err := h.Renderizador.Validar(req.Conteudo); err != nil {
		return fmt.Errorf("template inválido: %v", err)
	}
	req.Categoria = strings.TrimSpace(req.Categoria)
	return nil
}

func (req templateRequest) aplicar(t *Template) {
	t.Nome = req.Nome
	t.Categoria = req.Categoria
	t.Conteudo = req.Conteudo
	t.Publico = req.Publico
}

// POST /templates
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validar(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t := Template{UsuarioID: auth.UsuarioID(r.Context())}
	req.aplicar(&t)
	if err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &t); err != nil {
		http.Error(w, "Erro ao salvar template", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

// GET /templates?categoria=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var usuarioID uint
	if !auth.IsAdmin(r.Context()) {
		usuarioID = auth.UsuarioID(r.Context())
	}
	list, err := h.Repository.ListarVisiveis(h.DB.WithContext(r.Context()), usuarioID, r.URL.Query().Get("categoria"))
	if err != nil {
		http.Error(w, "Erro ao listar templates", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r, false)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// PUT /templates/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r, true)
	if !ok {
		return
	}
	var req templateRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validar(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.aplicar(t)
	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), t); err != nil {
		http.Error(w, "Erro ao atualizar template", http.StatusInternalServerError)
		return
	}
	h.Renderizador.Esquecer(t.ID)
	utils.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r, true)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), t.ID); err != nil {
		http.Error(w, "Erro ao excluir template", http.StatusInternalServerError)
		return
	}
	h.Renderizador.Esquecer(t.ID)
	w.WriteHeader(http.StatusNoContent)
}

// POST /templates/{id}/renderizar
func (h *Handler) Renderizar(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r, false)
	if !ok {
		return
	}
	var req renderizarRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.Renderizador.Renderizar(t.ID, t.UpdatedAt.UnixNano(), t.Conteudo, req.Variaveis)
	if err != nil {
		h.Log.Warn("falha ao renderizar template", zap.Uint("template_id", t.ID), zap.Error(err))
		http.Error(w, "Erro ao renderizar template: "+err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteJSON(w, http.StatusOK, renderizarResponse{TemplateID: t.ID, Nome: t.Nome, Conteudo: out})
}

// carregar libera leitura de templates públicos; escrita exige dono ou admin.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request, escrita bool) (*Template, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	t, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Template não encontrado", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar template", http.StatusInternalServerError)
		return nil, false
	}
	if !auth.PodeAcessar(r.Context(), t.UsuarioID) && (escrita || !t.Publico) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return nil, false
	}
	return t, true
}
