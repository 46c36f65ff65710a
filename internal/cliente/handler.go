package cliente

import (
	"errors"
	"net/http"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	Repository *Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{Repository: NewRepository(db)}
}

// Criar trata POST /clientes
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req clienteRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := Cliente{UsuarioID: auth.UsuarioID(r.Context())}
	req.aplicar(&c)
	if err := h.Repository.Criar(r.Context(), &c); err != nil {
		http.Error(w, "Erro ao salvar cliente", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

// Listar trata GET /clientes?busca=; admin vê todos
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var dono uint
	if !auth.IsAdmin(r.Context()) {
		dono = auth.UsuarioID(r.Context())
	}
	list, err := h.Repository.Listar(r.Context(), dono, r.URL.Query().Get("busca"))
	if err != nil {
		http.Error(w, "Erro ao listar clientes", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req clienteRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.aplicar(c)
	if err := h.Repository.Atualizar(r.Context(), c); err != nil {
		http.Error(w, "Erro ao atualizar cliente", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(r.Context(), c.ID); err != nil {
		http.Error(w, "Erro ao remover cliente", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// carregar lê {id}, busca o cliente e responde 400/403/404 conforme o caso.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Cliente, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.Repository.VerificarAcesso(r.Context(), id)
	if !ResponderErro(w, err) {
		return nil, false
	}
	return c, true
}

// ResponderErro traduz o erro de VerificarAcesso em resposta HTTP; devolve true se não houve erro.
func ResponderErro(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Cliente não encontrado", http.StatusNotFound)
	case errors.Is(err, ErrAcessoNegado):
		http.Error(w, "Acesso negado", http.StatusForbidden)
	default:
		http.Error(w, "Erro ao buscar cliente", http.StatusInternalServerError)
	}
	return false
}
