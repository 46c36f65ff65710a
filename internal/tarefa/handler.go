package tarefa

import (
	"errors"
	"net/http"
	"time"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/oportunidade"
	"github.com/jusconnect/api/internal/processo"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB            *gorm.DB
	Repository    Repository
	Oportunidades oportunidade.Repository
	Processos     processo.Repository
	now           func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:            db,
		Repository:    NewRepository(),
		Oportunidades: oportunidade.NewRepository(),
		Processos:     processo.NewRepository(),
		now:           time.Now,
	}
}

// POST /tarefas
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req tarefaRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	h.criar(w, r, req)
}

// POST /oportunidades/{id}/tarefas
func (h *Handler) CriarNaOportunidade(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req tarefaRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	req.OportunidadeID = &id
	h.criar(w, r, req)
}

func (h *Handler) criar(w http.ResponseWriter, r *http.Request, req tarefaRequest) {
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.verificarVinculos(w, r, req, nil) {
		return
	}
	usuarioID := auth.UsuarioID(r.Context())
	t := Tarefa{UsuarioID: usuarioID, ResponsavelID: usuarioID}
	req.aplicar(&t, h.now())
	if err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &t); err != nil {
		http.Error(w, "Erro ao salvar tarefa", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

// GET /tarefas?status=&atrasadas=true
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filtro{Status: q.Get("status")}
	if !auth.IsAdmin(r.Context()) {
		f.UsuarioID = auth.UsuarioID(r.Context())
	}
	if q.Get("atrasadas") == "true" {
		now := h.now()
		f.AtrasadasEm = &now
	}
	h.listar(w, r, f)
}

// GET /oportunidades/{id}/tarefas
func (h *Handler) ListarPorOportunidade(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := oportunidade.VerificarAcesso(r.Context(), h.DB, h.Oportunidades, id); !oportunidade.ResponderErro(w, err) {
		return
	}
	h.listar(w, r, Filtro{OportunidadeID: id, Status: r.URL.Query().Get("status")})
}

func (h *Handler) listar(w http.ResponseWriter, r *http.Request, f Filtro) {
	if f.Status != "" && !statusValidos[f.Status] {
		http.Error(w, "status inválido", http.StatusBadRequest)
		return
	}
	list, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		http.Error(w, "Erro ao listar tarefas", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// PUT /tarefas/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req tarefaRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.verificarVinculos(w, r, req, t) {
		return
	}
	req.aplicar(t, h.now())
	h.salvar(w, r, t)
}

// PATCH /tarefas/{id}/concluir
func (h *Handler) Concluir(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if t.Status == StatusConcluida {
		utils.WriteJSON(w, http.StatusOK, t)
		return
	}
	t.definirStatus(StatusConcluida, h.now())
	h.salvar(w, r, t)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	t, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), t.ID); err != nil {
		http.Error(w, "Erro ao excluir tarefa", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) salvar(w http.ResponseWriter, r *http.Request, t *Tarefa) {
	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), t); err != nil {
		http.Error(w, "Erro ao atualizar tarefa", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// carregar libera a tarefa para o dono, o responsável ou admin.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Tarefa, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	t, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Tarefa não encontrada", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar tarefa", http.StatusInternalServerError)
		return nil, false
	}
	if !auth.PodeAcessar(r.Context(), t.UsuarioID) && t.ResponsavelID != auth.UsuarioID(r.Context()) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return nil, false
	}
	return t, true
}

// verificarVinculos confere acesso à oportunidade e ao processo informados,
// ignorando os que não mudaram em relação à tarefa atual.
func (h *Handler) verificarVinculos(w http.ResponseWriter, r *http.Request, req tarefaRequest, atual *Tarefa) bool {
	if req.OportunidadeID != nil && (atual == nil || !mesmoID(atual.OportunidadeID, req.OportunidadeID)) {
		_, err := oportunidade.VerificarAcesso(r.Context(), h.DB, h.Oportunidades, *req.OportunidadeID)
		if !oportunidade.ResponderErro(w, err) {
			return false
		}
	}
	if req.ProcessoID != nil && (atual == nil || !mesmoID(atual.ProcessoID, req.ProcessoID)) {
		_, err := processo.VerificarAcesso(r.Context(), h.DB, h.Processos, *req.ProcessoID)
		if !processo.ResponderErro(w, err) {
			return false
		}
	}
	return true
}

func mesmoID(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}
