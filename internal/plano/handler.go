package plano

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

type planoRequest struct {
	Nome           string  `json:"nome"`
	Descricao      string  `json:"descricao"`
	ValorMensal    float64 `json:"valorMensal"`
	LimiteUsuarios int     `json:"limiteUsuarios"`
	Ativo          *bool   `json:"ativo"`
}

func (req *planoRequest) validar() error {
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		return errors.New("nome é obrigatório")
	}
	if req.ValorMensal < 0 {
		return errors.New("valor mensal não pode ser negativo")
	}
	if req.LimiteUsuarios <= 0 {
		req.LimiteUsuarios = 1
	}
	return nil
}

func (req planoRequest) aplicar(p *Plano) {
	p.Nome = req.Nome
	p.Descricao = req.Descricao
	p.ValorMensal = req.ValorMensal
	p.LimiteUsuarios = req.LimiteUsuarios
	if req.Ativo != nil {
		p.Ativo = *req.Ativo
	}
}

// GET /planos (público). Admin autenticado vê também os inativos com ?todos=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	somenteAtivos := !(auth.IsAdmin(r.Context()) && r.URL.Query().Get("todos") == "true")
	ps, err := h.Repo.WithContext(r.Context()).List(somenteAtivos)
	if err != nil {
		http.Error(w, "Erro ao buscar planos", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ps)
}

// GET /planos/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Repo.WithContext(r.Context()).FindByID(id)
	if err != nil || (!p.Ativo && !auth.IsAdmin(r.Context())) {
		http.Error(w, "Plano não encontrado", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// POST /planos (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req planoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p := Plano{Ativo: true}
	req.aplicar(&p)
	err := h.Repo.WithContext(r.Context()).Create(&p)
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Já existe um plano com esse nome", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao inserir plano", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

// PUT /planos/{id} (admin)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	repo := h.Repo.WithContext(r.Context())
	existing, err := repo.FindByID(id)
	if err != nil {
		http.Error(w, "Plano não encontrado", http.StatusNotFound)
		return
	}
	var req planoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.aplicar(existing)
	err = repo.Update(existing)
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Já existe um plano com esse nome", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao atualizar plano", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, existing)
}

// DELETE /planos/{id} (admin). Planos com assinaturas só podem ser desativados.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	repo := h.Repo.WithContext(r.Context())
	emUso, err := repo.EmUso(id)
	if err != nil {
		http.Error(w, "Erro ao verificar assinaturas do plano", http.StatusInternalServerError)
		return
	}
	if emUso {
		http.Error(w, "Plano possui assinaturas; desative-o em vez de excluir", http.StatusConflict)
		return
	}
	err = repo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Plano não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao deletar plano", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
