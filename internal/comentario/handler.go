package comentario

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/oportunidade"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

// Handler encapsula o DB e o Repository
type Handler struct {
	DB            *gorm.DB
	Repository    Repository
	Oportunidades oportunidade.Repository
}

// NewHandler cria um novo handler de comentários
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:            db,
		Repository:    NewRepository(),
		Oportunidades: oportunidade.NewRepository(),
	}
}

// Criar trata POST /oportunidades/{id}/comentarios
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	o, ok := h.carregarOportunidade(w, r)
	if !ok {
		return
	}
	var req comentarioRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	texto := strings.TrimSpace(req.Texto)
	if texto == "" {
		http.Error(w, "O campo 'texto' é obrigatório", http.StatusBadRequest)
		return
	}

	// comentários de sistema só nascem na troca de status
	c := models.Comentario{
		Texto:          texto,
		OportunidadeID: o.ID,
		UsuarioID:      auth.UsuarioID(r.Context()),
	}
	db := h.DB.WithContext(r.Context())
	if err := h.Repository.Criar(db, &c); err != nil {
		http.Error(w, "Erro ao criar comentário", http.StatusInternalServerError)
		return
	}
	nomes, _ := h.Repository.NomesAutores(db, []models.Comentario{c})
	utils.WriteJSON(w, http.StatusCreated, toDTO(c, nomes))
}

// ListarPorOportunidade trata GET /oportunidades/{id}/comentarios
func (h *Handler) ListarPorOportunidade(w http.ResponseWriter, r *http.Request) {
	o, ok := h.carregarOportunidade(w, r)
	if !ok {
		return
	}
	db := h.DB.WithContext(r.Context())
	comentarios, err := h.Repository.ListarPorOportunidade(db, o.ID)
	if err != nil {
		http.Error(w, "Erro ao listar comentários", http.StatusInternalServerError)
		return
	}
	nomes, err := h.Repository.NomesAutores(db, comentarios)
	if err != nil {
		http.Error(w, "Erro ao listar comentários", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toDTOs(comentarios, nomes))
}

// Atualizar trata PUT /comentarios/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregarEditavel(w, r)
	if !ok {
		return
	}
	var req comentarioRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	texto := strings.TrimSpace(req.Texto)
	if texto == "" {
		http.Error(w, "O campo 'texto' é obrigatório", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	if err := h.Repository.Atualizar(db, c.ID, texto); err != nil {
		http.Error(w, "Erro ao atualizar comentário", http.StatusInternalServerError)
		return
	}
	c.Texto = texto
	nomes, err := h.Repository.NomesAutores(db, []models.Comentario{*c})
	if err != nil {
		http.Error(w, "Erro ao buscar autor do comentário", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toDTO(*c, nomes))
}

// Remover trata DELETE /comentarios/{id}
func (h *Handler) Remover(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregarEditavel(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Remover(h.DB.WithContext(r.Context()), c.ID); err != nil {
		http.Error(w, "Erro ao remover comentário", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) carregarOportunidade(w http.ResponseWriter, r *http.Request) (*models.Oportunidade, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	o, err := oportunidade.VerificarAcesso(r.Context(), h.DB, h.Oportunidades, id)
	if !oportunidade.ResponderErro(w, err) {
		return nil, false
	}
	return o, true
}

// carregarEditavel devolve o comentário se o usuário for o autor ou admin.
// Comentários de sistema não podem ser alterados.
func (h *Handler) carregarEditavel(w http.ResponseWriter, r *http.Request) (*models.Comentario, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Comentário não encontrado", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Erro ao buscar comentário", http.StatusInternalServerError)
		return nil, false
	}
	if c.System {
		http.Error(w, "Comentários do sistema não podem ser alterados", http.StatusForbidden)
		return nil, false
	}
	if !auth.PodeAcessar(r.Context(), c.UsuarioID) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return nil, false
	}
	return c, true
}
