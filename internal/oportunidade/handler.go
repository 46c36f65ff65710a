package oportunidade

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler encapsula DB, repository e o notificador de eventos
type Handler struct {
	DB          *gorm.DB
	Repository  Repository
	Clientes    *cliente.Repository
	Notificador notificacao.Notificador
	Log         *zap.Logger
	now         func() time.Time
}

func NewHandler(db *gorm.DB, notificador notificacao.Notificador, log *zap.Logger) *Handler {
	if notificador == nil {
		notificador = notificacao.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		DB:          db,
		Repository:  NewRepository(),
		Clientes:    cliente.NewRepository(db),
		Notificador: notificador,
		Log:         log,
		now:         time.Now,
	}
}

// POST /oportunidades
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req oportunidadeRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.StatusNovo
	}
	if !models.StatusOportunidadeValido(status) {
		http.Error(w, "status inválido", http.StatusBadRequest)
		return
	}
	if req.ClienteID != nil {
		if _, err := h.Clientes.VerificarAcesso(r.Context(), *req.ClienteID); !cliente.ResponderErro(w, err) {
			return
		}
	}

	o := models.Oportunidade{
		UsuarioID:  auth.UsuarioID(r.Context()),
		Status:     status,
		Documentos: limparURLs(req.Documentos),
	}
	req.aplicar(&o)
	if models.Encerrada(status) {
		now := h.now()
		o.FechadaEm = &now
	}

	if err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &o); err != nil {
		h.Log.Error("erro ao salvar oportunidade", zap.Error(err))
		http.Error(w, "Erro ao salvar oportunidade", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

// GET /oportunidades?status=&clienteId=; admin vê todas
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	f := Filtro{
		Status:    r.URL.Query().Get("status"),
		ClienteID: utils.QueryUint(r, "clienteId"),
	}
	if !auth.IsAdmin(r.Context()) {
		f.UsuarioID = auth.UsuarioID(r.Context())
	}
	h.listar(w, r, f)
}

// GET /usuarios/{id}/oportunidades
func (h *Handler) ListarPorUsuario(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}
	h.listar(w, r, Filtro{UsuarioID: id, Status: r.URL.Query().Get("status")})
}

func (h *Handler) listar(w http.ResponseWriter, r *http.Request, f Filtro) {
	if f.Status != "" && !models.StatusOportunidadeValido(f.Status) {
		http.Error(w, "status inválido", http.StatusBadRequest)
		return
	}
	list, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		http.Error(w, "Erro ao listar oportunidades", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /oportunidades/{id} com os comentários em ordem cronológica
func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.Repository.BuscarComComentarios(h.DB.WithContext(r.Context()), id)
	if err == nil && !auth.PodeAcessar(r.Context(), o.UsuarioID) {
		err = ErrAcessoNegado
	}
	if !ResponderErro(w, err) {
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// PUT /oportunidades/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Carregar(w, r)
	if !ok {
		return
	}
	var req oportunidadeRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ClienteID != nil && (o.ClienteID == nil || *o.ClienteID != *req.ClienteID) {
		if _, err := h.Clientes.VerificarAcesso(r.Context(), *req.ClienteID); !cliente.ResponderErro(w, err) {
			return
		}
	}
	req.aplicar(o)
	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), o); err != nil {
		http.Error(w, "Erro ao atualizar oportunidade", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Carregar(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), o.ID); err != nil {
		http.Error(w, "Erro ao excluir oportunidade", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AtualizarStatus grava a transição e o comentário de sistema na mesma transação.
// Ao chegar em Ganha dispara o webhook oportunidade.ganha.
func (h *Handler) AtualizarStatus(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Carregar(w, r)
	if !ok {
		return
	}
	var req atualizarStatusRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	novo := strings.TrimSpace(req.Status)
	if novo == "" {
		http.Error(w, "o campo 'status' é obrigatório", http.StatusBadRequest)
		return
	}
	if !models.StatusOportunidadeValido(novo) {
		http.Error(w, "status inválido", http.StatusBadRequest)
		return
	}
	if novo == o.Status {
		utils.WriteJSON(w, http.StatusOK, o)
		return
	}

	var fechadaEm *time.Time
	if models.Encerrada(novo) {
		now := h.now()
		fechadaEm = &now
	}
	anterior := o.Status
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.Repository.AtualizarStatus(tx, o.ID, novo, fechadaEm); err != nil {
			return err
		}
		c := models.ComentarioDeSistema(o.ID, anterior, novo)
		return tx.Create(&c).Error
	})
	if err != nil {
		h.Log.Error("erro ao atualizar status da oportunidade", zap.Uint("oportunidade_id", o.ID), zap.Error(err))
		http.Error(w, "Erro ao atualizar status", http.StatusInternalServerError)
		return
	}

	o.Status = novo
	o.FechadaEm = fechadaEm
	if novo == models.StatusGanha {
		h.Notificador.Notificar(notificacao.EventoOportunidadeGanha, eventoGanha{
			ID:            o.ID,
			Titulo:        o.Titulo,
			UsuarioID:     o.UsuarioID,
			ClienteID:     o.ClienteID,
			ValorEstimado: o.ValorEstimado,
		})
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// POST /oportunidades/{id}/documentos
func (h *Handler) AdicionarDocumentos(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Carregar(w, r)
	if !ok {
		return
	}
	var req adicionarDocumentosRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	novos := limparURLs(req.URLs)
	if len(novos) == 0 {
		http.Error(w, "nenhuma URL informada", http.StatusBadRequest)
		return
	}
	docs := append(models.Documentos{}, o.Documentos...)
	docs = append(docs, novos...)
	if err := h.Repository.AtualizarDocumentos(h.DB.WithContext(r.Context()), o.ID, docs); err != nil {
		http.Error(w, "Erro ao adicionar documentos", http.StatusInternalServerError)
		return
	}
	o.Documentos = docs
	utils.WriteJSON(w, http.StatusOK, o)
}

// DELETE /oportunidades/{id}/documentos/{idx}
func (h *Handler) RemoverDocumento(w http.ResponseWriter, r *http.Request) {
	o, ok := h.Carregar(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(mux.Vars(r)["idx"])
	if err != nil || idx < 0 || idx >= len(o.Documentos) {
		http.Error(w, "Índice de documento inválido", http.StatusBadRequest)
		return
	}
	docs := make(models.Documentos, 0, len(o.Documentos)-1)
	docs = append(docs, o.Documentos[:idx]...)
	docs = append(docs, o.Documentos[idx+1:]...)
	if err := h.Repository.AtualizarDocumentos(h.DB.WithContext(r.Context()), o.ID, docs); err != nil {
		http.Error(w, "Erro ao remover documento", http.StatusInternalServerError)
		return
	}
	o.Documentos = docs
	utils.WriteJSON(w, http.StatusOK, o)
}

// Carregar lê {id} e devolve a oportunidade se o usuário puder acessá-la.
func (h *Handler) Carregar(w http.ResponseWriter, r *http.Request) (*models.Oportunidade, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	o, err := VerificarAcesso(r.Context(), h.DB, h.Repository, id)
	if !ResponderErro(w, err) {
		return nil, false
	}
	return o, true
}
