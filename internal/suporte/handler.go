package suporte

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tamanhoMaximoAssunto = 200

type Handler struct {
	DB          *gorm.DB
	Repository  Repository
	Notificador notificacao.Notificador
	Log         *zap.Logger
}

func NewHandler(db *gorm.DB, notificador notificacao.Notificador, log *zap.Logger) *Handler {
	if notificador == nil {
		notificador = notificacao.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{DB: db, Repository: NewRepository(), Notificador: notificador, Log: log}
}

type criarRequest struct {
	Assunto  string `json:"assunto"`
	Mensagem string `json:"mensagem"`
}

type atualizarRequest struct {
	Status   string  `json:"status"`
	Resposta *string `json:"resposta"`
}

type eventoSuporte struct {
	ID        uint   `json:"id"`
	UsuarioID uint   `json:"usuarioId"`
	Assunto   string `json:"assunto"`
}

// POST /suporte
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req criarRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	assunto := strings.TrimSpace(req.Assunto)
	mensagem := strings.TrimSpace(req.Mensagem)
	switch {
	case assunto == "":
		http.Error(w, "O campo 'assunto' é obrigatório", http.StatusBadRequest)
		return
	case utf8.RuneCountInString(assunto) > tamanhoMaximoAssunto:
		http.Error(w, "Assunto muito longo", http.StatusBadRequest)
		return
	case mensagem == "":
		http.Error(w, "O campo 'mensagem' é obrigatório", http.StatusBadRequest)
		return
	}

	s := Solicitacao{
		UsuarioID: auth.UsuarioID(r.Context()),
		Assunto:   assunto,
		Mensagem:  mensagem,
		Status:    StatusAberta,
	}
	if err := h.Repository.Criar(h.DB.WithContext(r.Context()), &s); err != nil {
		h.Log.Error("erro ao registrar solicitação de suporte", zap.Error(err))
		http.Error(w, "Erro ao registrar solicitação", http.StatusInternalServerError)
		return
	}
	h.Notificador.Notificar(notificacao.EventoSuporteNova, eventoSuporte{ID: s.ID, UsuarioID: s.UsuarioID, Assunto: s.Assunto})
	utils.WriteJSON(w, http.StatusCreated, s)
}

// GET /suporte?status=
// Admin vê todas; ?usuarioId filtra.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !statusValidos[status] {
		http.Error(w, "Status inválido", http.StatusBadRequest)
		return
	}
	usuarioID := auth.UsuarioID(r.Context())
	if auth.IsAdmin(r.Context()) {
		usuarioID = utils.QueryUint(r, "usuarioId")
	}
	list, err := h.Repository.Listar(h.DB.WithContext(r.Context()), usuarioID, status)
	if err != nil {
		http.Error(w, "Erro ao listar solicitações", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /suporte/{id}
func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	s, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if !auth.PodeAcessar(r.Context(), s.UsuarioID) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return
	}
	utils.WriteJSON(w, http.StatusOK, s)
}

// PATCH /suporte/{id} (admin)
// Resposta sem status explícito marca a solicitação como respondida.
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	var req atualizarRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" && req.Resposta == nil {
		http.Error(w, "Informe 'status' ou 'resposta'", http.StatusBadRequest)
		return
	}
	if req.Status != "" && !statusValidos[req.Status] {
		http.Error(w, "Status inválido. Use 'aberta', 'respondida' ou 'fechada'.", http.StatusBadRequest)
		return
	}

	s, ok := h.carregar(w, r)
	if !ok {
		return
	}

	campos := map[string]any{}
	if req.Resposta != nil {
		resposta := strings.TrimSpace(*req.Resposta)
		if resposta == "" {
			http.Error(w, "A resposta não pode ser vazia", http.StatusBadRequest)
			return
		}
		admin := auth.UsuarioID(r.Context())
		campos["resposta"] = resposta
		campos["respondida_por"] = admin
		s.Resposta = &resposta
		s.RespondidaPor = &admin
		if req.Status == "" {
			req.Status = StatusRespondida
		}
	}
	campos["status"] = req.Status
	s.Status = req.Status

	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), s.ID, campos); err != nil {
		h.Log.Error("erro ao atualizar solicitação de suporte", zap.Uint("id", s.ID), zap.Error(err))
		http.Error(w, "Erro ao atualizar solicitação", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Solicitacao, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	s, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Solicitação não encontrada", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar solicitação", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}
