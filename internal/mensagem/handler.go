package mensagem

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TamanhoMaximoTexto limita o corpo de uma mensagem.
const TamanhoMaximoTexto = 5000

type Handler struct {
	DB          *gorm.DB
	Repository  Repository
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
	return &Handler{DB: db, Repository: NewRepository(), Notificador: notificador, Log: log, now: time.Now}
}

type enviarRequest struct {
	DestinatarioID uint   `json:"destinatarioId"`
	Texto          string `json:"texto"`
}

type naoLidasResponse struct {
	NaoLidas int64 `json:"naoLidas"`
}

// evento enviado ao webhook; o texto não sai do sistema.
type eventoMensagem struct {
	ID             uint `json:"id"`
	RemetenteID    uint `json:"remetenteId"`
	DestinatarioID uint `json:"destinatarioId"`
}

// POST /mensagens
func (h *Handler) Enviar(w http.ResponseWriter, r *http.Request) {
	var req enviarRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	texto := strings.TrimSpace(req.Texto)
	remetente := auth.UsuarioID(r.Context())
	switch {
	case texto == "":
		http.Error(w, "O campo 'texto' é obrigatório", http.StatusBadRequest)
		return
	case len(texto) > TamanhoMaximoTexto:
		http.Error(w, "Mensagem muito longa", http.StatusBadRequest)
		return
	case req.DestinatarioID == 0:
		http.Error(w, "O campo 'destinatarioId' é obrigatório", http.StatusBadRequest)
		return
	case req.DestinatarioID == remetente:
		http.Error(w, "Não é possível enviar mensagem para si mesmo", http.StatusBadRequest)
		return
	}

	db := h.DB.WithContext(r.Context())
	ativo, err := h.Repository.DestinatarioAtivo(db, req.DestinatarioID)
	if err != nil {
		http.Error(w, "Erro ao verificar destinatário", http.StatusInternalServerError)
		return
	}
	if !ativo {
		http.Error(w, "Destinatário não encontrado", http.StatusNotFound)
		return
	}

	m := Mensagem{RemetenteID: remetente, DestinatarioID: req.DestinatarioID, Texto: texto}
	if err := h.Repository.Salvar(db, &m); err != nil {
		h.Log.Error("erro ao salvar mensagem", zap.Error(err))
		http.Error(w, "Erro ao enviar mensagem", http.StatusInternalServerError)
		return
	}
	h.Notificador.Notificar(notificacao.EventoMensagemNova, eventoMensagem{ID: m.ID, RemetenteID: m.RemetenteID, DestinatarioID: m.DestinatarioID})
	utils.WriteJSON(w, http.StatusCreated, m)
}

// GET /mensagens?com={usuarioId} devolve a conversa; sem ?com devolve a caixa de entrada.
// ?naoLidas=true restringe a caixa de entrada.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	db := h.DB.WithContext(r.Context())
	usuarioID := auth.UsuarioID(r.Context())
	q := r.URL.Query()

	var (
		list []Mensagem
		err  error
	)
	if q.Get("com") != "" {
		outro := utils.QueryUint(r, "com")
		if outro == 0 {
			http.Error(w, "Parâmetro 'com' inválido", http.StatusBadRequest)
			return
		}
		list, err = h.Repository.Conversa(db, usuarioID, outro)
	} else {
		list, err = h.Repository.Recebidas(db, usuarioID, q.Get("naoLidas") == "true")
	}
	if err != nil {
		http.Error(w, "Erro ao listar mensagens", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// PATCH /mensagens/{id}/lida, apenas o destinatário
func (h *Handler) MarcarLida(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Mensagem não encontrada", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao buscar mensagem", http.StatusInternalServerError)
		return
	}
	if m.DestinatarioID != auth.UsuarioID(r.Context()) {
		http.Error(w, "Apenas o destinatário pode marcar a mensagem como lida", http.StatusForbidden)
		return
	}
	if m.Lida() {
		utils.WriteJSON(w, http.StatusOK, m)
		return
	}
	agora := h.now()
	if err := h.Repository.MarcarLida(db, m.ID, agora); err != nil {
		http.Error(w, "Erro ao atualizar mensagem", http.StatusInternalServerError)
		return
	}
	m.LidaEm = &agora
	utils.WriteJSON(w, http.StatusOK, m)
}

// GET /mensagens/nao-lidas
func (h *Handler) ContarNaoLidas(w http.ResponseWriter, r *http.Request) {
	n, err := h.Repository.ContarNaoLidas(h.DB.WithContext(r.Context()), auth.UsuarioID(r.Context()))
	if err != nil {
		http.Error(w, "Erro ao contar mensagens", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, naoLidasResponse{NaoLidas: n})
}
