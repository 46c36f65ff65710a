package agenda

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/processo"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

// JanelaPadrao é o período listado quando ?inicio e ?fim não são informados.
const JanelaPadrao = 30 * 24 * time.Hour

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Clientes   *cliente.Repository
	Processos  processo.Repository
	now        func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Clientes:   cliente.NewRepository(db),
		Processos:  processo.NewRepository(),
		now:        time.Now,
	}
}

type compromissoRequest struct {
	Titulo     string    `json:"titulo"`
	Tipo       string    `json:"tipo"`
	Inicio     time.Time `json:"inicio"`
	Fim        time.Time `json:"fim"`
	Local      string    `json:"local"`
	Descricao  string    `json:"descricao"`
	ProcessoID *uint     `json:"processoId"`
	ClienteID  *uint     `json:"clienteId"`
}

func (req *compromissoRequest) validar() error {
	req.Titulo = strings.TrimSpace(req.Titulo)
	if req.Titulo == "" {
		return errors.New("título é obrigatório")
	}
	req.Tipo = strings.TrimSpace(req.Tipo)
	if req.Tipo == "" {
		req.Tipo = TipoOutro
	}
	if !tiposValidos[req.Tipo] {
		return errors.New("tipo inválido")
	}
	if req.Inicio.IsZero() {
		return errors.New("início é obrigatório")
	}
	if req.Fim.IsZero() {
		req.Fim = req.Inicio
	}
	if req.Fim.Before(req.Inicio) {
		return errors.New("fim não pode ser anterior ao início")
	}
	if req.ProcessoID != nil && *req.ProcessoID == 0 {
		req.ProcessoID = nil
	}
	if req.ClienteID != nil && *req.ClienteID == 0 {
		req.ClienteID = nil
	}
	return nil
}

func (req compromissoRequest) aplicar(c *Compromisso) {
	c.Titulo = req.Titulo
	c.Tipo = req.Tipo
	c.Inicio = req.Inicio
	c.Fim = req.Fim
	c.Local = strings.TrimSpace(req.Local)
	c.Descricao = req.Descricao
	c.ProcessoID = req.ProcessoID
	c.ClienteID = req.ClienteID
}

// POST /agenda
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req compromissoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.verificarVinculos(w, r, req) {
		return
	}
	c := Compromisso{UsuarioID: auth.UsuarioID(r.Context())}
	req.aplicar(&c)
	if err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &c); err != nil {
		http.Error(w, "Erro ao salvar compromisso", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

// GET /agenda?inicio=&fim= (RFC3339)
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	inicio, fim, err := h.janela(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var usuarioID uint
	if !auth.IsAdmin(r.Context()) || r.URL.Query().Get("todos") != "true" {
		usuarioID = auth.UsuarioID(r.Context())
	}
	list, err := h.Repository.ListarPeriodo(h.DB.WithContext(r.Context()), usuarioID, inicio, fim)
	if err != nil {
		http.Error(w, "Erro ao listar compromissos", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) janela(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	inicio := h.now()
	if v := q.Get("inicio"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("parâmetro 'inicio' inválido, use RFC3339")
		}
		inicio = t
	}
	fim := inicio.Add(JanelaPadrao)
	if v := q.Get("fim"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("parâmetro 'fim' inválido, use RFC3339")
		}
		fim = t
	}
	if fim.Before(inicio) {
		return time.Time{}, time.Time{}, errors.New("fim não pode ser anterior ao início")
	}
	return inicio, fim, nil
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// PUT /agenda/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req compromissoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.verificarVinculos(w, r, req) {
		return
	}
	req.aplicar(c)
	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), c); err != nil {
		http.Error(w, "Erro ao atualizar compromisso", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), c.ID); err != nil {
		http.Error(w, "Erro ao excluir compromisso", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Compromisso, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Compromisso não encontrado", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar compromisso", http.StatusInternalServerError)
		return nil, false
	}
	if !auth.PodeAcessar(r.Context(), c.UsuarioID) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return nil, false
	}
	return c, true
}

func (h *Handler) verificarVinculos(w http.ResponseWriter, r *http.Request, req compromissoRequest) bool {
	if req.ClienteID != nil {
		if _, err := h.Clientes.VerificarAcesso(r.Context(), *req.ClienteID); !cliente.ResponderErro(w, err) {
			return false
		}
	}
	if req.ProcessoID != nil {
		_, err := processo.VerificarAcesso(r.Context(), h.DB, h.Processos, *req.ProcessoID)
		if !processo.ResponderErro(w, err) {
			return false
		}
	}
	return true
}
