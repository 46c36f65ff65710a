package processo

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Clientes   *cliente.Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Clientes: cliente.NewRepository(db)}
}

type processoRequest struct {
	NumeroCNJ        string     `json:"numeroCnj"`
	Titulo           string     `json:"titulo"`
	ClienteID        uint       `json:"clienteId"`
	Area             string     `json:"area"`
	Tribunal         string     `json:"tribunal"`
	Vara             string     `json:"vara"`
	Status           string     `json:"status"`
	DataDistribuicao *time.Time `json:"dataDistribuicao"`
	ValorCausa       float64    `json:"valorCausa"`
}

func (req *processoRequest) validar() error {
	numero, err := NormalizarCNJ(req.NumeroCNJ)
	if err != nil {
		return err
	}
	req.NumeroCNJ = numero
	if req.ClienteID == 0 {
		return errors.New("clienteId é obrigatório")
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = StatusAtivo
	}
	if !statusValidos[req.Status] {
		return errors.New("status inválido")
	}
	if req.ValorCausa < 0 {
		return errors.New("valor da causa não pode ser negativo")
	}
	return nil
}

func (req processoRequest) aplicar(p *Processo) {
	p.NumeroCNJ = req.NumeroCNJ
	p.Titulo = strings.TrimSpace(req.Titulo)
	p.ClienteID = req.ClienteID
	p.Area = req.Area
	p.Tribunal = req.Tribunal
	p.Vara = req.Vara
	p.Status = req.Status
	p.DataDistribuicao = req.DataDistribuicao
	p.ValorCausa = req.ValorCausa
}

// POST /processos
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req processoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.Clientes.VerificarAcesso(r.Context(), req.ClienteID); !cliente.ResponderErro(w, err) {
		return
	}

	p := Processo{UsuarioID: auth.UsuarioID(r.Context())}
	req.aplicar(&p)
	err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &p)
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Número CNJ já cadastrado", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao salvar processo", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

// GET /processos?status=&clienteId=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	f := Filtro{
		ClienteID: utils.QueryUint(r, "clienteId"),
		Status:    r.URL.Query().Get("status"),
	}
	if !auth.IsAdmin(r.Context()) {
		f.UsuarioID = auth.UsuarioID(r.Context())
	}
	h.listar(w, r, f)
}

// GET /clientes/{id}/processos
func (h *Handler) ListarPorCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Clientes.VerificarAcesso(r.Context(), id); !cliente.ResponderErro(w, err) {
		return
	}
	h.listar(w, r, Filtro{ClienteID: id})
}

func (h *Handler) listar(w http.ResponseWriter, r *http.Request, f Filtro) {
	if f.Status != "" && !statusValidos[f.Status] {
		http.Error(w, "status inválido", http.StatusBadRequest)
		return
	}
	list, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		http.Error(w, "Erro ao listar processos", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// PUT /processos/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	var req processoRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.validar(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ClienteID != p.ClienteID {
		if _, err := h.Clientes.VerificarAcesso(r.Context(), req.ClienteID); !cliente.ResponderErro(w, err) {
			return
		}
	}
	req.aplicar(p)
	err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), p)
	if utils.IsUniqueViolation(err) {
		http.Error(w, "Número CNJ já cadastrado", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao atualizar processo", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	p, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), p.ID); err != nil {
		http.Error(w, "Erro ao excluir processo", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Processo, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	p, err := VerificarAcesso(r.Context(), h.DB, h.Repository, id)
	if !ResponderErro(w, err) {
		return nil, false
	}
	return p, true
}
