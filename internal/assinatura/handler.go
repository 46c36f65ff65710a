package assinatura

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/plano"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Limites de faturas geradas por assinatura.
const (
	FaturasPadrao = 12
	FaturasMaximo = 60
)

var errAssinaturaVigente = errors.New("assinatura vigente")

type Handler struct {
	DB     *gorm.DB
	Repo   *Repository
	Planos *plano.Repository
	Log    *zap.Logger
	now    func() time.Time
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{DB: db, Repo: NewRepository(db), Planos: plano.NewRepository(db), Log: log, now: time.Now}
}

type criarRequest struct {
	PlanoID    uint       `json:"planoId"`
	QtdFaturas int        `json:"qtdFaturas"`
	DataInicio *time.Time `json:"dataInicio"`
	UsuarioID  uint       `json:"usuarioId"` // apenas admin
}

type statusFaturaRequest struct {
	Status      string `json:"status"`
	Comprovante string `json:"comprovante"`
}

func (h *Handler) repo(r *http.Request) *Repository {
	return h.Repo.WithDB(h.DB.WithContext(r.Context()))
}

// POST /assinaturas
// Gera QtdFaturas mensalidades a partir da data de início, tudo numa transação.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req criarRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if req.PlanoID == 0 {
		http.Error(w, "O campo 'planoId' é obrigatório", http.StatusBadRequest)
		return
	}
	if req.QtdFaturas == 0 {
		req.QtdFaturas = FaturasPadrao
	}
	if req.QtdFaturas < 1 || req.QtdFaturas > FaturasMaximo {
		http.Error(w, "qtdFaturas deve estar entre 1 e 60", http.StatusBadRequest)
		return
	}
	usuarioID := auth.UsuarioID(r.Context())
	if req.UsuarioID != 0 && req.UsuarioID != usuarioID {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Acesso negado", http.StatusForbidden)
			return
		}
		usuarioID = req.UsuarioID
	}
	inicio := inicioDoDia(h.now())
	if req.DataInicio != nil {
		inicio = inicioDoDia(*req.DataInicio)
	}

	p, err := h.Planos.WithContext(r.Context()).FindByID(req.PlanoID)
	if err != nil || !p.Ativo {
		http.Error(w, "Plano não encontrado", http.StatusNotFound)
		return
	}

	a := Assinatura{
		UsuarioID:  usuarioID,
		PlanoID:    p.ID,
		Status:     StatusAtiva,
		DataInicio: inicio,
		QtdFaturas: req.QtdFaturas,
	}
	valor := math.Round(p.ValorMensal*100) / 100

	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		repo := h.Repo.WithDB(tx)
		n, err := repo.ContarVigentes(usuarioID)
		if err != nil {
			return err
		}
		if n > 0 {
			return errAssinaturaVigente
		}
		if err := repo.Create(&a); err != nil {
			return err
		}
		faturas := GerarFaturas(a.ID, valor, inicio, a.QtdFaturas)
		if err := repo.CreateInBatch(faturas); err != nil {
			return err
		}
		a.Faturas = make([]Fatura, 0, len(faturas))
		for _, f := range faturas {
			a.Faturas = append(a.Faturas, *f)
		}
		a.TotalReceber = math.Round(valor*float64(a.QtdFaturas)*100) / 100
		return repo.RecalcTotais(a.ID)
	})
	if errors.Is(err, errAssinaturaVigente) || utils.IsUniqueViolation(err) {
		http.Error(w, "Usuário já possui assinatura vigente", http.StatusConflict)
		return
	}
	if err != nil {
		h.Log.Error("erro ao criar assinatura", zap.Uint("usuario_id", usuarioID), zap.Error(err))
		http.Error(w, "Erro ao criar assinatura", http.StatusInternalServerError)
		return
	}
	a.Plano = p
	utils.WriteJSON(w, http.StatusCreated, a)
}

// GET /assinaturas?status=&usuarioId= (usuarioId só para admin)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	usuarioID := auth.UsuarioID(r.Context())
	if auth.IsAdmin(r.Context()) {
		usuarioID = utils.QueryUint(r, "usuarioId")
	}
	list, err := h.repo(r).List(usuarioID, r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "Erro ao listar assinaturas", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /assinaturas/atual
func (h *Handler) Atual(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo(r).FindAtual(auth.UsuarioID(r.Context()))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Nenhuma assinatura vigente", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Erro ao buscar assinatura", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, a)
}

// PATCH /assinaturas/{id}/cancelar
// Cancela a assinatura e as faturas pendentes; faturas vencidas continuam devidas.
func (h *Handler) Cancelar(w http.ResponseWriter, r *http.Request) {
	a, ok := h.carregar(w, r)
	if !ok {
		return
	}
	if a.Status == StatusCancelada {
		http.Error(w, "Assinatura já cancelada", http.StatusBadRequest)
		return
	}
	agora := h.now()
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		repo := h.Repo.WithDB(tx)
		if err := repo.Cancelar(a.ID, agora); err != nil {
			return err
		}
		if _, err := repo.CancelarPendentes(a.ID); err != nil {
			return err
		}
		return repo.RecalcTotais(a.ID)
	})
	if err != nil {
		h.Log.Error("erro ao cancelar assinatura", zap.Uint("assinatura_id", a.ID), zap.Error(err))
		http.Error(w, "Erro ao cancelar assinatura", http.StatusInternalServerError)
		return
	}
	atualizada, err := h.repo(r).FindByID(a.ID)
	if err != nil {
		http.Error(w, "Erro ao buscar assinatura atualizada", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, atualizada)
}

// GET /assinaturas/{id}/faturas
func (h *Handler) ListFaturas(w http.ResponseWriter, r *http.Request) {
	a, ok := h.carregar(w, r)
	if !ok {
		return
	}
	fs, err := h.repo(r).ListFaturas(a.ID)
	if err != nil {
		http.Error(w, "Erro ao buscar faturas", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, fs)
}

// PATCH /faturas/{id}/status (admin)
// Regra: não permite rebaixar uma fatura já Paga; marcar Paga de novo não altera nada.
func (h *Handler) UpdateStatusFatura(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req statusFaturaRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if !statusFaturaValidos[req.Status] {
		http.Error(w, "Status inválido. Use 'Pendente', 'Paga', 'Vencida' ou 'Cancelada'.", http.StatusBadRequest)
		return
	}

	atual, err := h.repo(r).FindFatura(id)
	if err != nil {
		http.Error(w, "Fatura não encontrada", http.StatusNotFound)
		return
	}
	if atual.Status == FaturaPaga {
		if req.Status != FaturaPaga {
			http.Error(w, "Não é permitido alterar o status de uma fatura já paga", http.StatusBadRequest)
			return
		}
		utils.WriteJSON(w, http.StatusOK, atual)
		return
	}

	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		repo := h.Repo.WithDB(tx)
		if err := repo.UpdateStatusFatura(id, req.Status, h.now(), strings.TrimSpace(req.Comprovante)); err != nil {
			return err
		}
		if err := repo.RecalcTotais(atual.AssinaturaID); err != nil {
			return err
		}
		return repo.Regularizar(atual.AssinaturaID)
	})
	if err != nil {
		h.Log.Error("erro ao atualizar fatura", zap.Uint("fatura_id", id), zap.Error(err))
		http.Error(w, "Erro ao atualizar status da fatura", http.StatusInternalServerError)
		return
	}

	f, err := h.repo(r).FindFatura(id)
	if err != nil {
		http.Error(w, "Erro ao buscar fatura atualizada", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) carregar(w http.ResponseWriter, r *http.Request) (*Assinatura, bool) {
	id, ok := utils.ParseID(w, r, "id")
	if !ok {
		return nil, false
	}
	a, err := h.repo(r).FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Assinatura não encontrada", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "Erro ao buscar assinatura", http.StatusInternalServerError)
		return nil, false
	}
	if !auth.PodeAcessar(r.Context(), a.UsuarioID) {
		http.Error(w, "Acesso negado", http.StatusForbidden)
		return nil, false
	}
	return a, true
}
