package dashboard

import (
	"net/http"
	"time"

	"github.com/jusconnect/api/internal/assinatura"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JanelaCompromissos é o horizonte de "próximos compromissos".
const JanelaCompromissos = 7 * 24 * time.Hour

type Resumo struct {
	Clientes              int64       `json:"clientes"`
	ProcessosAtivos       int64       `json:"processosAtivos"`
	OportunidadesAbertas  int64       `json:"oportunidadesAbertas"`
	OportunidadesGanhas   int64       `json:"oportunidadesGanhas"`
	OportunidadesPerdidas int64       `json:"oportunidadesPerdidas"`
	ValorPipeline         float64     `json:"valorPipeline"`
	ValorGanho            float64     `json:"valorGanho"`
	TarefasPendentes      int64       `json:"tarefasPendentes"`
	TarefasAtrasadas      int64       `json:"tarefasAtrasadas"`
	ProximosCompromissos  int64       `json:"proximosCompromissos"`
	MensagensNaoLidas     int64       `json:"mensagensNaoLidas"`
	OportunidadesStatus   []PorStatus `json:"oportunidadesPorStatus"`
}

type ResumoAdmin struct {
	Usuarios                int64       `json:"usuarios"`
	UsuariosAtivos          int64       `json:"usuariosAtivos"`
	AssinaturasAtivas       int64       `json:"assinaturasAtivas"`
	AssinaturasInadimplente int64       `json:"assinaturasInadimplentes"`
	ReceitaRecebida         float64     `json:"receitaRecebida"`
	ReceitaAReceber         float64     `json:"receitaAReceber"`
	OportunidadesStatus     []PorStatus `json:"oportunidadesPorStatus"`
}

type Handler struct {
	Repo *Repository
	Log  *zap.Logger
	now  func() time.Time
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Repo: NewRepository(db), Log: log, now: time.Now}
}

// somarFunil separa as linhas do funil em abertas, ganhas e perdidas.
func somarFunil(res *Resumo, linhas []PorStatus) {
	for _, l := range linhas {
		switch l.Status {
		case models.StatusGanha:
			res.OportunidadesGanhas += l.Total
			res.ValorGanho += l.Valor
		case models.StatusPerdida:
			res.OportunidadesPerdidas += l.Total
		default:
			res.OportunidadesAbertas += l.Total
			res.ValorPipeline += l.Valor
		}
	}
}

// GET /dashboard
func (h *Handler) Resumo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuarioID := auth.UsuarioID(ctx)
	agora := h.now()

	var (
		res Resumo
		err error
	)
	falhou := func(etapa string, err error) {
		h.Log.Error("erro ao montar dashboard", zap.String("etapa", etapa), zap.Uint("usuario_id", usuarioID), zap.Error(err))
		http.Error(w, "Erro ao carregar dashboard", http.StatusInternalServerError)
	}

	if res.Clientes, err = h.Repo.ContarClientes(ctx, usuarioID); err != nil {
		falhou("clientes", err)
		return
	}
	if res.ProcessosAtivos, err = h.Repo.ContarProcessosAtivos(ctx, usuarioID); err != nil {
		falhou("processos", err)
		return
	}
	if res.OportunidadesStatus, err = h.Repo.OportunidadesPorStatus(ctx, usuarioID); err != nil {
		falhou("oportunidades", err)
		return
	}
	somarFunil(&res, res.OportunidadesStatus)
	if res.TarefasPendentes, res.TarefasAtrasadas, err = h.Repo.ContarTarefas(ctx, usuarioID, agora); err != nil {
		falhou("tarefas", err)
		return
	}
	if res.ProximosCompromissos, err = h.Repo.ContarCompromissos(ctx, usuarioID, agora, agora.Add(JanelaCompromissos)); err != nil {
		falhou("agenda", err)
		return
	}
	if res.MensagensNaoLidas, err = h.Repo.ContarMensagensNaoLidas(ctx, usuarioID); err != nil {
		falhou("mensagens", err)
		return
	}
	if res.OportunidadesStatus == nil {
		res.OportunidadesStatus = []PorStatus{}
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

// GET /admin/dashboard
func (h *Handler) ResumoAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		res ResumoAdmin
		err error
	)
	falhou := func(etapa string, err error) {
		h.Log.Error("erro ao montar dashboard administrativo", zap.String("etapa", etapa), zap.Error(err))
		http.Error(w, "Erro ao carregar dashboard", http.StatusInternalServerError)
	}

	if res.Usuarios, res.UsuariosAtivos, err = h.Repo.ContarUsuarios(ctx); err != nil {
		falhou("usuarios", err)
		return
	}
	assinaturas, err := h.Repo.AssinaturasPorStatus(ctx)
	if err != nil {
		falhou("assinaturas", err)
		return
	}
	res.AssinaturasAtivas = assinaturas[assinatura.StatusAtiva]
	res.AssinaturasInadimplente = assinaturas[assinatura.StatusInadimplente]
	if res.ReceitaRecebida, res.ReceitaAReceber, err = h.Repo.Receita(ctx); err != nil {
		falhou("receita", err)
		return
	}
	if res.OportunidadesStatus, err = h.Repo.OportunidadesPorStatus(ctx, 0); err != nil {
		falhou("oportunidades", err)
		return
	}
	if res.OportunidadesStatus == nil {
		res.OportunidadesStatus = []PorStatus{}
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
