// Package dashboard agrega os números das telas inicial e administrativa.
package dashboard

import (
	"context"
	"time"

	"github.com/jusconnect/api/internal/agenda"
	"github.com/jusconnect/api/internal/assinatura"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/mensagem"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/processo"
	"github.com/jusconnect/api/internal/tarefa"
	"github.com/jusconnect/api/internal/usuario"
	"gorm.io/gorm"
)

// PorStatus é uma linha do agrupamento de oportunidades.
type PorStatus struct {
	Status string  `json:"status"`
	Total  int64   `json:"total"`
	Valor  float64 `json:"valor"`
}

type Repository struct {
	DB       *gorm.DB
	mensagem mensagem.Repository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db, mensagem: mensagem.NewRepository()}
}

func (r *Repository) ContarClientes(ctx context.Context, usuarioID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&cliente.Cliente{}).Where("usuario_id = ?", usuarioID).Count(&n).Error
	return n, err
}

func (r *Repository) ContarProcessosAtivos(ctx context.Context, usuarioID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&processo.Processo{}).
		Where("usuario_id = ? AND status = ?", usuarioID, processo.StatusAtivo).
		Count(&n).Error
	return n, err
}

// OportunidadesPorStatus agrupa quantidade e valor estimado; usuarioID 0 agrega todos.
func (r *Repository) OportunidadesPorStatus(ctx context.Context, usuarioID uint) ([]PorStatus, error) {
	q := r.DB.WithContext(ctx).Model(&models.Oportunidade{}).
		Select("status, count(*) AS total, COALESCE(SUM(valor_estimado), 0) AS valor")
	if usuarioID != 0 {
		q = q.Where("usuario_id = ?", usuarioID)
	}
	var out []PorStatus
	err := q.Group("status").Order("status").Scan(&out).Error
	return out, err
}

// ContarTarefas devolve as tarefas em aberto do usuário (dono ou responsável) e,
// entre elas, as atrasadas em relação a agora.
func (r *Repository) ContarTarefas(ctx context.Context, usuarioID uint, agora time.Time) (pendentes, atrasadas int64, err error) {
	var t struct {
		Pendentes int64
		Atrasadas int64
	}
	err = r.DB.WithContext(ctx).Model(&tarefa.Tarefa{}).
		Select("count(*) AS pendentes, "+
			"count(*) FILTER (WHERE prazo IS NOT NULL AND prazo < ?) AS atrasadas", agora).
		Where("(usuario_id = ? OR responsavel_id = ?) AND status <> ?", usuarioID, usuarioID, tarefa.StatusConcluida).
		Scan(&t).Error
	return t.Pendentes, t.Atrasadas, err
}

func (r *Repository) ContarCompromissos(ctx context.Context, usuarioID uint, de, ate time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&agenda.Compromisso{}).
		Where("usuario_id = ? AND inicio >= ? AND inicio < ?", usuarioID, de, ate).
		Count(&n).Error
	return n, err
}

func (r *Repository) ContarMensagensNaoLidas(ctx context.Context, usuarioID uint) (int64, error) {
	return r.mensagem.ContarNaoLidas(r.DB.WithContext(ctx), usuarioID)
}

/* ================================ Admin ================================ */

func (r *Repository) ContarUsuarios(ctx context.Context) (total, ativos int64, err error) {
	var u struct {
		Total  int64
		Ativos int64
	}
	err = r.DB.WithContext(ctx).Model(&usuario.Usuario{}).
		Select("count(*) AS total, count(*) FILTER (WHERE ativo) AS ativos").
		Scan(&u).Error
	return u.Total, u.Ativos, err
}

// AssinaturasPorStatus devolve status -> quantidade.
func (r *Repository) AssinaturasPorStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&assinatura.Assinatura{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// Receita soma as faturas pagas e as que ainda estão em aberto (pendentes ou vencidas).
func (r *Repository) Receita(ctx context.Context) (recebida, aReceber float64, err error) {
	var t struct {
		Recebida float64
		AReceber float64 `gorm:"column:a_receber"`
	}
	err = r.DB.WithContext(ctx).Model(&assinatura.Fatura{}).
		Select("COALESCE(SUM(CASE WHEN status = ? THEN valor END), 0) AS recebida, "+
			"COALESCE(SUM(CASE WHEN status IN ? THEN valor END), 0) AS a_receber",
			assinatura.FaturaPaga, []string{assinatura.FaturaPendente, assinatura.FaturaVencida}).
		Scan(&t).Error
	return t.Recebida, t.AReceber, err
}
