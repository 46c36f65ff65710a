package assinatura

import (
	"time"

	"gorm.io/gorm"
)

// Repository encapsula o acesso a assinaturas e faturas.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithDB retorna uma cópia do repo usando um *gorm.DB específico (ex.: tx).
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

/* ============================== Assinaturas ============================== */

func (r *Repository) Create(a *Assinatura) error {
	return r.DB.Omit("Plano", "Faturas").Create(a).Error
}

// ContarVigentes conta assinaturas Ativas ou Inadimplentes do usuário.
func (r *Repository) ContarVigentes(usuarioID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&Assinatura{}).
		Where("usuario_id = ? AND status IN ?", usuarioID, []string{StatusAtiva, StatusInadimplente}).
		Count(&n).Error
	return n, err
}

func (r *Repository) FindByID(id uint) (*Assinatura, error) {
	var a Assinatura
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAtual devolve a assinatura vigente mais recente do usuário com plano e faturas.
func (r *Repository) FindAtual(usuarioID uint) (*Assinatura, error) {
	var a Assinatura
	err := r.DB.
		Preload("Plano").
		Preload("Faturas", func(tx *gorm.DB) *gorm.DB { return tx.Order("data_vencimento ASC") }).
		Where("usuario_id = ? AND status IN ?", usuarioID, []string{StatusAtiva, StatusInadimplente}).
		Order("created_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List filtra por usuário e status; zero/vazio não filtra.
func (r *Repository) List(usuarioID uint, status string) ([]Assinatura, error) {
	q := r.DB.Model(&Assinatura{}).Preload("Plano")
	if usuarioID != 0 {
		q = q.Where("usuario_id = ?", usuarioID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Assinatura
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *Repository) Cancelar(id uint, em time.Time) error {
	return r.DB.Model(&Assinatura{ID: id}).Updates(map[string]any{
		"status":       StatusCancelada,
		"cancelada_em": em,
	}).Error
}

/* ================================ Faturas ================================ */

// CreateInBatch cria múltiplas faturas de uma vez (ignora se vazio).
func (r *Repository) CreateInBatch(faturas []*Fatura) error {
	if len(faturas) == 0 {
		return nil
	}
	return r.DB.Create(faturas).Error
}

func (r *Repository) FindFatura(id uint) (*Fatura, error) {
	var f Fatura
	if err := r.DB.First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repository) ListFaturas(assinaturaID uint) ([]Fatura, error) {
	var fs []Fatura
	err := r.DB.Where("assinatura_id = ?", assinaturaID).Order("data_vencimento ASC").Find(&fs).Error
	return fs, err
}

// UpdateStatusFatura grava o status e ajusta data_pagamento:
// preenchida quando Paga, NULL nos demais casos.
func (r *Repository) UpdateStatusFatura(id uint, status string, pagoEm time.Time, comprovante string) error {
	updates := map[string]any{"status": status}
	if status == FaturaPaga {
		updates["data_pagamento"] = &pagoEm
	} else {
		updates["data_pagamento"] = nil
	}
	if comprovante != "" {
		updates["comprovante"] = comprovante
	}
	return r.DB.Model(&Fatura{}).Where("id = ?", id).Updates(updates).Error
}

// CancelarPendentes cancela as faturas ainda não pagas e não vencidas.
func (r *Repository) CancelarPendentes(assinaturaID uint) (int64, error) {
	res := r.DB.Model(&Fatura{}).
		Where("assinatura_id = ? AND status = ?", assinaturaID, FaturaPendente).
		Update("status", FaturaCancelada)
	return res.RowsAffected, res.Error
}

/* ======================= Totais e inadimplência ======================= */

type totais struct {
	Pago    float64
	Receber float64
}

// RecalcTotais soma as faturas e atualiza total_pago e total_receber da assinatura.
func (r *Repository) RecalcTotais(assinaturaID uint) error {
	var t totais
	err := r.DB.Model(&Fatura{}).
		Select("COALESCE(SUM(CASE WHEN status = ? THEN valor END), 0) AS pago, "+
			"COALESCE(SUM(CASE WHEN status IN ? THEN valor END), 0) AS receber",
			FaturaPaga, []string{FaturaPendente, FaturaVencida}).
		Where("assinatura_id = ?", assinaturaID).
		Scan(&t).Error
	if err != nil {
		return err
	}
	return r.DB.Model(&Assinatura{ID: assinaturaID}).Updates(map[string]any{
		"total_pago":    t.Pago,
		"total_receber": t.Receber,
	}).Error
}

// Regularizar volta a assinatura inadimplente para Ativa quando não restam faturas vencidas.
func (r *Repository) Regularizar(assinaturaID uint) error {
	return r.DB.Model(&Assinatura{}).
		Where("id = ? AND status = ?", assinaturaID, StatusInadimplente).
		Where("NOT EXISTS (SELECT 1 FROM faturas WHERE faturas.assinatura_id = assinaturas.id AND faturas.status = ?)", FaturaVencida).
		Update("status", StatusAtiva).Error
}

// MarcarVencidas passa para Vencida as faturas pendentes com vencimento antes de hoje
// e marca como Inadimplente as assinaturas ativas que ficaram com fatura vencida.
func (r *Repository) MarcarVencidas(hoje time.Time) (faturas, assinaturas int64, err error) {
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Fatura{}).
			Where("status = ? AND data_vencimento < ?", FaturaPendente, hoje).
			Update("status", FaturaVencida)
		if res.Error != nil {
			return res.Error
		}
		faturas = res.RowsAffected

		res = tx.Model(&Assinatura{}).
			Where("status = ?", StatusAtiva).
			Where("id IN (SELECT assinatura_id FROM faturas WHERE status = ?)", FaturaVencida).
			Update("status", StatusInadimplente)
		if res.Error != nil {
			return res.Error
		}
		assinaturas = res.RowsAffected
		return nil
	})
	return faturas, assinaturas, err
}
