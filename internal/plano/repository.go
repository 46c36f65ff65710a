package plano

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(p *Plano) error {
	return r.DB.Create(p).Error
}

// List devolve os planos ordenados por valor; somenteAtivos esconde os descontinuados.
func (r *Repository) List(somenteAtivos bool) ([]Plano, error) {
	q := r.DB.Model(&Plano{})
	if somenteAtivos {
		q = q.Where("ativo = ?", true)
	}
	var ps []Plano
	err := q.Order("valor_mensal").Find(&ps).Error
	return ps, err
}

func (r *Repository) FindByID(id uint) (*Plano, error) {
	var p Plano
	if err := r.DB.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Update(p *Plano) error {
	return r.DB.Save(p).Error
}

// Delete apaga o plano; retorna gorm.ErrRecordNotFound se nada foi apagado.
func (r *Repository) Delete(id uint) error {
	res := r.DB.Delete(&Plano{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EmUso indica se alguma assinatura referencia o plano.
func (r *Repository) EmUso(id uint) (bool, error) {
	var n int64
	err := r.DB.Table("assinaturas").Where("plano_id = ? AND deleted_at IS NULL", id).Count(&n).Error
	return n > 0, err
}

// WithContext devolve uma cópia do repo presa ao contexto da requisição.
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{DB: r.DB.WithContext(ctx)}
}
