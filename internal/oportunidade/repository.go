package oportunidade

import (
	"time"

	"github.com/jusconnect/api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Filtro struct {
	UsuarioID uint
	ClienteID uint
	Status    string
}

type Repository interface {
	Salvar(db *gorm.DB, o *models.Oportunidade) error
	Listar(db *gorm.DB, f Filtro) ([]models.Oportunidade, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Oportunidade, error)
	BuscarComComentarios(db *gorm.DB, id uint) (*models.Oportunidade, error)
	Atualizar(db *gorm.DB, o *models.Oportunidade) error
	AtualizarStatus(db *gorm.DB, id uint, status string, fechadaEm *time.Time) error
	AtualizarDocumentos(db *gorm.DB, id uint, docs models.Documentos) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, o *models.Oportunidade) error {
	return db.Omit(clause.Associations).Create(o).Error
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Oportunidade, error) {
	q := db.Model(&models.Oportunidade{})
	if f.UsuarioID != 0 {
		q = q.Where("usuario_id = ?", f.UsuarioID)
	}
	if f.ClienteID != 0 {
		q = q.Where("cliente_id = ?", f.ClienteID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var list []models.Oportunidade
	err := q.Order("updated_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Oportunidade, error) {
	var o models.Oportunidade
	if err := db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repositoryImpl) BuscarComComentarios(db *gorm.DB, id uint) (*models.Oportunidade, error) {
	var o models.Oportunidade
	err := db.Preload("Comentarios", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at")
	}).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, o *models.Oportunidade) error {
	return db.Omit(clause.Associations).Save(o).Error
}

func (r *repositoryImpl) AtualizarStatus(db *gorm.DB, id uint, status string, fechadaEm *time.Time) error {
	return db.Model(&models.Oportunidade{ID: id}).Updates(map[string]any{
		"status":     status,
		"fechada_em": fechadaEm,
	}).Error
}

func (r *repositoryImpl) AtualizarDocumentos(db *gorm.DB, id uint, docs models.Documentos) error {
	return db.Model(&models.Oportunidade{ID: id}).Update("documentos", docs).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&models.Oportunidade{}, id).Error
}
