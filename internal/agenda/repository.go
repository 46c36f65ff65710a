package agenda

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Salvar(db *gorm.DB, c *Compromisso) error
	// ListarPeriodo devolve os compromissos que se sobrepõem a [inicio, fim].
	ListarPeriodo(db *gorm.DB, usuarioID uint, inicio, fim time.Time) ([]Compromisso, error)
	BuscarPorID(db *gorm.DB, id uint) (*Compromisso, error)
	Atualizar(db *gorm.DB, c *Compromisso) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, c *Compromisso) error {
	return db.Create(c).Error
}

func (r *repositoryImpl) ListarPeriodo(db *gorm.DB, usuarioID uint, inicio, fim time.Time) ([]Compromisso, error) {
	q := db.Model(&Compromisso{}).Where("inicio <= ? AND fim >= ?", fim, inicio)
	if usuarioID != 0 {
		q = q.Where("usuario_id = ?", usuarioID)
	}
	var list []Compromisso
	err := q.Order("inicio").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Compromisso, error) {
	var c Compromisso
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, c *Compromisso) error {
	return db.Save(c).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&Compromisso{}, id).Error
}
