package processo

import (
	"gorm.io/gorm"
)

// Filtro restringe a listagem; zero em um campo significa "sem filtro".
type Filtro struct {
	UsuarioID uint
	ClienteID uint
	Status    string
}

type Repository interface {
	Salvar(db *gorm.DB, p *Processo) error
	Listar(db *gorm.DB, f Filtro) ([]Processo, error)
	BuscarPorID(db *gorm.DB, id uint) (*Processo, error)
	Atualizar(db *gorm.DB, p *Processo) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, p *Processo) error {
	return db.Create(p).Error
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]Processo, error) {
	q := db.Model(&Processo{})
	if f.UsuarioID != 0 {
		q = q.Where("usuario_id = ?", f.UsuarioID)
	}
	if f.ClienteID != 0 {
		q = q.Where("cliente_id = ?", f.ClienteID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var list []Processo
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Processo, error) {
	var p Processo
	if err := db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, p *Processo) error {
	return db.Save(p).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&Processo{}, id).Error
}
