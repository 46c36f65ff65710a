package tarefa

import (
	"time"

	"gorm.io/gorm"
)

type Filtro struct {
	UsuarioID      uint // dono ou responsável
	OportunidadeID uint
	Status         string
	AtrasadasEm    *time.Time
}

type Repository interface {
	Salvar(db *gorm.DB, t *Tarefa) error
	Listar(db *gorm.DB, f Filtro) ([]Tarefa, error)
	BuscarPorID(db *gorm.DB, id uint) (*Tarefa, error)
	Atualizar(db *gorm.DB, t *Tarefa) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, t *Tarefa) error {
	return db.Create(t).Error
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]Tarefa, error) {
	q := db.Model(&Tarefa{})
	if f.UsuarioID != 0 {
		q = q.Where("(usuario_id = ? OR responsavel_id = ?)", f.UsuarioID, f.UsuarioID)
	}
	if f.OportunidadeID != 0 {
		q = q.Where("oportunidade_id = ?", f.OportunidadeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AtrasadasEm != nil {
		q = q.Where("status <> ? AND prazo IS NOT NULL AND prazo < ?", StatusConcluida, *f.AtrasadasEm)
	}
	var list []Tarefa
	err := q.Order("prazo ASC NULLS LAST, created_at").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Tarefa, error) {
	var t Tarefa
	if err := db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, t *Tarefa) error {
	return db.Save(t).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&Tarefa{}, id).Error
}
