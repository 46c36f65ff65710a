package template

import "gorm.io/gorm"

type Repository interface {
	Salvar(db *gorm.DB, t *Template) error
	// ListarVisiveis devolve os templates do usuário e os públicos; usuarioID 0 lista todos.
	ListarVisiveis(db *gorm.DB, usuarioID uint, categoria string) ([]Template, error)
	BuscarPorID(db *gorm.DB, id uint) (*Template, error)
	Atualizar(db *gorm.DB, t *Template) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, t *Template) error {
	return db.Create(t).Error
}

func (r *repositoryImpl) ListarVisiveis(db *gorm.DB, usuarioID uint, categoria string) ([]Template, error) {
	q := db.Model(&Template{})
	if usuarioID != 0 {
		q = q.Where("usuario_id = ? OR publico = ?", usuarioID, true)
	}
	if categoria != "" {
		q = q.Where("categoria = ?", categoria)
	}
	var list []Template
	err := q.Order("nome").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Template, error) {
	var t Template
	if err := db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, t *Template) error {
	return db.Save(t).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Delete(&Template{}, id).Error
}
