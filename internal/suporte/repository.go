package suporte

import "gorm.io/gorm"

type Repository interface {
	Criar(db *gorm.DB, s *Solicitacao) error
	Listar(db *gorm.DB, usuarioID uint, status string) ([]Solicitacao, error)
	BuscarPorID(db *gorm.DB, id uint) (*Solicitacao, error)
	Atualizar(db *gorm.DB, id uint, campos map[string]any) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, s *Solicitacao) error {
	return db.Create(s).Error
}

// Listar filtra por usuário quando usuarioID != 0; mais recentes primeiro.
func (r *repositoryImpl) Listar(db *gorm.DB, usuarioID uint, status string) ([]Solicitacao, error) {
	q := db.Model(&Solicitacao{})
	if usuarioID != 0 {
		q = q.Where("usuario_id = ?", usuarioID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Solicitacao
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Solicitacao, error) {
	var s Solicitacao
	if err := db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, id uint, campos map[string]any) error {
	return db.Model(&Solicitacao{ID: id}).Updates(campos).Error
}
