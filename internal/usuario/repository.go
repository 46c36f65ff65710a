package usuario

import (
	"context"
	"errors"

	"github.com/jusconnect/api/internal/auth"
	"gorm.io/gorm"
)

type Repository interface {
	BuscarPorEmail(db *gorm.DB, email string) (*Usuario, error)
	Salvar(db *gorm.DB, u *Usuario) error
	BuscarPorID(db *gorm.DB, id uint) (*Usuario, error)
	ListarTodos(db *gorm.DB) ([]Usuario, error)
	Atualizar(db *gorm.DB, u *Usuario) error
	Deletar(db *gorm.DB, id uint) error
	ContarTodos(db *gorm.DB) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) BuscarPorEmail(db *gorm.DB, email string) (*Usuario, error) {
	var u Usuario
	if err := db.Where("email = ?", normalizarEmail(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) Salvar(db *gorm.DB, u *Usuario) error {
	return db.Create(u).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Usuario, error) {
	var u Usuario
	if err := db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) ListarTodos(db *gorm.DB) ([]Usuario, error) {
	var usuarios []Usuario
	err := db.Order("nome").Find(&usuarios).Error
	return usuarios, err
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, u *Usuario) error {
	return db.Save(u).Error
}

func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	res := db.Delete(&Usuario{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ContarTodos inclui removidos: o primeiro cadastro da história do sistema vira admin.
func (r *repositoryImpl) ContarTodos(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Unscoped().Model(&Usuario{}).Count(&n).Error
	return n, err
}

// Resolver liga tokens a usuários locais: pelo email (Supabase) ou pelo ID (refresh).
type Resolver struct {
	DB         *gorm.DB
	Repository Repository
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db, Repository: NewRepository()}
}

func (r *Resolver) ResolverPorEmail(ctx context.Context, email string) (uint, bool, error) {
	u, err := r.Repository.BuscarPorEmail(r.DB.WithContext(ctx), email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, auth.ErrUsuarioNaoEncontrado
	}
	if err != nil {
		return 0, false, err
	}
	if !u.Ativo {
		return 0, false, auth.ErrUsuarioNaoEncontrado
	}
	return u.ID, u.IsAdmin, nil
}

func (r *Resolver) ResolverPorID(ctx context.Context, id uint) (bool, error) {
	u, err := r.Repository.BuscarPorID(r.DB.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, auth.ErrUsuarioNaoEncontrado
	}
	if err != nil {
		return false, err
	}
	if !u.Ativo {
		return false, auth.ErrUsuarioNaoEncontrado
	}
	return u.IsAdmin, nil
}
