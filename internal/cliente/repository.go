package cliente

import (
	"context"
	"errors"
	"strings"

	"github.com/jusconnect/api/internal/auth"
	"gorm.io/gorm"
)

// ErrAcessoNegado indica cliente de outro usuário.
var ErrAcessoNegado = errors.New("acesso negado ao cliente")

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Criar(ctx context.Context, c *Cliente) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// Listar filtra pelo dono (0 = todos) e por busca em nome, documento ou email.
func (r *Repository) Listar(ctx context.Context, usuarioID uint, busca string) ([]Cliente, error) {
	q := r.DB.WithContext(ctx).Model(&Cliente{})
	if usuarioID != 0 {
		q = q.Where("usuario_id = ?", usuarioID)
	}
	if busca = strings.TrimSpace(busca); busca != "" {
		like := "%" + strings.ToLower(busca) + "%"
		q = q.Where("LOWER(nome) LIKE ? OR documento LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	var list []Cliente
	err := q.Order("nome").Find(&list).Error
	return list, err
}

func (r *Repository) BuscarPorID(ctx context.Context, id uint) (*Cliente, error) {
	var c Cliente
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Atualizar(ctx context.Context, c *Cliente) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *Repository) Deletar(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&Cliente{}, id).Error
}

// VerificarAcesso confirma que o cliente existe e pertence ao usuário do contexto (ou que ele é admin).
func (r *Repository) VerificarAcesso(ctx context.Context, id uint) (*Cliente, error) {
	c, err := r.BuscarPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.PodeAcessar(ctx, c.UsuarioID) {
		return nil, ErrAcessoNegado
	}
	return c, nil
}
