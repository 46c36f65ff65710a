package oportunidade

import (
	"context"
	"errors"
	"net/http"

	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/models"
	"gorm.io/gorm"
)

// ErrAcessoNegado indica oportunidade de outro usuário.
var ErrAcessoNegado = errors.New("acesso negado à oportunidade")

// VerificarAcesso busca a oportunidade e confere se o usuário do contexto é o dono ou admin.
// Comentários e tarefas vinculados usam a mesma regra.
func VerificarAcesso(ctx context.Context, db *gorm.DB, repo Repository, id uint) (*models.Oportunidade, error) {
	if repo == nil {
		repo = NewRepository()
	}
	o, err := repo.BuscarPorID(db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !auth.PodeAcessar(ctx, o.UsuarioID) {
		return nil, ErrAcessoNegado
	}
	return o, nil
}

// ResponderErro traduz o erro de VerificarAcesso em resposta HTTP; devolve true se não houve erro.
func ResponderErro(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Oportunidade não encontrada", http.StatusNotFound)
	case errors.Is(err, ErrAcessoNegado):
		http.Error(w, "Acesso negado", http.StatusForbidden)
	default:
		http.Error(w, "Erro ao buscar oportunidade", http.StatusInternalServerError)
	}
	return false
}
