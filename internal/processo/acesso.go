package processo

import (
	"context"
	"errors"
	"net/http"

	"github.com/jusconnect/api/internal/auth"
	"gorm.io/gorm"
)

var ErrAcessoNegado = errors.New("acesso negado ao processo")

// VerificarAcesso busca o processo e confere se o usuário do contexto é o dono ou admin.
func VerificarAcesso(ctx context.Context, db *gorm.DB, repo Repository, id uint) (*Processo, error) {
	if repo == nil {
		repo = NewRepository()
	}
	p, err := repo.BuscarPorID(db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !auth.PodeAcessar(ctx, p.UsuarioID) {
		return nil, ErrAcessoNegado
	}
	return p, nil
}

// ResponderErro traduz o erro de VerificarAcesso; devolve true se não houve erro.
func ResponderErro(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Processo não encontrado", http.StatusNotFound)
	case errors.Is(err, ErrAcessoNegado):
		http.Error(w, "Acesso negado", http.StatusForbidden)
	default:
		http.Error(w, "Erro ao buscar processo", http.StatusInternalServerError)
	}
	return false
}
