package comentario

import (
	"github.com/jusconnect/api/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Criar(db *gorm.DB, c *models.Comentario) error
	ListarPorOportunidade(db *gorm.DB, oportunidadeID uint) ([]models.Comentario, error)
	BuscarPorID(db *gorm.DB, id uint) (*models.Comentario, error)
	Atualizar(db *gorm.DB, id uint, novoTexto string) error
	Remover(db *gorm.DB, id uint) error
	NomesAutores(db *gorm.DB, list []models.Comentario) (map[uint]string, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, c *models.Comentario) error {
	return db.Create(c).Error
}

func (r *repositoryImpl) ListarPorOportunidade(db *gorm.DB, oportunidadeID uint) ([]models.Comentario, error) {
	var comentarios []models.Comentario
	err := db.Where("oportunidade_id = ?", oportunidadeID).Order("created_at").Find(&comentarios).Error
	return comentarios, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Comentario, error) {
	var c models.Comentario
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, id uint, novoTexto string) error {
	return db.Model(&models.Comentario{}).Where("id = ?", id).Update("texto", novoTexto).Error
}

func (r *repositoryImpl) Remover(db *gorm.DB, id uint) error {
	return db.Delete(&models.Comentario{}, id).Error
}

// NomesAutores busca os nomes dos usuários que escreveram os comentários, numa só consulta.
func (r *repositoryImpl) NomesAutores(db *gorm.DB, list []models.Comentario) (map[uint]string, error) {
	ids := make([]uint, 0, len(list))
	vistos := map[uint]bool{}
	for _, c := range list {
		if c.UsuarioID != 0 && !vistos[c.UsuarioID] {
			vistos[c.UsuarioID] = true
			ids = append(ids, c.UsuarioID)
		}
	}
	nomes := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return nomes, nil
	}
	var rows []struct {
		ID   uint
		Nome string
	}
	if err := db.Table("usuarios").Select("id, nome").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		nomes[row.ID] = row.Nome
	}
	return nomes, nil
}
