package mensagem

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Salvar(db *gorm.DB, m *Mensagem) error
	Conversa(db *gorm.DB, usuarioID, outroID uint) ([]Mensagem, error)
	Recebidas(db *gorm.DB, usuarioID uint, somenteNaoLidas bool) ([]Mensagem, error)
	BuscarPorID(db *gorm.DB, id uint) (*Mensagem, error)
	MarcarLida(db *gorm.DB, id uint, em time.Time) error
	ContarNaoLidas(db *gorm.DB, usuarioID uint) (int64, error)
	DestinatarioAtivo(db *gorm.DB, id uint) (bool, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, m *Mensagem) error {
	return db.Create(m).Error
}

// Conversa devolve as mensagens trocadas entre os dois usuários em ordem cronológica.
func (r *repositoryImpl) Conversa(db *gorm.DB, usuarioID, outroID uint) ([]Mensagem, error) {
	var list []Mensagem
	err := db.Where("(remetente_id = ? AND destinatario_id = ?) OR (remetente_id = ? AND destinatario_id = ?)",
		usuarioID, outroID, outroID, usuarioID).
		Order("created_at").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Recebidas(db *gorm.DB, usuarioID uint, somenteNaoLidas bool) ([]Mensagem, error) {
	q := db.Where("destinatario_id = ?", usuarioID)
	if somenteNaoLidas {
		q = q.Where("lida_em IS NULL")
	}
	var list []Mensagem
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Mensagem, error) {
	var m Mensagem
	if err := db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repositoryImpl) MarcarLida(db *gorm.DB, id uint, em time.Time) error {
	return db.Model(&Mensagem{}).Where("id = ? AND lida_em IS NULL", id).Update("lida_em", em).Error
}

func (r *repositoryImpl) ContarNaoLidas(db *gorm.DB, usuarioID uint) (int64, error) {
	var n int64
	err := db.Model(&Mensagem{}).Where("destinatario_id = ? AND lida_em IS NULL", usuarioID).Count(&n).Error
	return n, err
}

func (r *repositoryImpl) DestinatarioAtivo(db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.Table("usuarios").Where("id = ? AND ativo = ? AND deleted_at IS NULL", id, true).Count(&n).Error
	return n > 0, err
}
