package comentario

import (
	"time"

	"github.com/jusconnect/api/internal/models"
)

type AutorDTO struct {
	Tipo string `json:"tipo"`         // "usuario" | "system"
	ID   *uint  `json:"id,omitempty"` // nil para system
	Nome string `json:"nome"`
}

type ComentarioDTO struct {
	ID             uint      `json:"id"`
	OportunidadeID uint      `json:"oportunidadeId"`
	Texto          string    `json:"texto"`
	System         bool      `json:"system"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Autor          AutorDTO  `json:"autor"`
}

type comentarioRequest struct {
	Texto string `json:"texto"`
}

// toDTO monta o autor a partir do mapa id -> nome carregado pelo repository.
func toDTO(c models.Comentario, nomes map[uint]string) ComentarioDTO {
	out := ComentarioDTO{
		ID:             c.ID,
		OportunidadeID: c.OportunidadeID,
		Texto:          c.Texto,
		System:         c.System,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.System || c.UsuarioID == 0 {
		out.Autor = AutorDTO{Tipo: "system", Nome: "Sistema"}
		return out
	}
	id := c.UsuarioID
	nome := nomes[id]
	if nome == "" {
		nome = "Usuário"
	}
	out.Autor = AutorDTO{Tipo: "usuario", ID: &id, Nome: nome}
	return out
}

func toDTOs(list []models.Comentario, nomes map[uint]string) []ComentarioDTO {
	out := make([]ComentarioDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c, nomes))
	}
	return out
}
