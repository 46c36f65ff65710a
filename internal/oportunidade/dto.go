package oportunidade

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/jusconnect/api/internal/models"
)

type oportunidadeRequest struct {
	Titulo          string   `json:"titulo"`
	ClienteID       *uint    `json:"clienteId"`
	NomeContato     string   `json:"nomeContato"`
	EmailContato    string   `json:"emailContato"`
	TelefoneContato string   `json:"telefoneContato"`
	Area            string   `json:"area"`
	Origem          string   `json:"origem"`
	Status          string   `json:"status"`
	ValorEstimado   float64  `json:"valorEstimado"`
	Documentos      []string `json:"documentos"`
}

func (req *oportunidadeRequest) validar() error {
	req.Titulo = strings.TrimSpace(req.Titulo)
	if req.Titulo == "" {
		return errors.New("título é obrigatório")
	}
	req.EmailContato = strings.ToLower(strings.TrimSpace(req.EmailContato))
	if req.EmailContato != "" {
		if _, err := mail.ParseAddress(req.EmailContato); err != nil {
			return errors.New("email do contato inválido")
		}
	}
	if req.ValorEstimado < 0 {
		return errors.New("valor estimado não pode ser negativo")
	}
	if req.ClienteID != nil && *req.ClienteID == 0 {
		req.ClienteID = nil
	}
	return nil
}

// aplicar copia os campos editáveis; status só muda pelo PATCH de status.
func (req oportunidadeRequest) aplicar(o *models.Oportunidade) {
	o.Titulo = req.Titulo
	o.ClienteID = req.ClienteID
	o.NomeContato = strings.TrimSpace(req.NomeContato)
	o.EmailContato = req.EmailContato
	o.TelefoneContato = req.TelefoneContato
	o.Area = req.Area
	o.Origem = req.Origem
	o.ValorEstimado = req.ValorEstimado
}

type atualizarStatusRequest struct {
	Status string `json:"status"`
}

type adicionarDocumentosRequest struct {
	URLs []string `json:"urls"`
}

// Evento enviado ao webhook quando a oportunidade é ganha.
type eventoGanha struct {
	ID            uint    `json:"id"`
	Titulo        string  `json:"titulo"`
	UsuarioID     uint    `json:"usuarioId"`
	ClienteID     *uint   `json:"clienteId,omitempty"`
	ValorEstimado float64 `json:"valorEstimado"`
}

func limparURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
