package cliente

import (
	"errors"
	"strings"

	"github.com/jusconnect/api/internal/utils"
)

type clienteRequest struct {
	Nome        string `json:"nome"`
	Tipo        string `json:"tipo"`
	Documento   string `json:"documento"`
	Email       string `json:"email"`
	Telefone    string `json:"telefone"`
	Endereco    string `json:"endereco"`
	Observacoes string `json:"observacoes"`
}

// validar normaliza o pedido: tipo em maiúsculas, documento só com dígitos.
func (req *clienteRequest) validar() error {
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		return errors.New("nome é obrigatório")
	}
	req.Tipo = strings.ToUpper(strings.TrimSpace(req.Tipo))
	if req.Tipo == "" {
		req.Tipo = TipoPF
	}
	if req.Tipo != TipoPF && req.Tipo != TipoPJ {
		return errors.New("tipo deve ser PF ou PJ")
	}
	req.Documento = utils.SomenteDigitos(req.Documento)
	if req.Documento != "" {
		if req.Tipo == TipoPF && len(req.Documento) != 11 {
			return errors.New("CPF deve ter 11 dígitos")
		}
		if req.Tipo == TipoPJ && len(req.Documento) != 14 {
			return errors.New("CNPJ deve ter 14 dígitos")
		}
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return nil
}

func (req clienteRequest) aplicar(c *Cliente) {
	c.Nome = req.Nome
	c.Tipo = req.Tipo
	c.Documento = req.Documento
	c.Email = req.Email
	c.Telefone = req.Telefone
	c.Endereco = req.Endereco
	c.Observacoes = req.Observacoes
}
