package tarefa

import (
	"errors"
	"strings"
	"time"
)

type tarefaRequest struct {
	Titulo         string     `json:"titulo"`
	Descricao      string     `json:"descricao"`
	OportunidadeID *uint      `json:"oportunidadeId"`
	ProcessoID     *uint      `json:"processoId"`
	ResponsavelID  uint       `json:"responsavelId"`
	Prioridade     string     `json:"prioridade"`
	Status         string     `json:"status"`
	Prazo          *time.Time `json:"prazo"`
}

func (req *tarefaRequest) validar() error {
	req.Titulo = strings.TrimSpace(req.Titulo)
	if req.Titulo == "" {
		return errors.New("título é obrigatório")
	}
	req.Prioridade = strings.TrimSpace(req.Prioridade)
	if req.Prioridade == "" {
		req.Prioridade = PrioridadeMedia
	}
	if !prioridadesValidas[req.Prioridade] {
		return errors.New("prioridade inválida")
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = StatusPendente
	}
	if !statusValidos[req.Status] {
		return errors.New("status inválido")
	}
	if req.OportunidadeID != nil && *req.OportunidadeID == 0 {
		req.OportunidadeID = nil
	}
	if req.ProcessoID != nil && *req.ProcessoID == 0 {
		req.ProcessoID = nil
	}
	return nil
}

func (req tarefaRequest) aplicar(t *Tarefa, now time.Time) {
	t.Titulo = req.Titulo
	t.Descricao = strings.TrimSpace(req.Descricao)
	t.OportunidadeID = req.OportunidadeID
	t.ProcessoID = req.ProcessoID
	if req.ResponsavelID != 0 {
		t.ResponsavelID = req.ResponsavelID
	}
	t.Prioridade = req.Prioridade
	t.Prazo = req.Prazo
	t.definirStatus(req.Status, now)
}
