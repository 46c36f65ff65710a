// Package notificacao envia eventos do CRM para um webhook externo opcional.
package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Eventos publicados.
const (
	EventoOportunidadeGanha = "oportunidade.ganha"
	EventoMensagemNova      = "mensagem.nova"
	EventoSuporteNova       = "suporte.nova"
)

// Notificador é o que os handlers conhecem; o envio nunca bloqueia a requisição.
type Notificador interface {
	Notificar(evento string, dados any)
}

// Payload é o corpo enviado ao webhook.
type Payload struct {
	Evento    string    `json:"evento"`
	Dados     any       `json:"dados"`
	EnviadoEm time.Time `json:"enviadoEm"`
}

type Webhook struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	Log     *zap.Logger

	wg sync.WaitGroup
}

func NewWebhook(url string, timeout time.Duration, log *zap.Logger) *Webhook {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{URL: url, Client: &http.Client{}, Timeout: timeout, Log: log}
}

// Notificar dispara o envio em segundo plano; sem URL configurada não faz nada.
func (w *Webhook) Notificar(evento string, dados any) {
	if w == nil || w.URL == "" {
		return
	}
	body, err := json.Marshal(Payload{Evento: evento, Dados: dados, EnviadoEm: time.Now().UTC()})
	if err != nil {
		w.Log.Error("erro ao serializar notificação", zap.String("evento", evento), zap.Error(err))
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.enviar(evento, body)
	}()
}

func (w *Webhook) enviar(evento string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		w.Log.Error("erro ao montar webhook", zap.String("evento", evento), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		w.Log.Warn("erro ao enviar webhook", zap.String("evento", evento), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		w.Log.Warn("webhook respondeu com erro", zap.String("evento", evento), zap.Int("status", resp.StatusCode))
	}
}

// Wait aguarda os envios pendentes, usado no desligamento.
func (w *Webhook) Wait() {
	if w != nil {
		w.wg.Wait()
	}
}

// Nop descarta as notificações.
type Nop struct{}

func (Nop) Notificar(string, any) {}
