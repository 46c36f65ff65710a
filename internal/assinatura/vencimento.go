package assinatura

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Agendador roda a varredura diária de faturas vencidas.
type Agendador struct {
	cron    *cron.Cron
	repo    *Repository
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NovoAgendador registra a varredura na expressão cron informada (formato de 5 campos).
func NovoAgendador(db *gorm.DB, expressao string, log *zap.Logger) (*Agendador, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Agendador{
		cron:    cron.New(),
		repo:    NewRepository(db),
		log:     log,
		timeout: 2 * time.Minute,
		now:     time.Now,
	}
	if _, err := a.cron.AddFunc(expressao, a.executar); err != nil {
		return nil, fmt.Errorf("assinatura: expressão cron %q inválida: %w", expressao, err)
	}
	return a, nil
}

func (a *Agendador) Start() {
	a.log.Info("varredura de faturas agendada", zap.Int("jobs", len(a.cron.Entries())))
	a.cron.Start()
}

// Stop interrompe o agendamento; o contexto devolvido termina quando a execução em curso acabar.
func (a *Agendador) Stop() context.Context {
	return a.cron.Stop()
}

func (a *Agendador) executar() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if _, _, err := a.Executar(ctx); err != nil {
		a.log.Error("falha na varredura de faturas vencidas", zap.Error(err))
	}
}

// Executar marca as faturas vencidas e as assinaturas inadimplentes uma vez.
func (a *Agendador) Executar(ctx context.Context) (faturas, assinaturas int64, err error) {
	hoje := inicioDoDia(a.now())
	faturas, assinaturas, err = a.repo.WithDB(a.repo.DB.WithContext(ctx)).MarcarVencidas(hoje)
	if err != nil {
		return 0, 0, err
	}
	if faturas > 0 || assinaturas > 0 {
		a.log.Info("faturas vencidas marcadas",
			zap.Int64("faturas", faturas),
			zap.Int64("assinaturas_inadimplentes", assinaturas),
			zap.Time("referencia", hoje))
	}
	return faturas, assinaturas, nil
}
