package db

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// supportSchema cria as tabelas do suporte, que ficam fora do AutoMigrate.
// Todas as instruções são idempotentes.
var supportSchema = []string{
	`CREATE TABLE IF NOT EXISTS suporte_solicitacoes (
		id BIGSERIAL PRIMARY KEY,
		usuario_id BIGINT NOT NULL,
		assunto VARCHAR(200) NOT NULL,
		mensagem TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'aberta',
		resposta TEXT,
		respondida_por BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_suporte_solicitacoes_usuario ON suporte_solicitacoes (usuario_id)`,
	`CREATE INDEX IF NOT EXISTS idx_suporte_solicitacoes_status ON suporte_solicitacoes (status)`,
}

// IsConnectionError reconhece falhas de conexão: host inexistente (ENOTFOUND)
// ou conexão recusada (ECONNREFUSED), inclusive embrulhadas pelo driver.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}

// DelayFunc espera antes da próxima tentativa. attempt começa em 1.
type DelayFunc func(ctx context.Context, attempt int) error

// ExponentialDelay dobra a espera a cada tentativa, até max.
func ExponentialDelay(base, max time.Duration) DelayFunc {
	return func(ctx context.Context, attempt int) error {
		d := base
		for i := 1; i < attempt && d < max; i++ {
			d *= 2
		}
		if d > max {
			d = max
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SchemaBootstrapper aplica o schema de suporte uma única vez por processo.
// Chamadas concorrentes compartilham a mesma execução em andamento.
type SchemaBootstrapper struct {
	db    *gorm.DB
	log   *zap.Logger
	delay DelayFunc

	group singleflight.Group
	done  atomic.Bool

	// a execução compartilhada só é cancelada quando o último interessado desiste
	mu       sync.Mutex
	espera   int
	runCtx   context.Context
	cancelar context.CancelFunc
}

// NewSchemaBootstrapper usa ExponentialDelay(1s, 30s) quando delay é nil.
func NewSchemaBootstrapper(database *gorm.DB, log *zap.Logger, delay DelayFunc) *SchemaBootstrapper {
	if log == nil {
		log = zap.NewNop()
	}
	if delay == nil {
		delay = ExponentialDelay(time.Second, 30*time.Second)
	}
	return &SchemaBootstrapper{db: database, log: log, delay: delay}
}

// EnsureSupportSchema repete o schema enquanto a falha for de conexão, com um aviso
// por tentativa; qualquer outro erro volta imediatamente. Cada chamador desiste
// pelo próprio ctx sem interromper os demais.
func (b *SchemaBootstrapper) EnsureSupportSchema(ctx context.Context) error {
	if b.done.Load() {
		return nil
	}
	runCtx := b.entrar(ctx)
	defer b.sair()

	ch := b.group.DoChan("support-schema", func() (interface{}, error) {
		if b.done.Load() {
			return nil, nil
		}
		for attempt := 1; ; attempt++ {
			err := b.apply(runCtx)
			if err == nil {
				b.done.Store(true)
				return nil, nil
			}
			if !IsConnectionError(err) {
				return nil, err
			}
			b.log.Warn("banco indisponível ao criar schema de suporte, tentando novamente",
				zap.Int("tentativa", attempt), zap.Error(err))
			if err := b.delay(runCtx, attempt); err != nil {
				return nil, err
			}
		}
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *SchemaBootstrapper) entrar(ctx context.Context) context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.espera == 0 {
		b.runCtx, b.cancelar = context.WithCancel(context.WithoutCancel(ctx))
	}
	b.espera++
	return b.runCtx
}

func (b *SchemaBootstrapper) sair() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.espera--
	if b.espera == 0 {
		b.cancelar()
	}
}

func (b *SchemaBootstrapper) apply(ctx context.Context) error {
	for _, stmt := range supportSchema {
		if err := b.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Initializer é um passo de preparação do banco executado na subida.
type Initializer struct {
	Name string
	Run  func(ctx context.Context) error
}

// InitializeStorage executa os inicializadores em ordem. Falha de conexão é registrada
// e o próximo passo segue; qualquer outro erro interrompe a sequência.
func InitializeStorage(ctx context.Context, log *zap.Logger, steps ...Initializer) error {
	if log == nil {
		log = zap.NewNop()
	}
	for _, step := range steps {
		err := step.Run(ctx)
		if err == nil {
			continue
		}
		if IsConnectionError(err) {
			log.Warn("inicializador ignorado: banco inacessível", zap.String("etapa", step.Name), zap.Error(err))
			continue
		}
		return err
	}
	return nil
}
