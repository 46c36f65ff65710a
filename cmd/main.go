package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jusconnect/api/internal/agenda"
	"github.com/jusconnect/api/internal/assinatura"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/config"
	"github.com/jusconnect/api/internal/logger"
	"github.com/jusconnect/api/internal/mensagem"
	"github.com/jusconnect/api/internal/metrics"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/plano"
	"github.com/jusconnect/api/internal/processo"
	"github.com/jusconnect/api/internal/routes"
	"github.com/jusconnect/api/internal/storage"
	"github.com/jusconnect/api/internal/tarefa"
	"github.com/jusconnect/api/internal/template"
	"github.com/jusconnect/api/internal/usuario"
	"github.com/jusconnect/api/internal/utils/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "jus-connect-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		log.Fatal("Erro ao criar logger: ", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.GetDB(ctx, cfg.Database, nil)
	if err != nil {
		logg.Fatal("Erro ao conectar no banco", zap.Error(err))
	}

	schema := db.NewSchemaBootstrapper(database, logg, db.ExponentialDelay(time.Second, 30*time.Second))
	err = db.InitializeStorage(ctx, logg,
		db.Initializer{Name: "schema de suporte", Run: schema.EnsureSupportSchema},
		db.Initializer{Name: "automigrate", Run: func(ctx context.Context) error {
			return autoMigrate(database.WithContext(ctx))
		}},
	)
	if err != nil {
		logg.Fatal("Erro ao preparar o banco", zap.Error(err))
	}

	keys, err := auth.LoadKeySet(cfg.Auth)
	if err != nil {
		logg.Warn("chave RSA não carregada, usando chave efêmera", zap.Error(err))
		if keys, err = auth.GenerateKeySet(cfg.Auth); err != nil {
			logg.Fatal("Erro ao gerar chave RSA", zap.Error(err))
		}
	}

	st, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logg.Fatal("Erro ao configurar armazenamento", zap.Error(err))
	}
	logg.Info("armazenamento de arquivos", zap.String("driver", st.Driver()))

	webhook := notificacao.NewWebhook(cfg.Notificacao.WebhookURL, cfg.Notificacao.Timeout, logg)

	var agendador *assinatura.Agendador
	if !cfg.Cobranca.Desabilitado {
		agendador, err = assinatura.NovoAgendador(database, cfg.Cobranca.CronVencimento, logg)
		if err != nil {
			logg.Fatal("Erro ao agendar varredura de faturas", zap.Error(err))
		}
		agendador.Start()
	}

	handler := routes.New(routes.Deps{
		DB:          database,
		Config:      cfg,
		Log:         logg,
		Keys:        keys,
		Storage:     st,
		Notificador: webhook,
		Metrics:     metrics.New(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("Servidor rodando", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Erro no servidor HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("desligando")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("Erro ao encerrar servidor", zap.Error(err))
	}
	if agendador != nil {
		select {
		case <-agendador.Stop().Done():
		case <-shutdownCtx.Done():
			logg.Warn("varredura de faturas ainda em execução no desligamento")
		}
	}
	webhook.Wait()
}

// autoMigrate cria as tabelas dos modelos; as de suporte vêm do schema bruto.
func autoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&usuario.Usuario{},
		&auth.RefreshToken{},
		&cliente.Cliente{},
		&processo.Processo{},
		&models.Oportunidade{},
		&models.Comentario{},
		&tarefa.Tarefa{},
		&agenda.Compromisso{},
		&template.Template{},
		&mensagem.Mensagem{},
		&plano.Plano{},
		&assinatura.Assinatura{},
		&assinatura.Fatura{},
	)
}
