// Package routes monta o roteador HTTP com todas as rotas da API.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jusconnect/api/internal/agenda"
	"github.com/jusconnect/api/internal/assinatura"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/cliente"
	"github.com/jusconnect/api/internal/comentario"
	"github.com/jusconnect/api/internal/config"
	"github.com/jusconnect/api/internal/dashboard"
	"github.com/jusconnect/api/internal/health"
	"github.com/jusconnect/api/internal/logger"
	"github.com/jusconnect/api/internal/mensagem"
	"github.com/jusconnect/api/internal/metrics"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/oportunidade"
	"github.com/jusconnect/api/internal/plano"
	"github.com/jusconnect/api/internal/processo"
	"github.com/jusconnect/api/internal/storage"
	"github.com/jusconnect/api/internal/suporte"
	"github.com/jusconnect/api/internal/tarefa"
	"github.com/jusconnect/api/internal/template"
	"github.com/jusconnect/api/internal/upload"
	"github.com/jusconnect/api/internal/usuario"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PrefixoArquivos é onde o driver local publica os uploads.
const PrefixoArquivos = "/arquivos/"

// Deps reúne o que os handlers precisam; montado em cmd/main.go.
type Deps struct {
	DB          *gorm.DB
	Config      *config.Config
	Log         *zap.Logger
	Keys        *auth.KeySet
	Storage     storage.Storage
	Notificador notificacao.Notificador
	Metrics     *metrics.Metrics
}

// New devolve o handler raiz já envolto em CORS.
func New(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notificador == nil {
		d.Notificador = notificacao.Nop{}
	}
	cfg := d.Config

	resolver := usuario.NewResolver(d.DB)
	authService := auth.NewService(d.DB, d.Keys, resolver, cfg.Auth.RefreshTTL, cfg.Auth.CookieSecure, d.Log)
	authn := auth.NewAuthenticator(d.Keys, auth.NewSupabaseValidator(cfg.Auth.SupabaseJWTSecret), resolver)
	limiter := auth.NewLoginLimiter(cfg.RateLimit.LoginPorMinuto, cfg.RateLimit.LoginBurst)

	usuarioHandler := usuario.NewHandler(d.DB, authService, d.Log)
	clienteHandler := cliente.NewHandler(d.DB)
	processoHandler := processo.NewHandler(d.DB)
	oportunidadeHandler := oportunidade.NewHandler(d.DB, d.Notificador, d.Log)
	comentarioHandler := comentario.NewHandler(d.DB)
	tarefaHandler := tarefa.NewHandler(d.DB)
	agendaHandler := agenda.NewHandler(d.DB)
	templateHandler := template.NewHandler(d.DB, d.Log)
	mensagemHandler := mensagem.NewHandler(d.DB, d.Notificador, d.Log)
	planoHandler := plano.NewHandler(plano.NewRepository(d.DB))
	assinaturaHandler := assinatura.NewHandler(d.DB, d.Log)
	suporteHandler := suporte.NewHandler(d.DB, d.Notificador, d.Log)
	dashboardHandler := dashboard.NewHandler(d.DB, d.Log)
	uploadHandler := upload.NewHandler(d.Storage, cfg.Storage.MaxBytes, d.Log)
	healthHandler := health.NewHandler(d.DB, d.Storage)

	r := mux.NewRouter()
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.Use(logger.Middleware(d.Log))

	// Públicas
	r.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)
	r.HandleFunc("/.well-known/jwks.json", d.Keys.JWKSHandler).Methods(http.MethodGet)
	r.HandleFunc("/usuarios", usuarioHandler.Criar).Methods(http.MethodPost)
	r.Handle("/auth/login", limiter.Middleware(http.HandlerFunc(usuarioHandler.Login))).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", authService.RefreshHTTPHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", authService.LogoutHTTPHandler).Methods(http.MethodPost)
	r.Handle("/planos", authn.Opcional(http.HandlerFunc(planoHandler.List))).Methods(http.MethodGet)
	r.Handle("/planos/{id:[0-9]+}", authn.Opcional(http.HandlerFunc(planoHandler.Get))).Methods(http.MethodGet)
	if local, ok := d.Storage.(*storage.Local); ok {
		r.PathPrefix(PrefixoArquivos).Handler(local.FileServer(PrefixoArquivos)).Methods(http.MethodGet, http.MethodHead)
	}

	// Protegidas
	api := r.NewRoute().Subrouter()
	api.Use(authn.Middleware)

	api.HandleFunc("/auth/me", usuarioHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/usuarios/{id}", usuarioHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/usuarios/{id}", usuarioHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/usuarios/{id}", usuarioHandler.Deletar).Methods(http.MethodDelete)
	api.HandleFunc("/usuarios/{id}/senha", usuarioHandler.AlterarSenha).Methods(http.MethodPatch)
	api.HandleFunc("/usuarios/{id}/oportunidades", oportunidadeHandler.ListarPorUsuario).Methods(http.MethodGet)

	api.HandleFunc("/clientes", clienteHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/clientes", clienteHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/clientes/{id}", clienteHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/clientes/{id}", clienteHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/clientes/{id}", clienteHandler.Deletar).Methods(http.MethodDelete)
	api.HandleFunc("/clientes/{id}/processos", processoHandler.ListarPorCliente).Methods(http.MethodGet)

	api.HandleFunc("/processos", processoHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/processos", processoHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/processos/{id}", processoHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/processos/{id}", processoHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/processos/{id}", processoHandler.Deletar).Methods(http.MethodDelete)

	api.HandleFunc("/oportunidades", oportunidadeHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/oportunidades", oportunidadeHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/oportunidades/{id}", oportunidadeHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/oportunidades/{id}", oportunidadeHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/oportunidades/{id}", oportunidadeHandler.Deletar).Methods(http.MethodDelete)
	api.HandleFunc("/oportunidades/{id}/status", oportunidadeHandler.AtualizarStatus).Methods(http.MethodPatch)
	api.HandleFunc("/oportunidades/{id}/documentos", oportunidadeHandler.AdicionarDocumentos).Methods(http.MethodPost)
	api.HandleFunc("/oportunidades/{id}/documentos/{idx}", oportunidadeHandler.RemoverDocumento).Methods(http.MethodDelete)
	api.HandleFunc("/oportunidades/{id}/comentarios", comentarioHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/oportunidades/{id}/comentarios", comentarioHandler.ListarPorOportunidade).Methods(http.MethodGet)
	api.HandleFunc("/oportunidades/{id}/tarefas", tarefaHandler.CriarNaOportunidade).Methods(http.MethodPost)
	api.HandleFunc("/oportunidades/{id}/tarefas", tarefaHandler.ListarPorOportunidade).Methods(http.MethodGet)
	api.HandleFunc("/comentarios/{id}", comentarioHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/comentarios/{id}", comentarioHandler.Remover).Methods(http.MethodDelete)

	api.HandleFunc("/tarefas", tarefaHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/tarefas", tarefaHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/tarefas/{id}", tarefaHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/tarefas/{id}", tarefaHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/tarefas/{id}", tarefaHandler.Deletar).Methods(http.MethodDelete)
	api.HandleFunc("/tarefas/{id}/concluir", tarefaHandler.Concluir).Methods(http.MethodPatch)

	api.HandleFunc("/agenda", agendaHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/agenda", agendaHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/agenda/{id}", agendaHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/agenda/{id}", agendaHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/agenda/{id}", agendaHandler.Deletar).Methods(http.MethodDelete)

	api.HandleFunc("/templates", templateHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/templates", templateHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", templateHandler.BuscarPorID).Methods(http.MethodGet)
	api.HandleFunc("/templates/{id}", templateHandler.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/templates/{id}", templateHandler.Deletar).Methods(http.MethodDelete)
	api.HandleFunc("/templates/{id}/renderizar", templateHandler.Renderizar).Methods(http.MethodPost)

	api.HandleFunc("/mensagens", mensagemHandler.Enviar).Methods(http.MethodPost)
	api.HandleFunc("/mensagens", mensagemHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/mensagens/nao-lidas", mensagemHandler.ContarNaoLidas).Methods(http.MethodGet)
	api.HandleFunc("/mensagens/{id}/lida", mensagemHandler.MarcarLida).Methods(http.MethodPatch)

	api.HandleFunc("/assinaturas", assinaturaHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/assinaturas", assinaturaHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/assinaturas/atual", assinaturaHandler.Atual).Methods(http.MethodGet)
	api.HandleFunc("/assinaturas/{id}/cancelar", assinaturaHandler.Cancelar).Methods(http.MethodPatch)
	api.HandleFunc("/assinaturas/{id}/faturas", assinaturaHandler.ListFaturas).Methods(http.MethodGet)

	api.HandleFunc("/suporte", suporteHandler.Criar).Methods(http.MethodPost)
	api.HandleFunc("/suporte", suporteHandler.Listar).Methods(http.MethodGet)
	api.HandleFunc("/suporte/{id}", suporteHandler.BuscarPorID).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", dashboardHandler.Resumo).Methods(http.MethodGet)
	api.HandleFunc("/uploads", uploadHandler.Enviar).Methods(http.MethodPost)

	// Administrativas
	admin := api.NewRoute().Subrouter()
	admin.Use(auth.RequireAdmin)

	admin.HandleFunc("/usuarios", usuarioHandler.Listar).Methods(http.MethodGet)
	admin.HandleFunc("/planos", planoHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/planos/{id}", planoHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/planos/{id}", planoHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/faturas/{id}/status", assinaturaHandler.UpdateStatusFatura).Methods(http.MethodPatch)
	admin.HandleFunc("/suporte/{id}", suporteHandler.Atualizar).Methods(http.MethodPatch)
	admin.HandleFunc("/admin/dashboard", dashboardHandler.ResumoAdmin).Methods(http.MethodGet)
	admin.HandleFunc("/uploads", uploadHandler.Remover).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
