package logger

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatusRecorder guarda o status escrito pelo handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (s *StatusRecorder) WriteHeader(code int) {
	s.Status = code
	s.ResponseWriter.WriteHeader(code)
}

// RoutePath devolve o template da rota do mux ("/clientes/{id}") ou o path cru.
func RoutePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// Middleware registra uma linha por requisição.
func Middleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", RoutePath(r)),
				zap.Int("status", rec.Status),
				zap.Duration("duration", time.Since(start)),
			}
			if rec.Status >= http.StatusInternalServerError {
				log.Error("requisição com erro", fields...)
				return
			}
			log.Info("requisição", fields...)
		})
	}
}
