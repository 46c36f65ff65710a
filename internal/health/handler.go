package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jusconnect/api/internal/storage"
	"github.com/jusconnect/api/internal/utils"
	"github.com/jusconnect/api/internal/utils/db"
	"gorm.io/gorm"
)

type Resposta struct {
	Status        string `json:"status"`
	Banco         string `json:"banco"`
	Armazenamento string `json:"armazenamento"`
}

type Handler struct {
	Ping    func(ctx context.Context) error
	Driver  string
	Timeout time.Duration
}

func NewHandler(database *gorm.DB, st storage.Storage) *Handler {
	return &Handler{
		Ping:    func(ctx context.Context) error { return db.Ping(ctx, database) },
		Driver:  st.Driver(),
		Timeout: 2 * time.Second,
	}
}

// GET /health
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	res := Resposta{Status: "ok", Banco: "ok", Armazenamento: h.Driver}
	if h.Ping(ctx) != nil {
		res.Status = "degradado"
		res.Banco = "indisponível"
		utils.WriteJSON(w, http.StatusServiceUnavailable, res)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
