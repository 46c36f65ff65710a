package oportunidade

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/models"
	"github.com/jusconnect/api/internal/notificacao"
	"github.com/jusconnect/api/internal/utils/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var colunasOportunidade = []string{"id", "created_at", "updated_at", "deleted_at", "titulo", "cliente_id", "nome_contato", "email_contato", "telefone_contato", "area", "origem", "status", "valor_estimado", "documentos", "fechada_em", "usuario_id"}

func linhaOportunidade(id, dono uint, status, docs string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(colunasOportunidade).
		AddRow(id, now, now, nil, "Inventário família Souza", nil, "Carlos", "carlos@x.com", "", "Sucessões", "Indicação", status, 8000.0, docs, nil, dono)
}

type eventos struct {
	mu    sync.Mutex
	lista []string
	dados []any
}

func (e *eventos) Notificar(evento string, dados any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lista = append(e.lista, evento)
	e.dados = append(e.dados, dados)
}

func novoRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock, *eventos, *Handler) {
	db, mock := dbtest.New(t)
	ev := &eventos{}
	h := NewHandler(db, ev, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	r := mux.NewRouter()
	r.HandleFunc("/oportunidades", h.Criar).Methods(http.MethodPost)
	r.HandleFunc("/oportunidades", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/oportunidades/{id}", h.BuscarPorID).Methods(http.MethodGet)
	r.HandleFunc("/oportunidades/{id}", h.Atualizar).Methods(http.MethodPut)
	r.HandleFunc("/oportunidades/{id}", h.Deletar).Methods(http.MethodDelete)
	r.HandleFunc("/oportunidades/{id}/status", h.AtualizarStatus).Methods(http.MethodPatch)
	r.HandleFunc("/oportunidades/{id}/documentos", h.AdicionarDocumentos).Methods(http.MethodPost)
	r.HandleFunc("/oportunidades/{id}/documentos/{idx}", h.RemoverDocumento).Methods(http.MethodDelete)
	r.HandleFunc("/usuarios/{id}/oportunidades", h.ListarPorUsuario).Methods(http.MethodGet)
	return r, mock, ev, h
}

func do(r http.Handler, method, target, body string, userID uint, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.WithUsuario(req.Context(), userID, admin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCriar(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "oportunidades"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	rec := do(r, http.MethodPost, "/oportunidades", `{"titulo":"Revisional de aluguel","documentos":[" https://x/a.pdf ",""]}`, 3, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.Oportunidade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusNovo, got.Status)
	assert.Equal(t, uint(3), got.UsuarioID)
	assert.Equal(t, models.Documentos{"https://x/a.pdf"}, got.Documentos)
	assert.Nil(t, got.FechadaEm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCriar_Validacao(t *testing.T) {
	r, _, _, _ := novoRouter(t)
	for _, body := range []string{
		`{"titulo":""}`,
		`{"titulo":"x","status":"Fechada"}`,
		`{"titulo":"x","emailContato":"sem-arroba"}`,
		`{"titulo":"x","valorEstimado":-1}`,
	} {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/oportunidades", body, 3, false).Code, body)
	}
}

func TestBuscarPorID_ComComentarios(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `[]`))
	mock.ExpectQuery(`SELECT \* FROM "comentarios" WHERE "comentarios"."oportunidade_id" = \$1 AND "comentarios"."deleted_at" IS NULL ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "texto", "oportunidade_id", "usuario_id", "system"}).
			AddRow(1, "Cliente enviou documentos", 5, 3, false))

	rec := do(r, http.MethodGet, "/oportunidades/5", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Cliente enviou documentos")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuscarPorID_OutroUsuario(t *testing.T) {
	r, mock, _, _ := novoRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 9, models.StatusNovo, `[]`))
	mock.ExpectQuery(`SELECT \* FROM "comentarios"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/oportunidades/5", "", 3, false).Code)
}

func TestAtualizarStatus_GanhaRegistraComentarioENotifica(t *testing.T) {
	r, mock, ev, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusPropostaEnviada, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades" SET "fechada_em"=\$1,"status"=\$2`).
		WithArgs(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), models.StatusGanha, sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "comentarios"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(30))
	mock.ExpectCommit()

	rec := do(r, http.MethodPatch, "/oportunidades/5/status", `{"status":"Ganha"}`, 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.Oportunidade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusGanha, got.Status)
	require.NotNil(t, got.FechadaEm)

	assert.Equal(t, []string{notificacao.EventoOportunidadeGanha}, ev.lista)
	assert.Equal(t, uint(5), ev.dados[0].(eventoGanha).ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtualizarStatus_ReabrirLimpaFechamento(t *testing.T) {
	r, mock, ev, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusPerdida, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades" SET "fechada_em"=\$1,"status"=\$2`).
		WithArgs(nil, models.StatusEmNegociacao, sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "comentarios"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectCommit()

	rec := do(r, http.MethodPatch, "/oportunidades/5/status", `{"status":"Em Negociação"}`, 1, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "fechadaEm")
	assert.Empty(t, ev.lista)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtualizarStatus_Recusas(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `[]`))
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/oportunidades/5/status", `{"status":"Arquivada"}`, 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `[]`))
	assert.Equal(t, http.StatusOK, do(r, http.MethodPatch, "/oportunidades/5/status", `{"status":"Novo"}`, 3, false).Code, "mesmo status não gera comentário")

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(sqlmock.NewRows(colunasOportunidade))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/oportunidades/6/status", `{"status":"Ganha"}`, 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentos(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `["a"]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades" SET "documentos"=\$1`).WithArgs(`["a","b","c"]`, sqlmock.AnyArg(), 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	rec := do(r, http.MethodPost, "/oportunidades/5/documentos", `{"urls":["b"," c "]}`, 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"documentos":["a","b","c"]`)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `["a","b","c"]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades" SET "documentos"=\$1`).WithArgs(`["a","c"]`, sqlmock.AnyArg(), 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	rec = do(r, http.MethodDelete, "/oportunidades/5/documentos/1", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"documentos":["a","c"]`)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `["a"]`))
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/oportunidades/5/documentos/3", "", 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `["a"]`))
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/oportunidades/5/documentos", `{"urls":[" "]}`, 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListar(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades" WHERE usuario_id = \$1 AND status = \$2`).
		WithArgs(3, models.StatusGanha).
		WillReturnRows(linhaOportunidade(5, 3, models.StatusGanha, `[]`))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/oportunidades?status=Ganha", "", 3, false).Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/usuarios/9/oportunidades", "", 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades" WHERE usuario_id = \$1`).WithArgs(9).
		WillReturnRows(linhaOportunidade(5, 9, models.StatusNovo, `[]`))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/usuarios/9/oportunidades", "", 1, true).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtualizarEDeletar(t *testing.T) {
	r, mock, _, _ := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusGanha, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	rec := do(r, http.MethodPut, "/oportunidades/5", `{"titulo":"Inventário","status":"Novo","valorEstimado":9000}`, 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"Ganha"`, "PUT não altera o status")
	assert.Contains(t, rec.Body.String(), `"valorEstimado":9000`)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).WillReturnRows(linhaOportunidade(5, 3, models.StatusNovo, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "oportunidades" SET "deleted_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/oportunidades/5", "", 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
