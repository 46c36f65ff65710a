package assinatura

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/jusconnect/api/internal/auth"
	"github.com/jusconnect/api/internal/utils/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var agora = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

var (
	colunasPlano      = []string{"id", "nome", "valor_mensal", "limite_usuarios", "ativo"}
	colunasAssinatura = []string{"id", "usuario_id", "plano_id", "status", "data_inicio", "qtd_faturas", "total_pago", "total_receber", "cancelada_em", "created_at", "updated_at", "deleted_at"}
	colunasFatura     = []string{"id", "assinatura_id", "valor", "data_vencimento", "status", "data_pagamento", "comprovante", "created_at", "updated_at"}
)

func linhaAssinatura(id, usuario uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows(colunasAssinatura).
		AddRow(id, usuario, 1, status, agora, 3, 0.0, 300.0, nil, agora, agora, nil)
}

func linhaFatura(id uint, status string) *sqlmock.Rows {
	return sqlmock.NewRows(colunasFatura).
		AddRow(id, 10, 100.0, agora, status, nil, "", agora, agora)
}

func novoRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	db, mock := dbtest.New(t)
	h := NewHandler(db, nil)
	h.now = func() time.Time { return agora }

	r := mux.NewRouter()
	r.HandleFunc("/assinaturas", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/assinaturas", h.List).Methods(http.MethodGet)
	r.HandleFunc("/assinaturas/atual", h.Atual).Methods(http.MethodGet)
	r.HandleFunc("/assinaturas/{id}/cancelar", h.Cancelar).Methods(http.MethodPatch)
	r.HandleFunc("/assinaturas/{id}/faturas", h.ListFaturas).Methods(http.MethodGet)
	r.HandleFunc("/faturas/{id}/status", h.UpdateStatusFatura).Methods(http.MethodPatch)
	return r, mock
}

func do(r http.Handler, method, target, body string, userID uint, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.WithUsuario(req.Context(), userID, admin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreate_GeraFaturas(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "planos"`).
		WillReturnRows(sqlmock.NewRows(colunasPlano).AddRow(1, "Escritório", 100.0, 5, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "assinaturas" WHERE .*usuario_id = \$1 AND status IN \(\$2,\$3\)`).
		WithArgs(3, StatusAtiva, StatusInadimplente).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "assinaturas"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(`INSERT INTO "faturas"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(CASE WHEN status = \$1 THEN valor END\), 0\) AS pago`).
		WillReturnRows(sqlmock.NewRows([]string{"pago", "receber"}).AddRow(0.0, 300.0))
	mock.ExpectExec(`UPDATE "assinaturas" SET "total_pago"=\$1,"total_receber"=\$2`).
		WithArgs(0.0, 300.0, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := do(r, http.MethodPost, "/assinaturas", `{"planoId":1,"qtdFaturas":3,"dataInicio":"2025-01-31T15:00:00Z"}`, 3, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got Assinatura
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusAtiva, got.Status)
	assert.Equal(t, 300.0, got.TotalReceber)
	require.Len(t, got.Faturas, 3)
	assert.Equal(t, "2025-02-28", got.Faturas[1].DataVencimento.Format("2006-01-02"))
	require.NotNil(t, got.Plano)
	assert.Equal(t, "Escritório", got.Plano.Nome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AssinaturaVigente(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "planos"`).
		WillReturnRows(sqlmock.NewRows(colunasPlano).AddRow(1, "Escritório", 100.0, 5, true))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "assinaturas"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/assinaturas", `{"planoId":1}`, 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Recusas(t *testing.T) {
	r, mock := novoRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/assinaturas", `{}`, 3, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/assinaturas", `{"planoId":1,"qtdFaturas":61}`, 3, false).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/assinaturas", `{"planoId":1,"usuarioId":8}`, 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "planos"`).
		WillReturnRows(sqlmock.NewRows(colunasPlano).AddRow(1, "Antigo", 50.0, 1, false))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/assinaturas", `{"planoId":1}`, 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtual(t *testing.T) {
	r, mock := novoRouter(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT \* FROM "assinaturas" WHERE .*usuario_id = \$1 AND status IN`).
		WillReturnRows(linhaAssinatura(10, 3, StatusInadimplente))
	mock.ExpectQuery(`SELECT \* FROM "faturas" WHERE "faturas"."assinatura_id" = \$1 ORDER BY data_vencimento ASC`).
		WillReturnRows(linhaFatura(1, FaturaVencida))
	mock.ExpectQuery(`SELECT \* FROM "planos" WHERE "planos"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows(colunasPlano).AddRow(1, "Escritório", 100.0, 5, true))

	rec := do(r, http.MethodGet, "/assinaturas/atual", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Assinatura
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusInadimplente, got.Status)
	assert.Len(t, got.Faturas, 1)
	assert.NotNil(t, got.Plano)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtual_SemAssinatura(t *testing.T) {
	r, mock := novoRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(sqlmock.NewRows(colunasAssinatura))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/assinaturas/atual", "", 3, false).Code)
}

func TestCancelar(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(linhaAssinatura(10, 3, StatusAtiva))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "assinaturas" SET "cancelada_em"=\$1,"status"=\$2`).
		WithArgs(agora, StatusCancelada, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "faturas" SET "status"=\$1`).
		WithArgs(FaturaCancelada, sqlmock.AnyArg(), 10, FaturaPendente).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"pago", "receber"}).AddRow(100.0, 0.0))
	mock.ExpectExec(`UPDATE "assinaturas" SET "total_pago"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(linhaAssinatura(10, 3, StatusCancelada))

	rec := do(r, http.MethodPatch, "/assinaturas/10/cancelar", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"Cancelada"`)

	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(linhaAssinatura(10, 3, StatusCancelada))
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/assinaturas/10/cancelar", "", 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(linhaAssinatura(10, 9, StatusAtiva))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPatch, "/assinaturas/10/cancelar", "", 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFaturas(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "assinaturas"`).WillReturnRows(linhaAssinatura(10, 3, StatusAtiva))
	mock.ExpectQuery(`SELECT \* FROM "faturas" WHERE assinatura_id = \$1 ORDER BY data_vencimento ASC`).
		WithArgs(10).
		WillReturnRows(linhaFatura(1, FaturaPaga).AddRow(2, 10, 100.0, agora.AddDate(0, 1, 0), FaturaPendente, nil, "", agora, agora))

	rec := do(r, http.MethodGet, "/assinaturas/10/faturas", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []Fatura
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusFatura_Paga(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "faturas"`).WillReturnRows(linhaFatura(1, FaturaVencida))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "faturas" SET "comprovante"=\$1,"data_pagamento"=\$2,"status"=\$3`).
		WithArgs("https://files/rec.pdf", agora, FaturaPaga, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"pago", "receber"}).AddRow(100.0, 200.0))
	mock.ExpectExec(`UPDATE "assinaturas" SET "total_pago"=\$1,"total_receber"=\$2`).
		WithArgs(100.0, 200.0, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "assinaturas" SET "status"=\$1.*NOT EXISTS`).
		WithArgs(StatusAtiva, sqlmock.AnyArg(), 10, StatusInadimplente, FaturaVencida).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "faturas"`).
		WillReturnRows(sqlmock.NewRows(colunasFatura).AddRow(1, 10, 100.0, agora, FaturaPaga, agora, "https://files/rec.pdf", agora, agora))

	rec := do(r, http.MethodPatch, "/faturas/1/status", `{"status":"Paga","comprovante":"https://files/rec.pdf"}`, 1, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Fatura
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, FaturaPaga, got.Status)
	assert.NotNil(t, got.DataPagamento)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusFatura_NaoRebaixaPaga(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "faturas"`).WillReturnRows(linhaFatura(1, FaturaPaga))
	rec := do(r, http.MethodPatch, "/faturas/1/status", `{"status":"Pendente"}`, 1, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "já paga")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPatch, "/faturas/1/status", `{"status":"Pago"}`, 1, true).Code)

	mock.ExpectQuery(`SELECT \* FROM "faturas"`).WillReturnRows(sqlmock.NewRows(colunasFatura))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/faturas/2/status", `{"status":"Paga"}`, 1, true).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusFatura_PagaDeNovoMantemPagamento(t *testing.T) {
	r, mock := novoRouter(t)
	pagaEm := agora.AddDate(0, -1, 0)

	mock.ExpectQuery(`SELECT \* FROM "faturas"`).
		WillReturnRows(sqlmock.NewRows(colunasFatura).AddRow(1, 10, 100.0, agora, FaturaPaga, pagaEm, "https://files/rec.pdf", agora, agora))

	rec := do(r, http.MethodPatch, "/faturas/1/status", `{"status":"Paga","comprovante":"https://files/outro.pdf"}`, 1, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Fatura
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.DataPagamento)
	assert.True(t, pagaEm.Equal(*got.DataPagamento))
	assert.Equal(t, "https://files/rec.pdf", got.Comprovante)
	assert.NoError(t, mock.ExpectationsWereMet())
}
