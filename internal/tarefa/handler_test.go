package tarefa

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

var agora = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var colunasTarefa = []string{"id", "created_at", "updated_at", "deleted_at", "titulo", "descricao", "oportunidade_id", "processo_id", "responsavel_id", "prioridade", "status", "prazo", "concluida_em", "usuario_id"}

func linhaTarefa(id, dono, responsavel uint, status string, concluidaEm any) *sqlmock.Rows {
	return sqlmock.NewRows(colunasTarefa).
		AddRow(id, agora, agora, nil, "Protocolar petição", "", nil, nil, responsavel, PrioridadeAlta, status, agora.Add(-time.Hour), concluidaEm, dono)
}

func novoRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	db, mock := dbtest.New(t)
	h := NewHandler(db)
	h.now = func() time.Time { return agora }

	r := mux.NewRouter()
	r.HandleFunc("/tarefas", h.Criar).Methods(http.MethodPost)
	r.HandleFunc("/tarefas", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/tarefas/{id}", h.BuscarPorID).Methods(http.MethodGet)
	r.HandleFunc("/tarefas/{id}", h.Atualizar).Methods(http.MethodPut)
	r.HandleFunc("/tarefas/{id}", h.Deletar).Methods(http.MethodDelete)
	r.HandleFunc("/tarefas/{id}/concluir", h.Concluir).Methods(http.MethodPatch)
	r.HandleFunc("/oportunidades/{id}/tarefas", h.CriarNaOportunidade).Methods(http.MethodPost)
	r.HandleFunc("/oportunidades/{id}/tarefas", h.ListarPorOportunidade).Methods(http.MethodGet)
	return r, mock
}

func do(r http.Handler, method, target, body string, userID uint, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.WithUsuario(req.Context(), userID, admin))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDefinirStatus(t *testing.T) {
	var tf Tarefa
	tf.definirStatus(StatusConcluida, agora)
	require.NotNil(t, tf.ConcluidaEm)
	assert.Equal(t, agora, *tf.ConcluidaEm)

	// reconcluir não altera a data original
	tf.definirStatus(StatusConcluida, agora.Add(time.Hour))
	assert.Equal(t, agora, *tf.ConcluidaEm)

	tf.definirStatus(StatusEmAndamento, agora)
	assert.Nil(t, tf.ConcluidaEm)
	assert.Equal(t, StatusEmAndamento, tf.Status)
}

func TestAtrasada(t *testing.T) {
	ontem := agora.Add(-24 * time.Hour)
	amanha := agora.Add(24 * time.Hour)
	assert.True(t, Tarefa{Status: StatusPendente, Prazo: &ontem}.Atrasada(agora))
	assert.False(t, Tarefa{Status: StatusConcluida, Prazo: &ontem}.Atrasada(agora))
	assert.False(t, Tarefa{Status: StatusPendente, Prazo: &amanha}.Atrasada(agora))
	assert.False(t, Tarefa{Status: StatusPendente}.Atrasada(agora))
}

func TestCriar_Padroes(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tarefas"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	rec := do(r, http.MethodPost, "/tarefas", `{"titulo":"Ligar para o cliente"}`, 3, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got Tarefa
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, PrioridadeMedia, got.Prioridade)
	assert.Equal(t, StatusPendente, got.Status)
	assert.Equal(t, uint(3), got.ResponsavelID)
	assert.Nil(t, got.ConcluidaEm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCriar_JaConcluida(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tarefas"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	rec := do(r, http.MethodPost, "/tarefas", `{"titulo":"Arquivar","status":"concluida","responsavelId":8}`, 3, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got Tarefa
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.ConcluidaEm)
	assert.Equal(t, uint(8), got.ResponsavelID)
}

func TestCriar_Validacao(t *testing.T) {
	r, _ := novoRouter(t)
	for _, body := range []string{
		`{"titulo":" "}`,
		`{"titulo":"x","prioridade":"urgente"}`,
		`{"titulo":"x","status":"feita"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/tarefas", body, 3, false).Code, body)
	}
}

func TestCriarNaOportunidade(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "documentos", "usuario_id"}).AddRow(5, "[]", 9))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/oportunidades/5/tarefas", `{"titulo":"x"}`, 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "oportunidades"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "documentos", "usuario_id"}).AddRow(5, "[]", 3))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tarefas"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()
	rec := do(r, http.MethodPost, "/oportunidades/5/tarefas", `{"titulo":"Enviar proposta"}`, 3, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"oportunidadeId":5`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCriar_ProcessoDeOutroUsuario(t *testing.T) {
	r, mock := novoRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "processos"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "numero_cnj", "usuario_id"}).AddRow(4, "0001234-71.2024.8.26.0100", 9))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/tarefas", `{"titulo":"x","processoId":4}`, 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListar_Atrasadas(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "tarefas" WHERE .*usuario_id = \$1 OR responsavel_id = \$2.* AND .*status <> \$3 AND prazo IS NOT NULL AND prazo < \$4`).
		WithArgs(3, 3, StatusConcluida, agora).
		WillReturnRows(linhaTarefa(1, 3, 3, StatusPendente, nil))

	rec := do(r, http.MethodGet, "/tarefas?atrasadas=true", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []Tarefa
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConcluir(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(linhaTarefa(1, 9, 3, StatusPendente, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tarefas"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// o responsável também pode concluir
	rec := do(r, http.MethodPatch, "/tarefas/1/concluir", "", 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Tarefa
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, StatusConcluida, got.Status)
	require.NotNil(t, got.ConcluidaEm)
	assert.True(t, agora.Equal(*got.ConcluidaEm))

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(linhaTarefa(1, 9, 3, StatusConcluida, agora))
	assert.Equal(t, http.StatusOK, do(r, http.MethodPatch, "/tarefas/1/concluir", "", 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(linhaTarefa(1, 9, 8, StatusPendente, nil))
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPatch, "/tarefas/1/concluir", "", 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtualizar_ReabrirLimpaConclusao(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(linhaTarefa(1, 3, 3, StatusConcluida, agora))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tarefas"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := do(r, http.MethodPut, "/tarefas/1", `{"titulo":"Protocolar petição","status":"em_andamento"}`, 3, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "concluidaEm")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletar(t *testing.T) {
	r, mock := novoRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(sqlmock.NewRows(colunasTarefa))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/tarefas/1", "", 3, false).Code)

	mock.ExpectQuery(`SELECT \* FROM "tarefas"`).WillReturnRows(linhaTarefa(1, 3, 3, StatusPendente, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tarefas" SET "deleted_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/tarefas/1", "", 3, false).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
