package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jusconnect/api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNovaChave(t *testing.T) {
	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	chave := NovaChave("Petição Inicial.PDF", now)
	assert.Regexp(t, regexp.MustCompile(`^2024/03/[0-9a-f-]{36}\.pdf$`), chave)
	assert.NoError(t, ValidarChave(chave))

	assert.Regexp(t, `^2024/03/[0-9a-f-]{36}$`, NovaChave("sem-extensao", now))
	assert.NotEqual(t, NovaChave("a.txt", now), NovaChave("a.txt", now))
}

func TestValidarChave(t *testing.T) {
	for _, chave := range []string{"", "/etc/passwd", "../fora.txt", "2024/../../x", "a//b", "a\\b", "."} {
		assert.ErrorIs(t, ValidarChave(chave), ErrChaveInvalida, chave)
	}
	assert.NoError(t, ValidarChave("2024/01/abc.pdf"))
}

func TestNew_Drivers(t *testing.T) {
	st, err := New(context.Background(), config.StorageConfig{Driver: config.StorageDisabled})
	require.NoError(t, err)
	assert.Equal(t, config.StorageDisabled, st.Driver())

	st, err = New(context.Background(), config.StorageConfig{Driver: config.StorageLocal, Root: t.TempDir(), PublicURL: "/arquivos"})
	require.NoError(t, err)
	assert.Equal(t, config.StorageLocal, st.Driver())

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var st Storage = Disabled{}
	_, err := st.Save(context.Background(), "a.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrArmazenamentoDesabilitado)
	assert.ErrorIs(t, st.Delete(context.Background(), "2024/01/a.txt"), ErrArmazenamentoDesabilitado)
	assert.Equal(t, "armazenamento de arquivos desabilitado", ErrArmazenamentoDesabilitado.Error())
}

func TestLocal_SaveServeDelete(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/arquivos/")
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }

	arq, err := l.Save(context.Background(), "contrato.txt", "text/plain", strings.NewReader("conteúdo"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(arq.Chave, "2025/11/"))
	assert.Equal(t, "/arquivos/"+arq.Chave, arq.URL)
	assert.Equal(t, int64(len("conteúdo")), arq.Tamanho)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(arq.Chave)))
	require.NoError(t, err)
	assert.Equal(t, "conteúdo", string(data))

	srv := l.FileServer("/arquivos/")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/arquivos/"+arq.Chave, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conteúdo", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/arquivos/2025/11/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, l.Delete(context.Background(), arq.Chave))
	assert.ErrorIs(t, l.Delete(context.Background(), arq.Chave), ErrArquivoNaoEncontrado)
	assert.ErrorIs(t, l.Delete(context.Background(), "../x"), ErrChaveInvalida)
}

type fakeS3 struct {
	put    *s3.PutObjectInput
	body   string
	delKey string
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.delKey = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveAndDelete(t *testing.T) {
	fake := &fakeS3{}
	st := NewS3(fake, "jus-docs", "sa-east-1", "")

	arq, err := st.Save(context.Background(), "laudo.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "jus-docs", aws.ToString(fake.put.Bucket))
	assert.Equal(t, arq.Chave, aws.ToString(fake.put.Key))
	assert.Equal(t, "application/pdf", aws.ToString(fake.put.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(fake.put.ContentLength))
	assert.Equal(t, "%PDF", fake.body)
	assert.Equal(t, "https://jus-docs.s3.sa-east-1.amazonaws.com/"+arq.Chave, arq.URL)

	require.NoError(t, st.Delete(context.Background(), arq.Chave))
	assert.Equal(t, arq.Chave, fake.delKey)

	cdn := NewS3(fake, "jus-docs", "sa-east-1", "https://cdn.jus.com.br")
	assert.Equal(t, "https://cdn.jus.com.br/2024/01/a.pdf", cdn.URL("2024/01/a.pdf"))
}

func TestS3_Errors(t *testing.T) {
	st := NewS3(&fakeS3{err: errors.New("AccessDenied")}, "b", "us-east-1", "")
	_, err := st.Save(context.Background(), "a.txt", "", strings.NewReader("x"))
	assert.ErrorContains(t, err, "AccessDenied")
	assert.ErrorIs(t, st.Delete(context.Background(), "/abs"), ErrChaveInvalida)
}
