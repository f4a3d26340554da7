package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/papertext/backend/internal/queue"
	mid "github.com/OFFIS-RIT/papertext/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/papertext/backend/pkg/annotation"
	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
	"github.com/OFFIS-RIT/papertext/backend/pkg/directory"
	"github.com/OFFIS-RIT/papertext/backend/pkg/docs"
	"github.com/OFFIS-RIT/papertext/backend/pkg/store/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	masterKey = "master-secret"
	jwtSecret = "jwt-secret"
)

const oneWord = `<text><sentence><clause><word idx="0" syntax_parent_idx="0" lemma="hello"/></clause></sentence></text>`

type stubAnnotator struct{}

func (stubAnnotator) Annotate(ctx context.Context, text string) (*annotation.Tree, error) {
	return annotation.ParseXML(strings.NewReader(oneWord))
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	p.keys = append(p.keys, key)
	return nil
}

func newTestServer(t *testing.T) (*echo.Echo, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()

	s := memory.New()
	syncer := directory.NewSynchronizer(&directory.Static{
		Organizations: []common.Organization{{ID: "org1", Name: "Acme"}},
		Users:         []common.User{{ID: "u1", Name: "Ann", MemberOf: "org1"}},
	}, s)
	require.NoError(t, docs.Bootstrap(ctx, docs.BootstrapParams{Storage: s, Syncer: syncer}))

	pub := &recordingPublisher{}
	e := New(&mid.App{
		Docs:         docs.NewRegistry(docs.NewRegistryParams{Storage: s, Annotator: stubAnnotator{}, Syncer: syncer}),
		Queue:        pub,
		MasterAPIKey: masterKey,
		MasterUserID: "u1",
		Keyfunc: func(token *jwt.Token) (any, error) {
			return []byte(jwtSecret), nil
		},
	})
	return e, pub
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthAndMetrics(t *testing.T) {
	e, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/metrics", "", "").Code)
}

func TestAuthRequired(t *testing.T) {
	e, _ := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/corpora", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/corpora", "wrong", "").Code)
}

func TestJWTAuth(t *testing.T) {
	e, _ := newTestServer(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1"}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/corpora", token, `{"corp_id":"c1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "org1", "type": "org"}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	rec = do(e, http.MethodPost, "/api/corpora", token, `{"corp_id":"c2"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCorpusRoutes(t *testing.T) {
	e, pub := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/corpora", masterKey, `{"corp_id":"c1","name":"First"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{queue.TopicCorpusCreated}, pub.keys)

	rec = do(e, http.MethodPost, "/api/corpora", masterKey, `{"corp_id":"c1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorBody(t, rec)["eng"], "already exists")
	assert.NotEmpty(t, errorBody(t, rec)["rus"])

	rec = do(e, http.MethodPost, "/api/corpora", masterKey, `{"name":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/corpora", masterKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var corpora []common.MinimalCorpus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &corpora))
	require.Len(t, corpora, 1)
	assert.Equal(t, "c1", corpora[0].ID)

	rec = do(e, http.MethodGet, "/api/corpora/c1", masterKey, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(e, http.MethodGet, "/api/corpora/nope", masterKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusNotImplemented, do(e, http.MethodPatch, "/api/corpora/c1", masterKey, "{}").Code)
	assert.Equal(t, http.StatusNotImplemented, do(e, http.MethodDelete, "/api/corpora/c1", masterKey, "").Code)
}

func TestDocumentRoutes(t *testing.T) {
	e, pub := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/documents", masterKey, `{"doc_id":"d1","text":"hello","tags":["x"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc common.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "u1", doc.Author)
	assert.Equal(t, common.RootCorpusID, doc.ParentCorpID)
	assert.Equal(t, []string{queue.TopicDocumentCreated}, pub.keys)

	rec = do(e, http.MethodPost, "/api/documents", masterKey, `{"doc_id":"d1","text":"hello"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/documents", masterKey, `{"doc_id":"d2","text":"hello","parent_corp_id":"nope"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/documents", masterKey, `{"doc_id":"d3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/documents", masterKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []common.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Text)

	rec = do(e, http.MethodGet, "/api/documents/d1", masterKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "hello", doc.Text)

	rec = do(e, http.MethodGet, "/api/documents/nope", masterKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/documents?author=u1", masterKey, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "option `author` is currently unsupported", errorBody(t, rec)["eng"])

	rec = do(e, http.MethodGet, "/api/documents?created_before=yesterday", masterKey, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotImplemented, do(e, http.MethodPatch, "/api/documents/d1", masterKey, "{}").Code)
	assert.Equal(t, http.StatusNotImplemented, do(e, http.MethodDelete, "/api/documents/d1", masterKey, "").Code)
}

func TestAsyncDocumentIsQueued(t *testing.T) {
	e, pub := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/documents?async=true", masterKey, `{"text":"hello"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		DocID string `json:"doc_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.DocID)
	assert.Equal(t, []string{queue.IngestQueue}, pub.keys)

	rec = do(e, http.MethodGet, "/api/documents", masterKey, "")
	assert.Equal(t, "[]\n", rec.Body.String())
}
