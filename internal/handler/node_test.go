package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/auth"
	"docvault/internal/blobstore"
	"docvault/internal/domain/models"
	"docvault/internal/middleware"
	"docvault/internal/repository/memory"
	"docvault/internal/service"
)

type nopQueue struct{}

func (nopQueue) Submit(nodeID string) error { return nil }

type testEnv struct {
	server *httptest.Server
	token  string
	repo   *memory.NodeRepository
	blobs  *blobstore.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewNodeRepository()
	blobs := blobstore.NewMemoryStore()

	treeService := service.NewTreeService(repo, blobs, logger)
	ingestService := service.NewIngestService(treeService, blobs, nopQueue{}, logger)

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	nodeHandler := NewNodeHandler(treeService, ingestService, logger, 1<<20)
	authHandler := NewAuthHandler(issuer, "admin@example.com", "hunter2", logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", nodeHandler.HealthCheck)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/files", nodeHandler.List)
	mux.HandleFunc("POST /api/files", nodeHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}/download", nodeHandler.Download)
	mux.HandleFunc("DELETE /api/files/{id}", nodeHandler.Delete)
	mux.HandleFunc("POST /api/folders", nodeHandler.CreateFolder)

	var root http.Handler = mux
	root = middleware.Auth(issuer, "/health", "/api/login")(root)
	root = middleware.Recovery(logger)(root)

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	token, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)

	return &testEnv{server: server, token: token, repo: repo, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) createFolder(t *testing.T, name string, parentID *string) models.Node {
	t.Helper()
	payload, err := json.Marshal(models.CreateFolderRequest{Name: name, ParentID: parentID})
	require.NoError(t, err)

	resp := e.do(t, http.MethodPost, "/api/folders", bytes.NewReader(payload), "application/json")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var node models.Node
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&node))
	return node
}

func (e *testEnv) uploadFile(t *testing.T, name, content string, parentID *string) models.Node {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if parentID != nil {
		require.NoError(t, form.WriteField("parent_id", *parentID))
	}
	require.NoError(t, form.Close())

	resp := e.do(t, http.MethodPost, "/api/files", &buf, form.FormDataContentType())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var node models.Node
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&node))
	return node
}

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_RequestWithoutTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_FlowIssuesUsableToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/login", "application/json",
		strings.NewReader(`{"email":"admin@example.com","password":"hunter2"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/files", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	listResp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/login", "application/json",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateFolder_Conflict(t *testing.T) {
	env := newTestEnv(t)

	env.createFolder(t, "Reports", nil)

	payload := `{"name":"Reports"}`
	resp := env.do(t, http.MethodPost, "/api/folders", strings.NewReader(payload), "application/json")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestCreateFolder_InvalidName(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/folders", strings.NewReader(`{"name":""}`), "application/json")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_ReturnsFilesAndBreadcrumbs(t *testing.T) {
	env := newTestEnv(t)

	top := env.createFolder(t, "Documents", nil)
	sub := env.createFolder(t, "Invoices", &top.ID)
	env.uploadFile(t, "invoice.txt", "total: 42", &sub.ID)

	resp := env.do(t, http.MethodGet, "/api/files?parent_id="+sub.ID, nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing models.Listing
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))

	require.Len(t, listing.Files, 1)
	assert.Equal(t, "invoice.txt", listing.Files[0].Name)

	require.Len(t, listing.Breadcrumbs, 2)
	assert.Equal(t, "Documents", listing.Breadcrumbs[0].Name)
	assert.Equal(t, "Invoices", listing.Breadcrumbs[1].Name)
}

func TestList_RootSentinels(t *testing.T) {
	env := newTestEnv(t)
	env.createFolder(t, "Top", nil)

	for _, q := range []string{"", "?parent_id=root", "?parent_id=null"} {
		resp := env.do(t, http.MethodGet, "/api/files"+q, nil, "")
		var listing models.Listing
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
		resp.Body.Close()

		require.Len(t, listing.Files, 1, "query %q", q)
		assert.Empty(t, listing.Breadcrumbs)
	}
}

func TestUpload_AndDownloadRoundtrip(t *testing.T) {
	env := newTestEnv(t)

	node := env.uploadFile(t, "hello.txt", "hello world", nil)
	assert.False(t, node.IsFolder)
	assert.Equal(t, int64(11), node.Size)

	resp := env.do(t, http.MethodGet, "/api/files/"+node.ID+"/download", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="hello.txt"`)
	assert.Equal(t, "11", resp.Header.Get("Content-Length"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestUpload_MissingFileField(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("parent_id", "root"))
	require.NoError(t, form.Close())

	resp := env.do(t, http.MethodPost, "/api/files", &buf, form.FormDataContentType())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "big.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), (1<<20)+1))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	resp := env.do(t, http.MethodPost, "/api/files", &buf, form.FormDataContentType())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestDownload_FolderRejected(t *testing.T) {
	env := newTestEnv(t)

	folder := env.createFolder(t, "Reports", nil)

	resp := env.do(t, http.MethodGet, "/api/files/"+folder.ID+"/download", nil, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDownload_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/files/missing/download", nil, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete_FolderCascades(t *testing.T) {
	env := newTestEnv(t)

	top := env.createFolder(t, "Documents", nil)
	sub := env.createFolder(t, "Invoices", &top.ID)
	env.uploadFile(t, "a.txt", "a", &top.ID)
	env.uploadFile(t, "b.txt", "b", &sub.ID)

	resp := env.do(t, http.MethodDelete, "/api/files/"+top.ID, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, 0, env.repo.Len())
	assert.Equal(t, 0, env.blobs.Len())
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodDelete, "/api/files/missing", nil, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
