package uploads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := configs.UploadsConfig{
		MaxImageBytes: 4 << 20,
		MaxVideoBytes: 16 << 20,
		MaxOtherBytes: 4 << 20,
	}

	handler := NewHandler(store, cfg, zap.NewNop().Sugar())

	router := chi.NewRouter()
	router.Post("/api/uploads", handler.Upload)
	router.Get("/api/uploads/{file}", handler.Serve)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func doUpload(t *testing.T, srv *httptest.Server, name, contentType string, data []byte) *http.Response {
	t.Helper()

	body, formType := multipartBody(t, name, contentType, data)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/uploads", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", formType)
	req.Header.Set("X-User-Id", "u1")
	req.Header.Set("X-User-Name", "Ana")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadReturnsFileMetadata(t *testing.T) {
	srv := newTestServer(t)

	data := make([]byte, 2<<20)
	resp := doUpload(t, srv, "report.pdf", "application/pdf", data)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, "report.pdf", payload.Name)
	assert.Equal(t, int64(2097152), payload.Size)
	assert.Equal(t, "application/pdf", payload.Type)
	assert.Contains(t, payload.URL, "/api/uploads/")
}

func TestUploadedFileIsServedBack(t *testing.T) {
	srv := newTestServer(t)

	content := []byte("file body")
	resp := doUpload(t, srv, "notes.txt", "text/plain", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	served, err := http.Get(srv.URL + payload.URL)
	require.NoError(t, err)
	defer served.Body.Close()
	require.Equal(t, http.StatusOK, served.StatusCode)

	body, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	srv := newTestServer(t)

	data := make([]byte, (4<<20)+1)
	resp := doUpload(t, srv, "big.pdf", "application/pdf", data)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUploadAllowsLargerVideos(t *testing.T) {
	srv := newTestServer(t)

	data := make([]byte, 5<<20)
	resp := doUpload(t, srv, "clip.mp4", "video/mp4", data)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUploadRequiresIdentity(t *testing.T) {
	srv := newTestServer(t)

	body, formType := multipartBody(t, "a.png", "image/png", []byte("x"))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/uploads", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", formType)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadRequiresFileField(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/uploads", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-Id", "u1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeRejectsPathTraversal(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/uploads/..%2Fsecret")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}
