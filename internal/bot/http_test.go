package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geartrader/internal/storage/stubs"
)

func newTestServer(t *testing.T, webhookMode bool) *httptest.Server {
	t.Helper()
	b, _ := newTestBot(stubs.NewMockDB())
	mux := http.NewServeMux()
	NewHTTPServer(b, webhookMode).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPServer_Health(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_RootReportsMode(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := make([]byte, 128)
	n, _ := resp.Body.Read(buf)
	assert.Contains(t, string(buf[:n]), "webhook")
}

func TestHTTPServer_UnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_WebhookRejectsNonPost(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/telegram-webhook")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPServer_WebhookRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Post(srv.URL+"/telegram-webhook", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_WebhookAcceptsUpdate(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"update_id":1,"message":{"message_id":1,"chat":{"id":123,"type":"private"},"from":{"id":123},"text":"hi"}}`
	resp, err := http.Post(srv.URL+"/telegram-webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
