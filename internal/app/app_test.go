package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbuilder/internal/artifact"
	"cvbuilder/internal/session"
	"cvbuilder/internal/submission"
	u "cvbuilder/internal/utils"
)

func newTestApp(t *testing.T, cfg u.Config) *fiber.App {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"html":"<p>cv</p>"}`))
	}))
	t.Cleanup(backend.Close)

	urls := artifact.NewObjectURLs(artifact.NewMemoryBackend(), time.Minute)
	sess := session.New(session.Deps{
		Generator:  submission.NewClient(backend.URL),
		Downloader: &artifact.Downloader{URLs: urls, Sink: &artifact.DirSink{Dir: t.TempDir(), URLs: urls}},
	})
	t.Cleanup(sess.Close)
	t.Cleanup(func() { rateLimitStore = nil })
	return SetupApp(cfg, sess)
}

func TestSetupApp_JSONNotFound(t *testing.T) {
	app := newTestApp(t, u.DefaultConfig())

	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusNotFound, body.Error.Code)
	assert.Equal(t, "Not Found", body.Error.Message)
}

func TestSetupApp_DomainErrorsAreJSON(t *testing.T) {
	app := newTestApp(t, u.DefaultConfig())

	req := httptest.NewRequest("PUT", "/v1/document/projects/7", strings.NewReader(`{"value":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "index out of range")
}

func TestSetupApp_HealthAndRequestID(t *testing.T) {
	app := newTestApp(t, u.DefaultConfig())

	resp, err := app.Test(httptest.NewRequest("GET", "/livez", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/document", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 20, "xid request id")
}

func TestSetupApp_SubmitIsRateLimited(t *testing.T) {
	cfg := u.DefaultConfig()
	cfg.RateLimiter.SubmitLimit = 1
	cfg.RateLimiter.Interval = time.Hour
	app := newTestApp(t, cfg)

	// a blank document is rejected but still counts against the limit
	resp, err := app.Test(httptest.NewRequest("POST", "/v1/submit", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/v1/submit", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// edits are not limited
	resp, err = app.Test(httptest.NewRequest("GET", "/v1/document", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
