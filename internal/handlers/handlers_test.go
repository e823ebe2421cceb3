package handlers

import (
	"context"
	"encoding/base64"
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
	"cvbuilder/internal/resume"
	"cvbuilder/internal/session"
	"cvbuilder/internal/submission"
)

type memorySink struct {
	urls  *artifact.ObjectURLs
	files map[string][]byte
}

func (s *memorySink) Download(ctx context.Context, link artifact.Link) (string, error) {
	obj, err := s.urls.Open(ctx, link.Href)
	if err != nil {
		return "", err
	}
	s.files[link.Filename] = obj.Data
	return "memory://" + link.Filename, nil
}

func testApp(t *testing.T, backend http.HandlerFunc) (*fiber.App, *session.Session, *memorySink) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	urls := artifact.NewObjectURLs(artifact.NewMemoryBackend(), time.Minute)
	sink := &memorySink{urls: urls, files: map[string][]byte{}}
	sess := session.New(session.Deps{
		Generator:  submission.NewClient(srv.URL),
		Downloader: &artifact.Downloader{URLs: urls, Sink: sink},
	})
	t.Cleanup(sess.Close)

	svc := NewCVService(sess)
	app := fiber.New()
	v1 := app.Group("/v1")
	v1.Get("/document", svc.HandleGetDocument)
	v1.Put("/document/fields/:field", svc.HandleSetField)
	v1.Put("/document/experience/:index/achievements/:ach", svc.HandleSetAchievement)
	v1.Post("/document/experience/:index/achievements", svc.HandleAppendAchievement)
	v1.Put("/document/:section/:index/:field", svc.HandleSetEntryField)
	v1.Put("/document/:section/:index", svc.HandleSetListElement)
	v1.Post("/document/:section", svc.HandleAppend)
	v1.Post("/submit", svc.HandleSubmit)
	v1.Get("/submission", svc.HandleStatus)
	v1.Delete("/submission", svc.HandleDismiss)
	v1.Get("/preview", svc.HandlePreview)
	v1.Post("/preview/print", svc.HandlePrintPreview)
	v1.Post("/download", svc.HandleDownload)
	return app, sess, sink
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSnapshot(t *testing.T, data []byte) resume.Snapshot {
	t.Helper()
	var snap resume.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func okBackend(resp submission.Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func fillRequired(t *testing.T, app *fiber.App) {
	t.Helper()
	for field, v := range map[string]string{
		"full_name":        "Alan Turing",
		"email":            "alan@example.com",
		"phone":            "555-0199",
		"job_title_target": "Cryptanalyst",
	} {
		resp, _ := do(t, app, http.MethodPut, "/v1/document/fields/"+field, `{"value":"`+v+`"}`)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestDocumentEdits(t *testing.T) {
	app, sess, _ := testApp(t, okBackend(submission.Response{}))

	resp, data := do(t, app, http.MethodGet, "/v1/document", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1), decodeSnapshot(t, data).Version)

	resp, data = do(t, app, http.MethodPut, "/v1/document/fields/skills", `{"value":"Go, Rust"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, data)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, "Go, Rust", snap.Document.Skills)

	resp, _ = do(t, app, http.MethodPut, "/v1/document/experience/0/company", `{"value":"Bletchley"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/v1/document/experience/0/achievements", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/v1/document/experience/0/achievements/1", `{"value":"Broke Enigma"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/v1/document/languages/0", `{"value":"English"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/v1/document/languages", `{"value":"German"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/v1/document/education", `{"degree":"PhD"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, data = do(t, app, http.MethodPost, "/v1/document/experience", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	doc := decodeSnapshot(t, data).Document
	assert.Equal(t, sess.Store.Snapshot().Document, doc)
	assert.Equal(t, "Bletchley", doc.Experience[0].Company)
	assert.Equal(t, []string{"", "Broke Enigma"}, doc.Experience[0].Achievements)
	assert.Equal(t, []string{"English", "German"}, doc.Languages)
	require.Len(t, doc.Education, 2)
	assert.Equal(t, "PhD", doc.Education[1].Degree)
	require.Len(t, doc.Experience, 2)
	assert.Equal(t, []string{""}, doc.Experience[1].Achievements)
}

func TestDocumentEdits_Errors(t *testing.T) {
	app, sess, _ := testApp(t, okBackend(submission.Response{}))

	cases := []struct {
		name, method, path, body string
		code                     int
	}{
		{"unknown field", http.MethodPut, "/v1/document/fields/age", `{"value":"x"}`, fiber.StatusBadRequest},
		{"unknown list", http.MethodPut, "/v1/document/hobbies/0", `{"value":"x"}`, fiber.StatusBadRequest},
		{"bad index", http.MethodPut, "/v1/document/projects/first", `{"value":"x"}`, fiber.StatusBadRequest},
		{"index out of range", http.MethodPut, "/v1/document/projects/5", `{"value":"x"}`, fiber.StatusNotFound},
		{"negative index", http.MethodPut, "/v1/document/projects/-1", `{"value":"x"}`, fiber.StatusNotFound},
		{"field of other section", http.MethodPut, "/v1/document/education/0/company", `{"value":"x"}`, fiber.StatusBadRequest},
		{"entry out of range", http.MethodPut, "/v1/document/experience/3/role", `{"value":"x"}`, fiber.StatusNotFound},
		{"achievement out of range", http.MethodPut, "/v1/document/experience/0/achievements/9", `{"value":"x"}`, fiber.StatusNotFound},
		{"append unknown section", http.MethodPost, "/v1/document/hobbies", "", fiber.StatusBadRequest},
		{"malformed body", http.MethodPut, "/v1/document/fields/email", `{"value":`, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := do(t, app, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
	assert.Equal(t, uint64(1), sess.Store.Snapshot().Version, "failed edits must not change the document")
}

func TestSubmitPreviewAndDownload(t *testing.T) {
	pdf := []byte("%PDF-1.4 turing")
	app, _, sink := testApp(t, okBackend(submission.Response{
		HTML:      "<h1>Alan</h1>",
		PDFBase64: base64.StdEncoding.EncodeToString(pdf),
	}))

	resp, _ := do(t, app, http.MethodPost, "/v1/download", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "no result yet")

	resp, _ = do(t, app, http.MethodGet, "/v1/preview", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	fillRequired(t, app)
	resp, data := do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var st map[string]any
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "success", st["state"])
	assert.Equal(t, true, st["has_pdf"])
	assert.Equal(t, float64(len(pdf)), st["pdf_bytes"])

	resp, data = do(t, app, http.MethodGet, "/v1/preview", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Alan</h1>", string(data))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentSecurityPolicy), "sandbox")
	assert.Equal(t, "nosniff", resp.Header.Get(fiber.HeaderXContentTypeOptions))

	resp, data = do(t, app, http.MethodPost, "/v1/download", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"location":"memory://MakeMeHiredCV.pdf"}`, string(data))
	assert.Equal(t, pdf, sink.files["MakeMeHiredCV.pdf"])

	resp, _ = do(t, app, http.MethodPost, "/v1/preview/print", "")
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)

	resp, data = do(t, app, http.MethodDelete, "/v1/submission", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "idle", st["state"])
}

func TestSubmit_FailureAndMissingPDF(t *testing.T) {
	app, _, _ := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	resp, data := do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "missing required fields: email, full_name, job_title_target, phone")

	resp, data = do(t, app, http.MethodGet, "/v1/submission", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"state":"idle"`)

	fillRequired(t, app)
	resp, data = do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), submission.FailureMessage)

	resp, data = do(t, app, http.MethodGet, "/v1/submission", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"state":"failure"`)

	resp, _ = do(t, app, http.MethodPost, "/v1/download", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmit_RejectedDocumentKeepsResult(t *testing.T) {
	pdf := []byte("%PDF-1.4 turing")
	app, _, sink := testApp(t, okBackend(submission.Response{
		HTML:      "<h1>Alan</h1>",
		PDFBase64: base64.StdEncoding.EncodeToString(pdf),
	}))
	fillRequired(t, app)

	resp, _ := do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/v1/document/fields/phone", `{"value":""}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, data := do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "missing required fields: phone")

	resp, data = do(t, app, http.MethodGet, "/v1/submission", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"state":"success"`)

	resp, data = do(t, app, http.MethodGet, "/v1/preview", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Alan</h1>", string(data))

	resp, _ = do(t, app, http.MethodPost, "/v1/download", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, pdf, sink.files["MakeMeHiredCV.pdf"])
}

func TestDownload_HTMLOnlyResult(t *testing.T) {
	app, _, _ := testApp(t, okBackend(submission.Response{HTML: "<p/>"}))
	fillRequired(t, app)

	resp, _ := do(t, app, http.MethodPost, "/v1/submit", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/v1/download", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
