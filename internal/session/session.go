// Package session owns one editing session: the document being edited, the submission
// controller and the artifacts produced by the last successful submission.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cvbuilder/internal/artifact"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/submission"
	u "cvbuilder/internal/utils"
)

var (
	// ErrNoPDF is returned by DownloadPDF when the displayed result carries no PDF.
	ErrNoPDF = errors.New("no pdf available")
	// ErrNoPreview is returned by PrintPreview when nothing is previewed.
	ErrNoPreview = errors.New("no preview available")
	// ErrPrinterDisabled is returned by PrintPreview when no printer is configured.
	ErrPrinterDisabled = errors.New("preview printing is disabled")
)

// Printer turns preview HTML into PDF bytes.
type Printer interface {
	Print(ctx context.Context, html string) ([]byte, error)
}

// Deps are the collaborators a session is built from. Printer may be nil.
type Deps struct {
	Generator  submission.Generator
	Downloader *artifact.Downloader
	Printer    Printer
}

// Session is a single user's editing session.
type Session struct {
	ID         string
	Store      *resume.Store
	Controller *submission.Controller
	Preview    *artifact.Preview

	downloader  *artifact.Downloader
	printer     Printer
	unsubscribe func()
}

// New starts a session on a blank document.
func New(deps Deps) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Store:      resume.NewStore(resume.New()),
		Controller: submission.NewController(deps.Generator),
		Preview:    &artifact.Preview{},
		downloader: deps.Downloader,
		printer:    deps.Printer,
	}
	s.unsubscribe = s.Controller.Subscribe(s.onStatus)
	u.Info("Session started", "session", s.ID, "print_enabled", deps.Printer != nil)
	return s
}

// Close detaches the preview from the controller.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Session) onStatus(st submission.Status) {
	switch st.State {
	case submission.Submitting:
		s.Preview.Clear()
	case submission.SuccessDisplayed:
		if res, ok := st.Result.(submission.Success); ok && res.HTML != "" {
			rev := s.Preview.Render(res.HTML)
			u.Debug("Preview rendered", "session", s.ID, "revision", rev, "generation", st.Generation)
		}
	}
}

// Submit sends the current document snapshot. A snapshot missing required fields is
// rejected with a *payload.ValidationError and leaves the displayed result in place.
func (s *Session) Submit(ctx context.Context) (submission.Status, error) {
	snap := s.Store.Snapshot()
	u.Debug("Submitting snapshot", "session", s.ID, "version", snap.Version)
	return s.Controller.Submit(ctx, snap.Document)
}

// DownloadPDF downloads the PDF of the displayed result and returns where it was saved.
func (s *Session) DownloadPDF(ctx context.Context) (string, error) {
	res, ok := s.Controller.Status().Result.(submission.Success)
	if !ok || !res.HasPDF() {
		return "", ErrNoPDF
	}
	return s.downloader.TriggerDownload(ctx, res.PDF, res.Filename)
}

// PrintPreview prints the current preview to PDF and downloads it.
func (s *Session) PrintPreview(ctx context.Context) (string, error) {
	if s.printer == nil {
		return "", ErrPrinterDisabled
	}
	html, _, ok := s.Preview.Current()
	if !ok || html == "" {
		return "", ErrNoPreview
	}

	pdf, err := s.printer.Print(ctx, html)
	if err != nil {
		return "", fmt.Errorf("print preview: %w", err)
	}

	var filename string
	if res, ok := s.Controller.Status().Result.(submission.Success); ok {
		filename = res.Filename
	}
	return s.downloader.TriggerDownload(ctx, pdf, filename)
}
