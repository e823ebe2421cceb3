// Package submission sends résumé snapshots to the generation service and tracks the
// outcome of the latest attempt.
package submission

import (
	"encoding/json"
	"fmt"
)

// State is the position of the controller in its submit cycle.
type State int

const (
	Idle State = iota
	Submitting
	SuccessDisplayed
	FailureDisplayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case SuccessDisplayed:
		return "success"
	case FailureDisplayed:
		return "failure"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalJSON renders the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is the outcome of one submission: a Success or a Failure.
type Result interface {
	isResult()
}

// Success carries the artifacts returned by the service. HTML is empty when no preview was
// returned; PDF is nil when no PDF was returned.
type Success struct {
	HTML     string
	PDF      []byte
	Filename string
}

// HasPDF reports whether a PDF came back.
func (s Success) HasPDF() bool { return s.PDF != nil }

// Failure carries the message shown to the user.
type Failure struct {
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// Status is a snapshot of the controller.
type Status struct {
	State      State
	Generation uint64
	Result     Result
}

// Submitting reports whether a submission is in flight.
func (s Status) Submitting() bool { return s.State == Submitting }

// MarshalJSON renders the status for the HTTP surface. PDF bytes are summarized, not inlined.
func (s Status) MarshalJSON() ([]byte, error) {
	out := struct {
		State      State  `json:"state"`
		Submitting bool   `json:"submitting"`
		Generation uint64 `json:"generation"`
		HasPreview bool   `json:"has_preview"`
		HasPDF     bool   `json:"has_pdf"`
		PDFBytes   int    `json:"pdf_bytes,omitempty"`
		Filename   string `json:"filename,omitempty"`
		Message    string `json:"message,omitempty"`
	}{
		State:      s.State,
		Submitting: s.Submitting(),
		Generation: s.Generation,
	}
	switch r := s.Result.(type) {
	case Success:
		out.HasPreview = r.HTML != ""
		out.HasPDF = r.HasPDF()
		out.PDFBytes = len(r.PDF)
		out.Filename = r.Filename
	case Failure:
		out.Message = r.Message
	}
	return json.Marshal(out)
}
