package submission

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"cvbuilder/internal/artifact"
	"cvbuilder/internal/payload"
	"cvbuilder/internal/resume"
	u "cvbuilder/internal/utils"
)

// FailureMessage is shown for every transport, status or decoding failure.
const FailureMessage = "Failed to generate CV"

// Controller runs submissions and owns the Idle/Submitting/Displayed state machine.
//
// Each Submit takes a new generation number. Only the latest generation may publish its
// outcome; a slower, older submission finishing late is dropped.
type Controller struct {
	gen Generator

	mu     sync.Mutex
	status Status

	// notifyMu is taken before mu is released so observers see changes in order.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	nextID   int
	subs     []observer
}

type observer struct {
	id int
	fn func(Status)
}

// NewController returns an idle controller that submits through gen.
func NewController(gen Generator) *Controller {
	return &Controller{gen: gen}
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Subscribe registers fn for every status change and returns a func that removes it.
// Observers run synchronously in registration order, see changes in the order they
// happened and must not call back into the controller.
func (c *Controller) Subscribe(fn func(Status)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, observer{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, o := range c.subs {
			if o.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Submit normalizes doc, sends it and publishes the outcome. It returns the controller status
// once this attempt is over; if a newer Submit started meanwhile that status belongs to it.
//
// A document missing required fields is rejected before anything changes: the error is a
// *payload.ValidationError, the returned status is the current one and observers are not
// notified.
func (c *Controller) Submit(ctx context.Context, doc resume.Document) (Status, error) {
	p := payload.Normalize(doc)
	if err := payload.Validate(p); err != nil {
		u.Warn("CV submission rejected", "error", err)
		return c.Status(), err
	}
	return c.run(ctx, p), nil
}

func (c *Controller) run(ctx context.Context, p payload.Payload) (st Status) {
	gen := c.begin()

	var outcome Result = Failure{Message: FailureMessage}
	defer func() { st = c.finish(gen, outcome) }()

	outcome = c.attempt(ctx, gen, p)
	return st
}

// Dismiss moves a displayed outcome back to Idle. It does nothing while submitting.
func (c *Controller) Dismiss() Status {
	c.mu.Lock()
	if c.status.State != SuccessDisplayed && c.status.State != FailureDisplayed {
		st := c.status
		c.mu.Unlock()
		return st
	}
	c.status = Status{State: Idle, Generation: c.status.Generation}
	return c.publish()
}

func (c *Controller) attempt(ctx context.Context, gen uint64, p payload.Payload) Result {
	attempt := uuid.NewString()

	u.Info("Submitting CV", "attempt", attempt, "generation", gen)
	resp, err := c.gen.Generate(ctx, p)
	if err != nil {
		u.Error("CV generation failed", "attempt", attempt, "generation", gen, "error", err)
		return Failure{Message: FailureMessage}
	}

	res := Success{HTML: resp.HTML, Filename: resp.Filename}
	if resp.PDFBase64 != "" {
		pdf, err := artifact.DecodeBinary(resp.PDFBase64)
		if err != nil {
			u.Error("CV generation returned a malformed PDF", "attempt", attempt, "generation", gen, "error", err)
			return Failure{Message: FailureMessage}
		}
		res.PDF = pdf
	}
	u.Info("CV generated", "attempt", attempt, "generation", gen,
		"has_html", res.HTML != "", "pdf_bytes", len(res.PDF))
	return res
}

// begin enters Submitting under a new generation and clears the previous result.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	c.status = Status{State: Submitting, Generation: c.status.Generation + 1}
	return c.publish().Generation
}

// finish publishes the outcome of generation gen unless a newer submission has started.
func (c *Controller) finish(gen uint64, r Result) Status {
	c.mu.Lock()
	if c.status.Generation != gen {
		st := c.status
		c.mu.Unlock()
		u.Warn("Discarding stale CV generation result", "generation", gen, "latest", st.Generation)
		return st
	}

	state := FailureDisplayed
	if _, ok := r.(Success); ok {
		state = SuccessDisplayed
	}
	c.status = Status{State: state, Generation: gen, Result: r}
	return c.publish()
}

// publish must be called with mu held; it releases mu and notifies observers.
func (c *Controller) publish() Status {
	st := c.status
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.subMu.Lock()
	subs := c.subs
	c.subMu.Unlock()

	for _, o := range subs {
		o.fn(st)
	}
	return st
}
