package artifact

import "sync"

// Preview holds the HTML of the last generated CV. Each Render replaces the previous one.
type Preview struct {
	mu       sync.RWMutex
	html     string
	shown    bool
	revision uint64
}

// Render replaces the preview with html and returns the new revision.
func (p *Preview) Render(html string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
	p.shown = true
	p.revision++
	return p.revision
}

// Clear removes the preview.
func (p *Preview) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.shown {
		return
	}
	p.html = ""
	p.shown = false
	p.revision++
}

// Current returns the preview HTML, its revision and whether there is one.
func (p *Preview) Current() (html string, revision uint64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html, p.revision, p.shown
}
