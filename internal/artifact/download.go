package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	u "cvbuilder/internal/utils"
)

// DefaultFilename names downloads when the service did not suggest one.
const DefaultFilename = "MakeMeHiredCV.pdf"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Link is what a download sink receives: an object URL and the name to save it under.
type Link struct {
	Href     string
	Filename string
}

// Sink performs the actual download of a link and reports where it ended up.
type Sink interface {
	Download(ctx context.Context, link Link) (string, error)
}

// Downloader turns byte buffers into downloads.
type Downloader struct {
	URLs            *ObjectURLs
	Sink            Sink
	DefaultFilename string
}

// TriggerDownload exposes data as an application/pdf object URL, passes it to the sink under
// filename (or the default name) and revokes the URL afterwards, whatever the sink did.
func (d *Downloader) TriggerDownload(ctx context.Context, data []byte, filename string) (string, error) {
	if filename == "" {
		filename = d.DefaultFilename
	}
	if filename == "" {
		filename = DefaultFilename
	}

	href, err := d.URLs.Create(ctx, data, MIMEPDF)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := d.URLs.Revoke(context.WithoutCancel(ctx), href); err != nil {
			u.Warn("Failed to revoke object url", "url", href, "error", err)
		}
	}()

	location, err := d.Sink.Download(ctx, Link{Href: href, Filename: filename})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", filename, err)
	}
	u.Info("CV downloaded", "filename", filename, "bytes", len(data), "location", location)
	return location, nil
}

// DirSink saves downloads into a directory, like a browser's download folder.
type DirSink struct {
	Dir  string
	URLs *ObjectURLs
}

// Download resolves link through the object URL registry and writes it to Dir.
func (s *DirSink) Download(ctx context.Context, link Link) (string, error) {
	obj, err := s.URLs.Open(ctx, link.Href)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(s.Dir, SanitizeFilename(link.Filename))
	tmp, err := os.CreateTemp(s.Dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(obj.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move %s: %w", path, err)
	}
	return path, nil
}

// SanitizeFilename strips directories and replaces characters outside [a-zA-Z0-9_.-].
func SanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" || name == ".." {
		return DefaultFilename
	}
	return name
}
