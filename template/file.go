package template

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ggoodman/ceb-go/dom"
)

// File is an HTML template loaded from disk that can be reloaded while
// elements using it are connected.
type File struct {
	path string

	mu   sync.RWMutex
	tmpl *htmltemplate.Template

	Notifier
}

// ParseFile loads and parses the template at path.
func ParseFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", path, err)
	}
	f := &File{path: abs}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the absolute path of the template file.
func (f *File) Path() string { return f.path }

// Reload parses the file again. On failure the previous template is kept.
func (f *File) Reload() error {
	text, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("template %q: %w", f.path, err)
	}
	t, err := htmltemplate.New(filepath.Base(f.path)).Parse(string(text))
	if err != nil {
		return fmt.Errorf("template %q: %w", f.path, err)
	}
	f.mu.Lock()
	f.tmpl = t
	f.mu.Unlock()
	return nil
}

func (f *File) Render(dest dom.Node, params any) error {
	f.mu.RLock()
	t := f.tmpl
	f.mu.RUnlock()
	return execute(t, dest, params)
}

// Watch reloads the template whenever its file is written or replaced and
// signals subscribers after each successful reload. It blocks until ctx is
// done or the watcher fails to start.
//
// The parent directory is watched rather than the file so that editors which
// save by rename keep being tracked.
func (f *File) Watch(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("path", f.path))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watch: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("template watch: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				// Partial writes and renames surface as transient parse or
				// read errors; the next event retries.
				log.Debug("template reload failed", slog.String("err", err.Error()))
				continue
			}
			log.Debug("template reloaded")
			f.Notify()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", slog.String("err", err.Error()))
		}
	}
}
