// Package identity resolves the opaque author label attached to notes and
// edits. The original client read it from a browser-stored token; here it
// lives in a token file, watched so label changes apply without a restart.
package identity

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultAuthor is used when no token is present
const DefaultAuthor = "Anonymous"

// Resolver resolves the author label from a token file
type Resolver struct {
	mu     sync.RWMutex
	path   string
	author string

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewResolver creates a resolver over the given token file path. An empty
// path or a missing file resolves to DefaultAuthor.
func NewResolver(path string, logger *zap.Logger) *Resolver {
	r := &Resolver{
		path:   path,
		author: DefaultAuthor,
		logger: logger,
	}
	r.reload()
	return r
}

// Author returns the current author label
func (r *Resolver) Author() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.author
}

// Watch starts following the token file for changes. The directory is
// watched too, so atomic editor saves (write-then-rename) are picked up.
func (r *Resolver) Watch() error {
	if r.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return err
	}

	r.watcher = watcher
	r.stopCh = make(chan struct{})
	go r.watchLoop(watcher)
	r.logger.Info("identity token watcher started", zap.String("path", r.path))
	return nil
}

// Close stops the watcher if running. Safe to call more than once.
func (r *Resolver) Close() {
	r.closeOnce.Do(func() {
		if r.watcher != nil {
			close(r.stopCh)
			r.watcher.Close()
		}
	})
}

func (r *Resolver) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-r.stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != r.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				r.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("identity watcher error", zap.Error(err))
		}
	}
}

func (r *Resolver) reload() {
	author := DefaultAuthor
	if r.path != "" {
		if data, err := os.ReadFile(r.path); err == nil {
			if label := strings.TrimSpace(string(data)); label != "" {
				author = label
			}
		}
	}

	r.mu.Lock()
	changed := r.author != author
	r.author = author
	r.mu.Unlock()

	if changed {
		r.logger.Info("author label resolved", zap.String("author", author))
	}
}
