// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an atomic write produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports identity changes made outside the running process, such
// as `sumy login` in another terminal.
type Watcher struct {
	provider *FileProvider
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	last    *Identity
	changes chan *Identity

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher starts watching the provider's identity file. The parent
// directory is watched so the file may be created, replaced or removed.
func NewWatcher(p *FileProvider, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(p.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create identity directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	last, _ := p.CurrentUser(context.Background())

	w := &Watcher{
		provider: p,
		fs:       fsw,
		debounce: DefaultDebounce,
		log:      log,
		last:     last,
		changes:  make(chan *Identity, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers the new identity, or nil after sign-out, each time the
// file changes meaning.
func (w *Watcher) Changes() <-chan *Identity {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	target := filepath.Clean(w.provider.Path())
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("identity watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	id, err := w.provider.CurrentUser(context.Background())
	if err != nil {
		w.log.Warn("reload identity", zap.Error(err))
		return
	}
	if sameIdentity(id, w.last) {
		return
	}
	w.last = id
	w.log.Info("identity changed", zap.Bool("authenticated", IsAuthenticated(id)))

	select {
	case w.changes <- id:
	case <-w.done:
	}
}

func sameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
