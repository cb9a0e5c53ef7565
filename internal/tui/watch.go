package tui

import (
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"splice-cli/internal/resource"
)

// reloadDebounce coalesces the burst of events one save produces.
const reloadDebounce = 250 * time.Millisecond

// fileChangedMsg reports a write to a workspace file the editor depends on.
type fileChangedMsg struct {
	catalog bool
}

type reloadDueMsg struct{ seq int }

// watchedFile reports whether name affects the editor, and whether it is the
// resource catalog (as opposed to the scope database).
func watchedFile(name string) (watched, catalog bool) {
	switch filepath.Base(name) {
	case resource.FileName:
		return true, true
	case "splice.sqlite", "splice.sqlite-wal":
		return true, false
	}
	return false, false
}

// watchWorkspace forwards changes under dir to send until the watcher is
// closed. Writes by this process are delivered too; the reload path
// recognizes them as no-ops.
func watchWorkspace(dir string, send func(tea.Msg), log *slog.Logger) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if ok, catalog := watchedFile(ev.Name); ok {
					send(fileChangedMsg{catalog: catalog})
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("workspace watcher error", "dir", dir, "err", err)
			}
		}
	}()
	return w, nil
}

func reloadAfter(seq int) tea.Cmd {
	return tea.Tick(reloadDebounce, func(time.Time) tea.Msg { return reloadDueMsg{seq: seq} })
}
