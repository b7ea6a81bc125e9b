package viewer

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/extrude/internal/logger"
)

// sceneWatcher reports edits of one scene file. Bursts of events within
// delay collapse into one change.
type sceneWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	delay   time.Duration
	changed chan struct{}
	done    chan struct{}
}

// newSceneWatcher watches the directory of path, editors often replace the
// file instead of writing it.
func newSceneWatcher(path string, delay time.Duration) (*sceneWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	sw := &sceneWatcher{
		watcher: w,
		path:    abs,
		delay:   delay,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go sw.run()
	return sw, nil
}

func (sw *sceneWatcher) run() {
	var fire <-chan time.Time
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fire = time.After(sw.delay)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("scene watcher", zap.String("path", sw.path), zap.Error(err))
		case <-fire:
			fire = nil
			select {
			case sw.changed <- struct{}{}:
			default:
			}
		}
	}
}

// Changed reports whether the file changed since the last call.
func (sw *sceneWatcher) Changed() bool {
	select {
	case <-sw.changed:
		return true
	default:
		return false
	}
}

// Close stops watching.
func (sw *sceneWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
