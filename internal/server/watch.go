package server

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// configWatcher reports changes to config files backing cached augmenters.
type configWatcher struct {
	w        *fsnotify.Watcher
	log      *logrus.Logger
	onChange func(path string)

	mu      sync.Mutex
	watched map[string]bool
}

func newConfigWatcher(log *logrus.Logger, onChange func(path string)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	cw := &configWatcher{
		w:        w,
		log:      log,
		onChange: onChange,
		watched:  make(map[string]bool),
	}
	go cw.loop()
	return cw, nil
}

// Add starts watching path. Paths already watched are ignored.
func (cw *configWatcher) Add(path string) {
	if path == "" {
		return
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.watched[path] {
		return
	}
	if err := cw.w.Add(path); err != nil {
		cw.log.WithError(err).WithField("path", path).Warn("cannot watch config file")
		return
	}
	cw.watched[path] = true
}

func (cw *configWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			// Removed and renamed files lose their watch; the next load re-adds it.
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				cw.mu.Lock()
				delete(cw.watched, ev.Name)
				cw.mu.Unlock()
			}
			cw.log.WithFields(logrus.Fields{"path": ev.Name, "op": ev.Op.String()}).Info("config file changed")
			cw.onChange(ev.Name)

		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			cw.log.WithError(err).Warn("config watcher error")
		}
	}
}

// Close stops the watcher and its event loop.
func (cw *configWatcher) Close() error {
	return cw.w.Close()
}
