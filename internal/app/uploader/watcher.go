package uploader

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/utils"
	"github.com/pkg/errors"
)

// Watcher feeds discovered audio files into FilesCh.
// It scans the directory once at startup and then follows create events.
type Watcher struct {
	FilesCh chan string

	dir string
	fsw *fsnotify.Watcher
}

// NewWatcher starts watching the directory for audio files
func NewWatcher(dir string) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("no watch directory provided")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "can't init watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, errors.Wrap(err, "can't watch "+dir)
	}
	res := &Watcher{FilesCh: make(chan string, 100), dir: dir, fsw: fsw}
	go res.run()
	cmdapp.Log.Infof("Watching for audio files in %s", dir)
	return res, nil
}

// Close stops the watcher, FilesCh gets closed after pending events drain
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) run() {
	w.scan()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.FilesCh)
				return
			}
			if ev.Op&fsnotify.Create == fsnotify.Create && audioFile(ev.Name) {
				cmdapp.Log.Infof("New audio file detected: %s", filepath.Base(ev.Name))
				w.FilesCh <- ev.Name
			}
		case err, ok := <-w.fsw.Errors:
			if ok {
				cmdapp.Log.Error(errors.Wrap(err, "watcher error"))
			}
		}
	}
}

// scan feeds files already present in the directory
func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "can't scan "+w.dir))
		return
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if audioFile(path) {
			count++
			w.FilesCh <- path
		}
	}
	cmdapp.Log.Infof("Found %d existing audio files", count)
}

func audioFile(path string) bool {
	return utils.SupportAudioExt(filepath.Ext(path))
}
