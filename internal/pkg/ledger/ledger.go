package ledger

import (
	"bufio"
	"os"
	"sync"

	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// Ledger marks files as uploaded and survives process restart
type Ledger interface {
	IsProcessed(path string) bool
	MarkProcessed(path string) error
}

// FileLedger is an append log backed dedup ledger.
// The log is replayed into memory at startup, every mark is appended
// to the log before it is visible to IsProcessed callers.
type FileLedger struct {
	file      *os.File
	processed map[string]bool
	m         sync.Mutex
}

// NewFileLedger loads the ledger from path, missing file means cold start
func NewFileLedger(path string) (*FileLedger, error) {
	if path == "" {
		return nil, errors.New("no ledger path provided")
	}
	res := &FileLedger{processed: make(map[string]bool)}

	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				res.processed[line] = true
			}
		}
		errS := scanner.Err()
		f.Close()
		if errS != nil {
			return nil, errors.Wrap(errS, "can't read ledger "+path)
		}
		cmdapp.Log.Infof("Loaded %d processed files from %s", len(res.processed), path)
	} else if os.IsNotExist(err) {
		cmdapp.Log.Infof("No ledger at %s, starting fresh", path)
	} else {
		return nil, errors.Wrap(err, "can't open ledger "+path)
	}

	res.file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "can't open ledger for append "+path)
	}
	return res, nil
}

// IsProcessed tests if the path was uploaded before
func (l *FileLedger) IsProcessed(path string) bool {
	l.m.Lock()
	defer l.m.Unlock()
	return l.processed[path]
}

// MarkProcessed durably records the path as uploaded
func (l *FileLedger) MarkProcessed(path string) error {
	l.m.Lock()
	defer l.m.Unlock()
	if l.processed[path] {
		return nil
	}
	if _, err := l.file.WriteString(path + "\n"); err != nil {
		return errors.Wrap(err, "can't append to ledger")
	}
	if err := l.file.Sync(); err != nil {
		return errors.Wrap(err, "can't sync ledger")
	}
	l.processed[path] = true
	return nil
}

// Close finalizes the ledger file
func (l *FileLedger) Close() error {
	return l.file.Close()
}
