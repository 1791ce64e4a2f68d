package uploader

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/myhippo/transcriber/internal/pkg/blob"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/myhippo/transcriber/internal/pkg/ledger"
	"github.com/myhippo/transcriber/internal/pkg/utils"
	"github.com/pkg/errors"
)

// FileSaver writes the audio object to the blob store
type FileSaver interface {
	Put(key string, r io.ReadSeeker, size int64, contentType string, meta map[string]string) error
}

// ProgressObserver gets upload lifecycle events
type ProgressObserver interface {
	Started(path string, size int64)
	Finished(path string, key string, dur time.Duration)
	Failed(path string, err error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Ledger    ledger.Ledger
	FileSaver FileSaver
	// Observer is optional
	Observer ProgressObserver
	// Concurrency bounds the count of uploads in flight
	Concurrency int
	// ProcessedDir gets the uploaded files moved into it when set
	ProcessedDir string

	FilesCh <-chan string
}

// StartUploaderService drains FilesCh with a bounded pool of upload workers
// return channel to track the finish event
//
// to wait sync for the service to finish:
// fc, err := StartUploaderService(data)
// handle err
// <-fc // waits for finish
func StartUploaderService(data *ServiceData) (<-chan bool, error) {
	if data.Ledger == nil {
		return nil, errors.New("No ledger")
	}
	if data.FileSaver == nil {
		return nil, errors.New("No file saver")
	}
	if data.Concurrency < 1 {
		return nil, errors.New("Wrong or no concurrency")
	}
	if data.FilesCh == nil {
		return nil, errors.New("No files channel")
	}
	cmdapp.Log.Infof("Starting %d upload workers", data.Concurrency)

	fc := make(chan bool)
	var wg sync.WaitGroup
	wg.Add(data.Concurrency)
	for i := 0; i < data.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for path := range data.FilesCh {
				if data.Ledger.IsProcessed(path) {
					cmdapp.Log.Debugf("Skipping already uploaded %s", path)
					continue
				}
				if err := uploadFile(data, path); err != nil {
					cmdapp.Log.Errorf("Failed to upload %s", path)
					cmdapp.Log.Error(err)
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		cmdapp.Log.Infof("Upload workers stopped")
		fc <- true
	}()
	return fc, nil
}

// uploadFile runs the full upload protocol for one local file.
// The ledger is marked on success only, a failed file stays unmarked
// and gets retried by the next scan or watch event.
func uploadFile(data *ServiceData, path string) error {
	startTime := time.Now()
	fileName := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "can't open "+path)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "can't stat "+path)
	}
	notifyStarted(data.Observer, path, stat.Size())

	hash, err := fileHash(f)
	if err != nil {
		notifyFailed(data.Observer, path, err)
		return err
	}

	key := blob.AudioKey(time.Now(), fileName)
	cmdapp.Log.Infof("Uploading %s (%s) to %s", fileName,
		utils.Float64ToSizeString(float64(stat.Size())), key)

	err = data.FileSaver.Put(key, f, stat.Size(), contentType(fileName),
		map[string]string{
			"original-filename": fileName,
			"upload-timestamp":  time.Now().Format(time.RFC3339),
			"file-size":         strconv.FormatInt(stat.Size(), 10),
			"file-hash":         hash,
			"local-path":        path,
		})
	if err != nil {
		notifyFailed(data.Observer, path, err)
		return errors.Wrap(err, "can't upload "+path)
	}

	if err := data.Ledger.MarkProcessed(path); err != nil {
		notifyFailed(data.Observer, path, err)
		return err
	}
	cmdapp.Log.Infof("Uploaded %s in %s", fileName, time.Since(startTime).String())
	notifyFinished(data.Observer, path, key, time.Since(startTime))

	moveProcessed(data, path, fileName)
	return nil
}

// fileHash fingerprints the full file content and rewinds the reader
func fileHash(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "can't hash file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "can't rewind file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var contentTypes = map[string]string{".mp3": "audio/mpeg", ".wav": "audio/wav",
	".m4a": "audio/mp4", ".aac": "audio/aac", ".ogg": "audio/ogg",
	".flac": "audio/flac", ".wma": "audio/x-ms-wma", ".opus": "audio/opus"}

func contentType(fileName string) string {
	if ct, ok := contentTypes[filepath.Ext(fileName)]; ok {
		return ct
	}
	return "audio/mpeg"
}

// moveProcessed is best effort, the upload is already marked done
func moveProcessed(data *ServiceData, path, fileName string) {
	if data.ProcessedDir == "" {
		return
	}
	dest := filepath.Join(data.ProcessedDir, fileName)
	if err := os.Rename(path, dest); err != nil {
		cmdapp.Log.Warnf("Can't move %s to %s: %v", path, dest, err)
		return
	}
	cmdapp.Log.Infof("Moved %s to processed directory", fileName)
}

func notifyStarted(o ProgressObserver, path string, size int64) {
	if o != nil {
		o.Started(path, size)
	}
}

func notifyFinished(o ProgressObserver, path, key string, dur time.Duration) {
	if o != nil {
		o.Finished(path, key, dur)
	}
}

func notifyFailed(o ProgressObserver, path string, err error) {
	if o != nil {
		o.Failed(path, err)
	}
}
