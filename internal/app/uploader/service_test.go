package uploader

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	key         string
	contentType string
	meta        map[string]string
	body        []byte
}

type testSaver struct {
	m           sync.Mutex
	puts        []putCall
	err         error
	delay       time.Duration
	inFlight    int
	maxInFlight int
}

func (s *testSaver) Put(key string, r io.ReadSeeker, size int64, contentType string,
	meta map[string]string) error {
	s.m.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.m.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	b, _ := io.ReadAll(r)
	s.m.Lock()
	defer s.m.Unlock()
	s.inFlight--
	if s.err != nil {
		return s.err
	}
	s.puts = append(s.puts, putCall{key: key, contentType: contentType, meta: meta, body: b})
	return nil
}

type testLedger struct {
	m         sync.Mutex
	processed map[string]bool
	marks     int
}

func newTestLedger() *testLedger {
	return &testLedger{processed: make(map[string]bool)}
}

func (l *testLedger) IsProcessed(path string) bool {
	l.m.Lock()
	defer l.m.Unlock()
	return l.processed[path]
}

func (l *testLedger) MarkProcessed(path string) error {
	l.m.Lock()
	defer l.m.Unlock()
	if !l.processed[path] {
		l.marks++
	}
	l.processed[path] = true
	return nil
}

type testObserver struct {
	m      sync.Mutex
	events []string
}

func (o *testObserver) Started(path string, size int64) { o.add("started:" + filepath.Base(path)) }
func (o *testObserver) Finished(path string, key string, dur time.Duration) {
	o.add("finished:" + filepath.Base(path))
}
func (o *testObserver) Failed(path string, err error) { o.add("failed:" + filepath.Base(path)) }

func (o *testObserver) add(e string) {
	o.m.Lock()
	defer o.m.Unlock()
	o.events = append(o.events, e)
}

func newTestData() (*ServiceData, *testSaver, *testLedger) {
	saver := &testSaver{}
	ledger := newTestLedger()
	return &ServiceData{Ledger: ledger, FileSaver: saver, Concurrency: 1}, saver, ledger
}

func newFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runUploads(t *testing.T, data *ServiceData, paths ...string) {
	t.Helper()
	ch := make(chan string, len(paths))
	for _, p := range paths {
		ch <- p
	}
	close(ch)
	data.FilesCh = ch
	fc, err := StartUploaderService(data)
	require.Nil(t, err)
	select {
	case <-fc:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for uploads")
	}
}

func TestUpload(t *testing.T) {
	data, saver, ledger := newTestData()
	path := newFile(t, "olia.mp3", "audio bytes")

	runUploads(t, data, path)

	require.Equal(t, 1, len(saver.puts))
	put := saver.puts[0]
	assert.True(t, strings.HasPrefix(put.key, "audio/"), put.key)
	assert.True(t, strings.HasSuffix(put.key, "/olia.mp3"), put.key)
	assert.Equal(t, "audio/mpeg", put.contentType)
	assert.Equal(t, []byte("audio bytes"), put.body)
	assert.True(t, ledger.IsProcessed(path))
}

func TestUpload_Metadata(t *testing.T) {
	data, saver, _ := newTestData()
	path := newFile(t, "olia.wav", "audio bytes")

	runUploads(t, data, path)

	require.Equal(t, 1, len(saver.puts))
	put := saver.puts[0]
	assert.Equal(t, "audio/wav", put.contentType)
	assert.Equal(t, "olia.wav", put.meta["original-filename"])
	assert.Equal(t, "11", put.meta["file-size"])
	assert.Equal(t, path, put.meta["local-path"])
	assert.NotEmpty(t, put.meta["upload-timestamp"])
	hash := sha256.Sum256([]byte("audio bytes"))
	assert.Equal(t, hex.EncodeToString(hash[:]), put.meta["file-hash"])
}

func TestUpload_SkipsProcessed(t *testing.T) {
	data, saver, ledger := newTestData()
	path := newFile(t, "olia.mp3", "audio bytes")
	require.Nil(t, ledger.MarkProcessed(path))

	runUploads(t, data, path)

	assert.Empty(t, saver.puts)
}

func TestUpload_DuplicateEvent(t *testing.T) {
	data, saver, ledger := newTestData()
	path := newFile(t, "olia.mp3", "audio bytes")

	runUploads(t, data, path, path)

	assert.Equal(t, 1, len(saver.puts))
	assert.Equal(t, 1, ledger.marks)
}

func TestUpload_FailureLeavesUnmarked(t *testing.T) {
	data, saver, ledger := newTestData()
	saver.err = errors.New("olia")
	observer := &testObserver{}
	data.Observer = observer
	path := newFile(t, "olia.mp3", "audio bytes")

	runUploads(t, data, path)

	assert.False(t, ledger.IsProcessed(path))
	assert.Equal(t, []string{"started:olia.mp3", "failed:olia.mp3"}, observer.events)
}

func TestUpload_Observer(t *testing.T) {
	data, _, _ := newTestData()
	observer := &testObserver{}
	data.Observer = observer
	path := newFile(t, "olia.mp3", "audio bytes")

	runUploads(t, data, path)

	assert.Equal(t, []string{"started:olia.mp3", "finished:olia.mp3"}, observer.events)
}

func TestUpload_MovesProcessed(t *testing.T) {
	data, _, _ := newTestData()
	data.ProcessedDir = t.TempDir()
	path := newFile(t, "olia.mp3", "audio bytes")

	runUploads(t, data, path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(data.ProcessedDir, "olia.mp3"))
	assert.Nil(t, err)
}

func TestUpload_ConcurrencyBound(t *testing.T) {
	data, saver, _ := newTestData()
	data.Concurrency = 3
	saver.delay = 20 * time.Millisecond
	paths := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		paths = append(paths, newFile(t, "olia.mp3", "audio bytes"))
	}

	runUploads(t, data, paths...)

	assert.Equal(t, 10, len(saver.puts))
	assert.LessOrEqual(t, saver.maxInFlight, 3)
	assert.Greater(t, saver.maxInFlight, 1)
}

func TestStart_Fails(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(data *ServiceData)
	}{
		{"ledger", func(data *ServiceData) { data.Ledger = nil }},
		{"saver", func(data *ServiceData) { data.FileSaver = nil }},
		{"concurrency", func(data *ServiceData) { data.Concurrency = 0 }},
		{"channel", func(data *ServiceData) { data.FilesCh = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, _, _ := newTestData()
			data.FilesCh = make(chan string)
			tc.prepare(data)
			_, err := StartUploaderService(data)
			assert.NotNil(t, err)
		})
	}
}
