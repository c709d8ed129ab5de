package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const ledgerFileName = "reasoning_ledger.jsonl"

// Ledger owns the ordered sequence of events for one run. Appends are
// atomic per write: each event is serialized and written as one line while
// holding the mutex, so concurrent branches within a stage can log
// simultaneously without interleaving partial lines. Reads happen only
// after all writers for prior stages have joined.
type Ledger struct {
	runID string
	dir   string
	path  string
	log   *zap.Logger

	mu   sync.Mutex
	file *os.File
}

// New creates the ledger for a run, provisioning <baseDir>/<runID>/ and the
// ledger file inside it.
func New(runID, baseDir string, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(dir, ledgerFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}

	return &Ledger{
		runID: runID,
		dir:   dir,
		path:  path,
		log:   log,
		file:  file,
	}, nil
}

// RunID returns the run this ledger belongs to.
func (l *Ledger) RunID() string { return l.runID }

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Append writes one event to the ledger. An event whose run id does not
// match the ledger's is a protocol error: nothing is written.
func (l *Ledger) Append(event Event) error {
	if event.RunID != l.runID {
		return fmt.Errorf("event run_id %q does not match ledger run_id %q", event.RunID, l.runID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("ledger is closed")
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ReadEvents returns all events in write order. Unparsable lines are
// skipped with a warning rather than failing the whole read; a missing
// file yields an empty slice.
func (l *Ledger) ReadEvents() ([]Event, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger for reading: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // analyses can be large
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			l.log.Warn("skipping unparsable ledger line",
				zap.Int("line", lineNum), zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	return events, nil
}

// Close releases the append handle. Further appends fail.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
