package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// TranscriptRelPath is the transcript location relative to the XDG state
// directory.
const TranscriptRelPath = "archstrap/transcript.log"

// DefaultTranscriptPath returns $XDG_STATE_HOME/archstrap/transcript.log,
// creating the parent directory.
func DefaultTranscriptPath() (string, error) {
	path, err := xdg.StateFile(TranscriptRelPath)
	if err != nil {
		return "", fmt.Errorf("resolve transcript path: %w", err)
	}
	return path, nil
}

// Transcript is an append-only JSON-lines log file.
type Transcript struct {
	*ConsoleLogger
	path string
	file *os.File
}

// OpenTranscript opens path for appending, creating it and its parent
// directory when needed. An empty path selects DefaultTranscriptPath.
func OpenTranscript(path string) (*Transcript, error) {
	if path == "" {
		p, err := DefaultTranscriptPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	return &Transcript{
		ConsoleLogger: NewConsoleLogger(
			WithOutput(f),
			WithJSONFormat(true),
			WithLevel(ports.LevelDebug),
		),
		path: path,
		file: f,
	}, nil
}

// Path returns the transcript file path.
func (t *Transcript) Path() string {
	return t.path
}

// Close closes the underlying file.
func (t *Transcript) Close() error {
	return t.file.Close()
}
