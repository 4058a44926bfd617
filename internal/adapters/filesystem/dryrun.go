package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/archstrap/internal/ports"
)

// DryRunFileSystem reads through to another file system and records the
// writes it would have made. Simulated writes are visible to later reads
// within the same run.
type DryRunFileSystem struct {
	mu      sync.Mutex
	base    ports.FileSystem
	logger  ports.Logger
	written map[string][]byte
	dirs    map[string]bool
	ops     []string
	seq     int
}

// NewDryRunFileSystem wraps base. logger may be nil.
func NewDryRunFileSystem(base ports.FileSystem, logger ports.Logger) *DryRunFileSystem {
	return &DryRunFileSystem{
		base:    base,
		logger:  logger,
		written: make(map[string][]byte),
		dirs:    make(map[string]bool),
	}
}

// ReadFile returns simulated content when present, otherwise base content.
func (d *DryRunFileSystem) ReadFile(path string) ([]byte, error) {
	d.mu.Lock()
	data, ok := d.written[path]
	d.mu.Unlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	return d.base.ReadFile(path)
}

// WriteFile records the write without touching the disk.
func (d *DryRunFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	d.mu.Lock()
	d.written[path] = append([]byte(nil), data...)
	d.mu.Unlock()
	d.record(fmt.Sprintf("write %s (%d bytes, %s)", path, len(data), perm))
	return nil
}

// Exists reports simulated or real existence.
func (d *DryRunFileSystem) Exists(path string) bool {
	d.mu.Lock()
	_, file := d.written[path]
	dir := d.dirs[path]
	d.mu.Unlock()
	return file || dir || d.base.Exists(path)
}

// IsDir reports simulated or real directories.
func (d *DryRunFileSystem) IsDir(path string) bool {
	d.mu.Lock()
	dir := d.dirs[path]
	d.mu.Unlock()
	return dir || d.base.IsDir(path)
}

// MkdirAll records the directory.
func (d *DryRunFileSystem) MkdirAll(path string, _ os.FileMode) error {
	d.mu.Lock()
	d.dirs[path] = true
	d.mu.Unlock()
	d.record("mkdir -p " + path)
	return nil
}

// MkdirTemp returns a deterministic name that is never created.
func (d *DryRunFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	d.mu.Lock()
	d.seq++
	name := filepath.Join(dir, fmt.Sprintf("%s-dryrun%d", trimStar(pattern), d.seq))
	d.dirs[name] = true
	d.mu.Unlock()
	d.record("mktemp -d " + name)
	return name, nil
}

// RemoveAll records the removal.
func (d *DryRunFileSystem) RemoveAll(path string) error {
	d.mu.Lock()
	delete(d.dirs, path)
	delete(d.written, path)
	d.mu.Unlock()
	d.record("rm -rf " + path)
	return nil
}

// Operations returns every simulated operation in order.
func (d *DryRunFileSystem) Operations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ops))
	copy(out, d.ops)
	return out
}

func (d *DryRunFileSystem) record(op string) {
	d.mu.Lock()
	d.ops = append(d.ops, op)
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Info(context.Background(), "dry-run", ports.F("file", op))
	}
}

func trimStar(pattern string) string {
	out := make([]byte, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' {
			out = append(out, pattern[i])
		}
	}
	if len(out) == 0 {
		return "tmp"
	}
	return string(out)
}

var _ ports.FileSystem = (*DryRunFileSystem)(nil)
