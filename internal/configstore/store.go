// Package configstore persists the listening port in a small KEY=VALUE text
// file (PORT=<integer>). A missing file is bootstrapped with the default port;
// an existing file that cannot be used is a hard error and is never rewritten.
package configstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/sleeponlan/internal/domain"
)

// DefaultFileName is the port file name used next to the executable.
const DefaultFileName = "config.cfg"

const portKey = "PORT="

// utf8BOM is stripped from the first line; some editors add it on save.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileStore implements ports.ConfigStore on top of a PORT=<integer> file.
type FileStore struct {
	path        string
	defaultPort int
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithDefaultPort overrides the port written on first run.
func WithDefaultPort(port int) Option {
	return func(s *FileStore) {
		s.defaultPort = port
	}
}

// New returns a store backed by the file at path.
func New(path string, opts ...Option) *FileStore {
	s := &FileStore{path: path, defaultPort: domain.DefaultPort}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns config.cfg in the directory of the running executable,
// or in the working directory when the executable cannot be resolved.
func DefaultPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), DefaultFileName)
	}
	return DefaultFileName
}

// Path returns the full path to the port file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the configured port, creating the file with the default port
// when it does not exist yet.
func (s *FileStore) Load() (domain.Configuration, error) {
	cfg, err := s.Read()
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return domain.Configuration{}, err
	}

	cfg = domain.Configuration{Port: s.defaultPort}
	if err := s.write(cfg); err != nil {
		return domain.Configuration{}, &domain.ConfigError{Path: s.path, Reason: "create default", Err: err}
	}
	return cfg, nil
}

// Read parses the existing file without ever creating it. A missing file
// yields an error matching fs.ErrNotExist; every other failure is a
// *domain.ConfigError.
func (s *FileStore) Read() (domain.Configuration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Configuration{}, err
		}
		return domain.Configuration{}, &domain.ConfigError{Path: s.path, Reason: "read", Err: err}
	}
	return parse(s.path, data)
}

// parse returns the value of the first PORT= line. Later PORT= lines and
// unrelated lines are ignored.
func parse(path string, data []byte) (domain.Configuration, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.HasPrefix(line, portKey) {
			continue
		}
		raw := strings.TrimSpace(line[len(portKey):])
		port, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Configuration{}, &domain.ConfigError{
				Path:   path,
				Reason: fmt.Sprintf("invalid port value %q", raw),
				Err:    err,
			}
		}
		return domain.Configuration{Port: port}, nil
	}
	if err := sc.Err(); err != nil {
		return domain.Configuration{}, &domain.ConfigError{Path: path, Reason: "read", Err: err}
	}
	return domain.Configuration{}, &domain.ConfigError{Path: path, Reason: "PORT entry not found"}
}

// write persists cfg atomically (temp file, then rename).
func (s *FileStore) write(cfg domain.Configuration) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	data := []byte(portKey + strconv.Itoa(cfg.Port) + "\n")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
