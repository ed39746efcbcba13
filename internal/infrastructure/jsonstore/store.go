package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/mobilize/core/internal/infrastructure/logger"
)

var (
	// ErrClosed is returned by operations on a store after Close
	ErrClosed = errors.New("jsonstore: store is closed")
	// ErrWriteFailed wraps every error coming out of a write of the backing file
	ErrWriteFailed = errors.New("jsonstore: write failed")
	// ErrUnflushed is returned by Update when the mutation was applied in memory
	// but the following flush did not complete
	ErrUnflushed = errors.New("jsonstore: mutation applied but not written")
	// ErrReadOnly is returned by Mutate on a store opened read-only
	ErrReadOnly = errors.New("jsonstore: store is read-only")
)

// Options configures a Store
type Options struct {
	// Fs is the filesystem holding the backing file. Defaults to the OS filesystem.
	Fs afero.Fs
	// FileMode is used for the backing file. Defaults to 0644.
	FileMode os.FileMode
	// Skeleton returns the default content of every known area.
	Skeleton func() map[string]interface{}
	// ReadOnly loads an existing file as is. The skeleton is ignored, a missing
	// file is an error and nothing is ever written.
	ReadOnly bool
	Logger   *logger.Logger
	Metrics  *Metrics
}

// Normalizer is implemented by area types that need fixing up after decoding,
// typically to turn nil slices into empty ones.
type Normalizer interface {
	Normalize()
}

// Status describes the persistence state of a store
type Status struct {
	Path      string    `json:"path"`
	Areas     int       `json:"areas"`
	Version   uint64    `json:"version"`
	Persisted uint64    `json:"persisted"`
	Dirty     bool      `json:"dirty"`
	LastWrite time.Time `json:"last_write,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Store is the in-memory mirror of the backing JSON file
type Store struct {
	path     string
	fs       afero.Fs
	mode     os.FileMode
	readOnly bool
	logger   *logger.Logger
	metrics  *Metrics

	mu        sync.RWMutex
	areas     map[string]json.RawMessage
	version   uint64
	persisted uint64
	lastWrite time.Time
	lastErr   error

	requests  chan flushRequest
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open loads the store from path and starts its writer. A missing file is
// materialised from the skeleton before Open returns.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Skeleton == nil {
		opts.Skeleton = func() map[string]interface{} { return map[string]interface{}{} }
	}

	s := &Store{
		path:     path,
		fs:       opts.Fs,
		mode:     opts.FileMode,
		readOnly: opts.ReadOnly,
		logger:   opts.Logger.WithComponent("jsonstore"),
		metrics:  opts.Metrics,
		requests: make(chan flushRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if s.readOnly {
		if err := s.load(nil); err != nil {
			return nil, err
		}
		close(s.done)
		return s, nil
	}

	if err := s.load(opts.Skeleton()); err != nil {
		return nil, err
	}

	go s.run()

	if s.version != s.persisted {
		if err := s.Flush(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, fmt.Errorf("materialise store file: %w", err)
		}
	}

	return s, nil
}

func (s *Store) load(skeleton map[string]interface{}) error {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) && !s.readOnly {
		s.logger.Warnw("Store file does not exist, initialising default skeleton", "path", s.path)
		areas, err := encodeAreas(skeleton)
		if err != nil {
			return err
		}
		s.areas = areas
		s.version = 1
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file %s: %w", s.path, err)
	}

	var areas map[string]json.RawMessage
	if err := json.Unmarshal(data, &areas); err != nil {
		return fmt.Errorf("parse store file %s: %w", s.path, err)
	}
	if areas == nil {
		areas = make(map[string]json.RawMessage)
	}

	var backfilled []string
	for name, value := range skeleton {
		if _, ok := areas[name]; ok {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode default area %q: %w", name, err)
		}
		areas[name] = raw
		backfilled = append(backfilled, name)
	}

	s.areas = areas
	if len(backfilled) > 0 {
		sort.Strings(backfilled)
		s.version = 1
		s.logger.Infow("Backfilled missing store areas", "areas", backfilled)
	}

	s.logger.Infow("Store loaded", "path", s.path, "areas", len(areas))
	return nil
}

func encodeAreas(values map[string]interface{}) (map[string]json.RawMessage, error) {
	areas := make(map[string]json.RawMessage, len(values))
	for name, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode default area %q: %w", name, err)
		}
		areas[name] = raw
	}
	return areas, nil
}

// Get decodes the current value of an area. An absent area yields an empty value.
func Get[T any](s *Store, area string) (T, error) {
	s.mu.RLock()
	raw, ok := s.areas[area]
	s.mu.RUnlock()

	return decode[T](area, raw, ok)
}

// Mutate applies fn to the decoded value of an area and stores the result. The area is
// left untouched when fn returns an error. Mutate does not persist; see Update.
func Mutate[T any](s *Store, area string, fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}
	select {
	case <-s.quit:
		return ErrClosed
	default:
	}

	raw, ok := s.areas[area]
	v, err := decode[T](area, raw, ok)
	if err != nil {
		return err
	}

	if err := fn(&v); err != nil {
		return err
	}
	normalize(&v)

	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode area %q: %w", area, err)
	}

	s.areas[area] = encoded
	s.version++
	s.metrics.mutations.WithLabelValues(area).Inc()
	s.metrics.dirty.Set(float64(s.version - s.persisted))

	return nil
}

// Update is Mutate followed by Flush. Errors from fn or from decoding are returned
// as is and leave the area untouched. When the mutation was applied but the flush
// failed, the error wraps both ErrUnflushed and the flush error.
func Update[T any](ctx context.Context, s *Store, area string, fn func(*T) error) error {
	if err := Mutate(s, area, fn); err != nil {
		return err
	}
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnflushed, err)
	}
	return nil
}

func decode[T any](area string, raw json.RawMessage, ok bool) (T, error) {
	v := empty[T]()
	if !ok || isNull(raw) {
		normalize(&v)
		return v, nil
	}

	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode area %q: %w", area, err)
	}
	normalize(&v)

	return v, nil
}

func empty[T any]() T {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.Slice:
		rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
	case reflect.Map:
		rv.Set(reflect.MakeMap(rv.Type()))
	}
	return v
}

func normalize(v interface{}) {
	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Raw returns a copy of the stored JSON of an area
func (s *Store) Raw(area string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.areas[area]
	if !ok {
		return nil, false
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true
}

// Areas returns the sorted area names
func (s *Store) Areas() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.areas))
	for name := range s.areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the whole document exactly as the next write would produce it
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.encodeLocked()
}

func (s *Store) encodeLocked() ([]byte, error) {
	data, err := json.MarshalIndent(s.areas, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode store: %w", err)
	}
	return append(data, '\n'), nil
}

// Version returns the number of mutations applied since the store was opened
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Status reports the persistence state
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Path:      s.path,
		Areas:     len(s.areas),
		Version:   s.version,
		Persisted: s.persisted,
		Dirty:     s.version != s.persisted,
		LastWrite: s.lastWrite,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Store) writeFile(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, s.mode); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}
