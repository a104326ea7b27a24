package logging

import (
	"fmt"
	"os"
	"sync"
)

const backupCount = 5

// sink is an append-only log file with size-based rotation. Every
// write is synced to disk before it returns, so a crash loses nothing
// already logged; the owning Context's flush ticker re-syncs as a
// backstop after fallback reopens.
type sink struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	maxSize int64 // 0 = no rotation
	written int64
}

func newSink(path string, maxSize int64) (*sink, error) {
	s := &sink{path: path, maxSize: maxSize}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sink) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("logging: stat %s: %w", s.path, err)
	}
	s.f = f
	s.written = info.Size()
	return nil
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, os.ErrClosed
	}
	if s.maxSize > 0 && s.written+int64(len(p)) > s.maxSize {
		if err := s.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := s.f.Write(p)
	s.written += int64(n)
	if err == nil {
		err = s.f.Sync()
	}
	return n, err
}

// rotate shifts existing backups (.1 -> .2, ...) and starts a fresh
// file. Rename errors on missing backups are expected and ignored.
func (s *sink) rotate() error {
	if err := s.f.Close(); err != nil {
		return err
	}
	for i := backupCount - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", s.path, i), fmt.Sprintf("%s.%d", s.path, i+1))
	}
	if err := os.Rename(s.path, s.path+".1"); err != nil {
		return err
	}
	return s.open()
}

func (s *sink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	return s.f.Sync()
}

func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Sync()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	s.f = nil
	return err
}
