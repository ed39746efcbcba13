package jsonstore

import (
	"context"
	"fmt"
	"time"
)

type flushRequest struct {
	done chan error
}

// Flush waits until every mutation applied before the call is written to disk.
// The returned error wraps ErrWriteFailed when the write itself failed. A Flush
// racing with Close succeeds when the final write of Close covered its mutations.
func (s *Store) Flush(ctx context.Context) error {
	if s.readOnly {
		return nil
	}

	s.mu.RLock()
	target := s.version
	s.mu.RUnlock()

	req := flushRequest{done: make(chan error, 1)}

	select {
	case s.requests <- req:
	case <-s.quit:
		return s.flushedByClose(ctx, target)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flushedByClose waits for the writer to stop and reports whether the state at
// version target reached the disk
func (s *Store) flushedByClose(ctx context.Context, target uint64) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.persisted >= target {
		return nil
	}
	return ErrClosed
}

// Close stops the writer after a final write of pending mutations
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.quit) })

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version != s.persisted && s.lastErr != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, s.lastErr)
	}
	return nil
}

// run is the only goroutine that touches the backing file
func (s *Store) run() {
	defer close(s.done)

	for {
		select {
		case req := <-s.requests:
			s.answer(s.collect([]flushRequest{req}))
		case <-s.quit:
			s.answer(s.collect(nil))
			return
		}
	}
}

// collect picks up the requests already waiting so one write answers them all
func (s *Store) collect(batch []flushRequest) []flushRequest {
	for {
		select {
		case req := <-s.requests:
			batch = append(batch, req)
		default:
			return batch
		}
	}
}

func (s *Store) answer(batch []flushRequest) {
	err := s.write()
	if len(batch) > 1 {
		s.metrics.coalesced.Add(float64(len(batch) - 1))
	}
	for _, req := range batch {
		req.done <- err
	}
}

func (s *Store) write() error {
	s.mu.RLock()
	version := s.version
	if version == s.persisted {
		s.mu.RUnlock()
		return nil
	}
	data, err := s.encodeLocked()
	s.mu.RUnlock()

	start := time.Now()
	if err == nil {
		err = s.writeFile(data)
	}
	elapsed := time.Since(start)

	s.logger.LogStoreWrite(s.path, len(data), version, elapsed, err)
	s.metrics.observeWrite(elapsed, err)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
		s.lastWrite = time.Now()
		if version > s.persisted {
			s.persisted = version
		}
	}
	s.metrics.dirty.Set(float64(s.version - s.persisted))
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
