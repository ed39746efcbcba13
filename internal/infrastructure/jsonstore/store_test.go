package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbPath = "data/database.json"

type mission struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type caisse struct {
	Solde        float64   `json:"solde"`
	Transactions []mission `json:"transactions"`
}

func (c *caisse) Normalize() {
	if c.Transactions == nil {
		c.Transactions = []mission{}
	}
}

func testSkeleton() map[string]interface{} {
	return map[string]interface{}{
		"missions":             []interface{}{},
		"boycotts":             []interface{}{},
		"caisse_manifestation": map[string]interface{}{"solde": 0, "transactions": []interface{}{}},
	}
}

func openStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func readDisk(t *testing.T, fs afero.Fs) map[string]json.RawMessage {
	t.Helper()
	data, err := afero.ReadFile(fs, dbPath)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestOpenMissingFileMaterialisesSkeleton(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs)

	assert.Equal(t, []string{"boycotts", "caisse_manifestation", "missions"}, s.Areas())

	doc := readDisk(t, fs)
	require.Len(t, doc, 3)
	assert.JSONEq(t, `[]`, string(doc["missions"]))
	assert.JSONEq(t, `{"solde":0,"transactions":[]}`, string(doc["caisse_manifestation"]))

	st := s.Status()
	assert.False(t, st.Dirty)
	assert.Empty(t, st.LastError)
}

func TestOpenMalformedFileFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, dbPath, []byte(`{"missions": [`), 0o644))

	_, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse store file")
}

func TestOpenNonObjectDocumentFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, dbPath, []byte(`[1, 2, 3]`), 0o644))

	_, err := Open(context.Background(), dbPath, Options{Fs: fs})
	require.Error(t, err)
}

func TestOpenBackfillsMissingAreas(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, dbPath, []byte(`{"missions":[{"id":"7","title":"kept"}],"polls":[1]}`), 0o644))

	s := openStore(t, fs)

	doc := readDisk(t, fs)
	assert.JSONEq(t, `[{"id":"7","title":"kept"}]`, string(doc["missions"]))
	assert.JSONEq(t, `[1]`, string(doc["polls"]))
	assert.JSONEq(t, `[]`, string(doc["boycotts"]))
	assert.Contains(t, s.Areas(), "caisse_manifestation")
}

func TestIdempotentReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := `{"boycotts":[{"name":"Carrefour"}],"caisse_manifestation":{"solde":12.5,"transactions":[]},"missions":[],"extra":{"b":1,"a":[true,null]}}`
	require.NoError(t, afero.WriteFile(fs, dbPath, []byte(original), 0o644))

	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	after, err := afero.ReadFile(fs, dbPath)
	require.NoError(t, err)
	assert.JSONEq(t, original, string(after))

	reopened := openStore(t, fs)
	snapshot, err := reopened.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, original, string(snapshot))
}

func TestGetAbsentAreaIsEmpty(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs())

	list, err := Get[[]mission](s, "never_written")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	m, err := Get[map[string]int](s, "never_written")
	require.NoError(t, err)
	assert.NotNil(t, m)

	c, err := Get[caisse](s, "never_written")
	require.NoError(t, err)
	assert.NotNil(t, c.Transactions)
}

func TestGetWrongShapeReturnsError(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs())

	_, err := Get[[]mission](s, "caisse_manifestation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `decode area "caisse_manifestation"`)
}

func TestMutateOnAbsentAreaStartsEmpty(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs())

	err := Mutate(s, "cameras_points", func(list *[]mission) error {
		*list = append(*list, mission{ID: "c1"})
		return nil
	})
	require.NoError(t, err)

	got, err := Get[[]mission](s, "cameras_points")
	require.NoError(t, err)
	assert.Equal(t, []mission{{ID: "c1"}}, got)
}

func TestMutateErrorLeavesAreaUntouched(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs())
	before := s.Version()
	boom := errors.New("not found")

	err := Mutate(s, "missions", func(list *[]mission) error {
		*list = append(*list, mission{ID: "ghost"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := Get[[]mission](s, "missions")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, before, s.Version())
}

func TestRapidMutationsAreAllPersistedInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs)

	for _, title := range []string{"x", "y", "z"} {
		title := title
		require.NoError(t, Mutate(s, "missions", func(list *[]mission) error {
			*list = append(*list, mission{ID: "1", Title: title})
			return nil
		}))
	}
	require.NoError(t, s.Flush(context.Background()))

	var onDisk []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &onDisk))
	require.Len(t, onDisk, 3)
	assert.Equal(t, "x", onDisk[0].Title)
	assert.Equal(t, "y", onDisk[1].Title)
	assert.Equal(t, "z", onDisk[2].Title)
}

func TestConcurrentFlushesNeverOverlap(t *testing.T) {
	fs := newRecordingFs()
	s := openStore(t, fs)

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Update(context.Background(), s, "missions", func(list *[]mission) error {
				*list = append(*list, mission{ID: string(rune('a' + i%26)), Title: "concurrent"})
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, maxInFlight := fs.stats()
	assert.Equal(t, 1, maxInFlight)

	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	onDisk, err := afero.ReadFile(fs, dbPath)
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(onDisk))

	var list []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &list))
	assert.Len(t, list, n)
}

func TestQueuedFlushesAreCoalesced(t *testing.T) {
	fs := newRecordingFs()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton, Metrics: metrics})
	require.NoError(t, err)
	defer s.Close(context.Background())

	writesBefore, _ := fs.stats()
	gate := fs.block()

	first := make(chan error, 1)
	go func() {
		first <- Update(context.Background(), s, "missions", func(list *[]mission) error {
			*list = append(*list, mission{ID: "first"})
			return nil
		})
	}()
	require.Eventually(t, func() bool {
		w, _ := fs.stats()
		return w == writesBefore+1
	}, time.Second, time.Millisecond)

	const queued = 5
	results := make(chan error, queued)
	for i := 0; i < queued; i++ {
		go func() {
			results <- Update(context.Background(), s, "missions", func(list *[]mission) error {
				*list = append(*list, mission{ID: "queued"})
				return nil
			})
		}()
	}
	// let every queued caller block on the writer
	time.Sleep(100 * time.Millisecond)
	fs.unblock(gate)

	require.NoError(t, <-first)
	for i := 0; i < queued; i++ {
		require.NoError(t, <-results)
	}

	writesAfter, maxInFlight := fs.stats()
	assert.Equal(t, writesBefore+2, writesAfter)
	assert.Equal(t, 1, maxInFlight)
	assert.Equal(t, float64(queued-1), testutil.ToFloat64(metrics.coalesced))

	var list []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &list))
	assert.Len(t, list, queued+1)
}

func TestFailedWriteIsRecoveredByNextFlush(t *testing.T) {
	fs := newRecordingFs()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton, Metrics: metrics})
	require.NoError(t, err)
	defer s.Close(context.Background())

	fs.fail.Store(true)
	err = Update(context.Background(), s, "missions", func(list *[]mission) error {
		*list = append(*list, mission{ID: "during-failure"})
		return nil
	})
	require.ErrorIs(t, err, ErrWriteFailed)

	st := s.Status()
	assert.True(t, st.Dirty)
	assert.Contains(t, st.LastError, "permission")

	inMemory, err := Get[[]mission](s, "missions")
	require.NoError(t, err)
	assert.Len(t, inMemory, 1)

	var onDisk []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &onDisk))
	assert.Empty(t, onDisk)

	fs.fail.Store(false)
	require.NoError(t, Update(context.Background(), s, "missions", func(list *[]mission) error {
		*list = append(*list, mission{ID: "after-failure"})
		return nil
	}))

	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &onDisk))
	require.Len(t, onDisk, 2)
	assert.Equal(t, "during-failure", onDisk[0].ID)
	assert.Equal(t, "after-failure", onDisk[1].ID)
	assert.False(t, s.Status().Dirty)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.writes.WithLabelValues("error")))
}

func TestFlushWithoutChangesSkipsWrite(t *testing.T) {
	fs := newRecordingFs()
	s := openStore(t, fs)
	before, _ := fs.stats()

	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Flush(context.Background()))

	after, _ := fs.stats()
	assert.Equal(t, before, after)
}

func TestFlushHonoursContext(t *testing.T) {
	fs := newRecordingFs()
	s := openStore(t, fs)

	writesBefore, _ := fs.stats()
	gate := fs.block()
	done := make(chan error, 1)
	go func() {
		done <- Update(context.Background(), s, "missions", func(list *[]mission) error {
			*list = append(*list, mission{ID: "slow"})
			return nil
		})
	}()
	require.Eventually(t, func() bool {
		w, _ := fs.stats()
		return w == writesBefore+1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Flush(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	fs.unblock(gate)
	require.NoError(t, <-done)
}

func TestCloseWritesPendingMutations(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.NoError(t, err)

	require.NoError(t, Mutate(s, "boycotts", func(list *[]mission) error {
		*list = append(*list, mission{ID: "ent_1"})
		return nil
	}))
	require.NoError(t, s.Close(context.Background()))

	var onDisk []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["boycotts"], &onDisk))
	assert.Equal(t, []mission{{ID: "ent_1"}}, onDisk)

	assert.NoError(t, s.Flush(context.Background()), "everything was written by Close")
	assert.ErrorIs(t, Mutate(s, "boycotts", func(*[]mission) error { return nil }), ErrClosed)
	assert.NoError(t, s.Close(context.Background()))
}

func TestFlushRacingCloseReportsFinalWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.NoError(t, err)

	const writers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := Mutate(s, "missions", func(list *[]mission) error {
				*list = append(*list, mission{ID: "m"})
				return nil
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrClosed)
				return
			}
			mu.Lock()
			applied++
			mu.Unlock()
			assert.NoError(t, s.Flush(context.Background()))
		}()
	}

	close(start)
	require.NoError(t, s.Close(context.Background()))
	wg.Wait()

	var onDisk []mission
	require.NoError(t, json.Unmarshal(readDisk(t, fs)["missions"], &onDisk))
	assert.Len(t, onDisk, applied)
}

func TestCloseReportsUnwrittenState(t *testing.T) {
	fs := newRecordingFs()
	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton})
	require.NoError(t, err)

	fs.fail.Store(true)
	require.NoError(t, Mutate(s, "missions", func(list *[]mission) error {
		*list = append(*list, mission{ID: "lost"})
		return nil
	}))

	err = s.Close(context.Background())
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
}

func TestUpdateReportsUnflushedMutation(t *testing.T) {
	fs := newRecordingFs()
	s := openStore(t, fs)

	fs.fail.Store(true)
	err := Update(context.Background(), s, "missions", func(list *[]mission) error {
		*list = append(*list, mission{ID: "kept"})
		return nil
	})
	require.ErrorIs(t, err, ErrUnflushed)
	assert.ErrorIs(t, err, ErrWriteFailed)

	list, err := Get[[]mission](s, "missions")
	require.NoError(t, err)
	assert.Equal(t, []mission{{ID: "kept"}}, list)

	refused := errors.New("refused")
	err = Update(context.Background(), s, "missions", func(*[]mission) error { return refused })
	assert.ErrorIs(t, err, refused)
	assert.NotErrorIs(t, err, ErrUnflushed)

	fs.fail.Store(false)
	require.NoError(t, s.Flush(context.Background()))
}

func TestOpenReadOnly(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton, ReadOnly: true})
	require.ErrorIs(t, err, os.ErrNotExist)
	exists, err := afero.Exists(fs, dbPath)
	require.NoError(t, err)
	assert.False(t, exists)

	original := []byte(`{"missions":[{"id":"m1","title":"Tractage"}]}`)
	require.NoError(t, afero.WriteFile(fs, dbPath, original, 0o644))

	s, err := Open(context.Background(), dbPath, Options{Fs: fs, Skeleton: testSkeleton, ReadOnly: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"missions"}, s.Areas())
	list, err := Get[[]mission](s, "missions")
	require.NoError(t, err)
	assert.Equal(t, []mission{{ID: "m1", Title: "Tractage"}}, list)

	assert.ErrorIs(t, Mutate(s, "missions", func(*[]mission) error { return nil }), ErrReadOnly)
	assert.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	data, err := afero.ReadFile(fs, dbPath)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestRawReturnsCopy(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs())

	raw, ok := s.Raw("missions")
	require.True(t, ok)
	raw[0] = '{'

	again, _ := s.Raw("missions")
	assert.JSONEq(t, `[]`, string(again))

	_, ok = s.Raw("unknown")
	assert.False(t, ok)
}
