package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"eicrcore/internal/builder"
	"eicrcore/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu    sync.Mutex
	calls [][]domain.TestResult
	fail  error
}

func (r *recordingSink) Update(_ context.Context, field string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if field != domain.FieldTestResults {
		return errors.New("unexpected field " + field)
	}
	if r.fail != nil {
		return r.fail
	}
	r.calls = append(r.calls, value.([]domain.TestResult))
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSink) last() []domain.TestResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *recordingSink) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func newSession(t *testing.T, records []domain.TestResult, debounce time.Duration) (*Session, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	s := New("form-1", records, sink, WithDebounce(debounce))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, sink
}

func TestManualEditClearsAutoFilled(t *testing.T) {
	rec := domain.NewTestResult("1")
	rec.AutoFilled = true
	s, _ := newSession(t, []domain.TestResult{rec}, time.Hour)

	got, err := s.Update(rec.ID, domain.FieldZs, "0.45")
	require.NoError(t, err)
	assert.Equal(t, "0.45", got.Zs)
	assert.False(t, got.AutoFilled)

	_, err = s.Update(rec.ID, domain.FieldAutoFilled, "true")
	require.NoError(t, err)
	stored, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.AutoFilled)
}

func TestUpdateKeepsDesignationAndLegacyFields(t *testing.T) {
	rec := domain.NewTestResult("1")
	s, _ := newSession(t, []domain.TestResult{rec}, time.Hour)

	got, err := s.Update(rec.ID, domain.FieldCircuitNumber, "12")
	require.NoError(t, err)
	assert.Equal(t, "C12", got.CircuitDesignation)

	got, err = s.Update(rec.ID, domain.FieldCableSize, "4.0")
	require.NoError(t, err)
	assert.Equal(t, "4.0", got.LiveSize)

	_, err = s.Update(rec.ID, domain.FieldID, "other")
	assert.ErrorIs(t, err, domain.ErrImmutableField)
	_, err = s.Update("missing", domain.FieldZs, "1")
	assert.ErrorIs(t, err, ErrCircuitNotFound)
}

func TestDebounceCoalescesWrites(t *testing.T) {
	rec := domain.NewTestResult("1")
	s, sink := newSession(t, []domain.TestResult{rec}, 30*time.Millisecond)

	for _, v := range []string{"0.1", "0.2", "0.3"} {
		_, err := s.Update(rec.ID, domain.FieldZs, v)
		require.NoError(t, err)
	}
	assert.True(t, s.Pending())
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "0.3", sink.last()[0].Zs)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, sink.count(), "no further flush without further changes")
}

func TestFlushSkipsUnchangedState(t *testing.T) {
	rec := domain.NewTestResult("1")
	s, sink := newSession(t, []domain.TestResult{rec}, time.Hour)

	require.NoError(t, s.Flush(context.Background()))
	assert.Zero(t, sink.count(), "loaded state is already persisted")

	_, err := s.Update(rec.ID, domain.FieldPolarity, "✓")
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, sink.count())

	_, err = s.Update(rec.ID, domain.FieldPolarity, "✓")
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, sink.count(), "no-op edit must not reach the sink")
}

func TestFailedFlushIsRetried(t *testing.T) {
	rec := domain.NewTestResult("1")
	s, sink := newSession(t, []domain.TestResult{rec}, time.Hour)
	sink.setFail(errors.New("disk full"))

	_, err := s.Update(rec.ID, domain.FieldR1R2, "0.3")
	require.NoError(t, err)
	assert.Error(t, s.Flush(context.Background()))

	sink.setFail(nil)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestCloseForceFlushes(t *testing.T) {
	rec := domain.NewTestResult("1")
	sink := &recordingSink{}
	s := New("form-1", []domain.TestResult{rec}, sink, WithDebounce(time.Hour))

	_, err := s.Update(rec.ID, domain.FieldZs, "0.5")
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.False(t, s.Pending())

	_, err = s.Update(rec.ID, domain.FieldZs, "0.6")
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestDeleteAndUndo(t *testing.T) {
	a, b, c := domain.NewTestResult("1"), domain.NewTestResult("2"), domain.NewTestResult("3")
	s, _ := newSession(t, []domain.TestResult{a, b, c}, time.Hour)

	_, err := s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = s.Delete(a.ID)
	require.NoError(t, err)
	removed, err := s.Delete(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)

	restored, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, b.ID, restored.ID)
	assert.Equal(t, []string{b.ID, c.ID}, idsOf(s.Records()), "only the last deletion is undoable")
	assert.False(t, s.CanUndo())

	_, err = s.Delete("missing")
	assert.ErrorIs(t, err, ErrCircuitNotFound)
}

func TestConcurrentDeleteAndUndoKeepSlotConsistent(t *testing.T) {
	const n = 40
	seed := make([]domain.TestResult, n)
	for i := range seed {
		seed[i] = domain.NewTestResult(strconv.Itoa(i + 1))
	}
	s, _ := newSession(t, seed, time.Hour)

	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		deleted, undone int
	)
	for _, rec := range seed {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.Delete(id); err == nil {
				mu.Lock()
				deleted++
				mu.Unlock()
			}
			if _, err := s.Undo(); err == nil {
				mu.Lock()
				undone++
				mu.Unlock()
			}
		}(rec.ID)
	}
	wg.Wait()

	records := s.Records()
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		require.False(t, seen[r.ID], "record %s restored twice", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, n-deleted+undone, len(records))

	_, err := s.RemoveAll(true)
	require.NoError(t, err)
	assert.False(t, s.CanUndo())
}

func TestRemoveAllRequiresConfirmation(t *testing.T) {
	s, _ := newSession(t, []domain.TestResult{domain.NewTestResult("1"), domain.NewTestResult("2")}, time.Hour)

	_, err := s.RemoveAll(false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, 2, s.Len())

	_, err = s.Delete(s.Records()[0].ID)
	require.NoError(t, err)
	n, err := s.RemoveAll(true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, s.Len())
	_, err = s.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo, "bulk clear is not undoable")
}

func TestAddAndInsert(t *testing.T) {
	seed := domain.NewTestResult("4")
	seed.CircuitDescription = "Hall"
	s, _ := newSession(t, []domain.TestResult{seed}, time.Hour)
	added, err := s.Add("Cooker")
	require.NoError(t, err)
	assert.Equal(t, "5", added.CircuitNumber)
	assert.Equal(t, "C5", added.CircuitDesignation)

	blank, err := s.Add("")
	require.NoError(t, err)
	incoming := builder.New().BuildAll([]builder.RawCircuit{
		{Source: builder.SourceBoardScan, Values: map[domain.Field]string{domain.FieldCircuitDescription: "Lights"}},
	})
	report, err := s.Insert(incoming, builder.ModeFillBlank)
	require.NoError(t, err)
	assert.Equal(t, []string{blank.ID}, report.Filled)
	got, err := s.Find("C6")
	require.NoError(t, err)
	assert.Equal(t, "Lights", got.CircuitDescription)
}

func TestMutateErrorLeavesCollection(t *testing.T) {
	s, _ := newSession(t, []domain.TestResult{domain.NewTestResult("1")}, time.Hour)
	err := s.Mutate(func(records []domain.TestResult) ([]domain.TestResult, error) {
		records[0].Zs = "9"
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, "", s.Records()[0].Zs)
	assert.False(t, s.Pending())
}

func TestFingerprintSensitivity(t *testing.T) {
	a := domain.NewTestResult("1")
	b := a
	assert.Equal(t, Fingerprint([]domain.TestResult{a}), Fingerprint([]domain.TestResult{b}))
	b.Notes = "x"
	assert.NotEqual(t, Fingerprint([]domain.TestResult{a}), Fingerprint([]domain.TestResult{b}))
	assert.NotEqual(t, Fingerprint(nil), Fingerprint([]domain.TestResult{a}))
}

func TestDocumentSink(t *testing.T) {
	store := &fakeStore{}
	sink := DocumentSink{Store: store, FormID: "f"}
	require.NoError(t, sink.Update(context.Background(), domain.FieldTestResults, []domain.TestResult{domain.NewTestResult("1")}))
	assert.Contains(t, string(store.saved), `"circuitDesignation":"C1"`)

	store.err = errors.New("offline")
	assert.ErrorContains(t, sink.Update(context.Background(), "x", 1), "offline")
}

func idsOf(records []domain.TestResult) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
