package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pennywise-app/pennywise/internal/cache"
	"github.com/pennywise-app/pennywise/internal/models"
	"github.com/pennywise-app/pennywise/internal/projection"
	"github.com/pennywise-app/pennywise/internal/search"
	"github.com/pennywise-app/pennywise/internal/session"
	"github.com/pennywise-app/pennywise/internal/storage"
	"github.com/pennywise-app/pennywise/internal/storage/sqlite"
)

// fakeIndex implements search.Index in memory and can be told to fail, so
// tests can assert both what got projected and that projection failures stay
// isolated from the mutation path.
type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]models.RecordDocument
	failing bool
}

var _ search.Index = (*fakeIndex)(nil)

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]models.RecordDocument)}
}

func (f *fakeIndex) IndexRecord(_ context.Context, doc models.RecordDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("index unavailable")
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) UpdateRecord(ctx context.Context, doc models.RecordDocument) error {
	return f.IndexRecord(ctx, doc)
}

func (f *fakeIndex) DeleteRecord(_ context.Context, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("index unavailable")
	}
	delete(f.docs, recordID)
	return nil
}

func (f *fakeIndex) DeleteRecords(ctx context.Context, recordIDs []string) error {
	for _, id := range recordIDs {
		if err := f.DeleteRecord(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeIndex) Search(context.Context, string, string) ([]string, error) { return nil, nil }
func (f *fakeIndex) Close() error                                             { return nil }

func (f *fakeIndex) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

// failingCache wraps a working cache but rejects all writes.
type failingCache struct{ cache.Cache }

func (failingCache) Set(context.Context, string, []byte) error {
	return errors.New("cache unreachable")
}

type fixture struct {
	svc   *Service
	store storage.Store
	cache cache.Cache
	index *fakeIndex
	user  *models.User
	acct  *models.Account
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "pennywise-ledger-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := &models.User{Username: "alice"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	acct := &models.Account{UserID: user.ID, Name: "Checking"}
	if err := store.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	mem := cache.NewMemory()
	resolver := session.NewResolver(mem)
	if err := resolver.SetCurrentAccount(ctx, user.ID, acct.ID); err != nil {
		t.Fatalf("SetCurrentAccount failed: %v", err)
	}

	idx := newFakeIndex()
	svc := NewService(store, projection.NewCacheProjector(mem), projection.NewSearchProjector(idx), resolver)

	return &fixture{svc: svc, store: store, cache: mem, index: idx, user: user, acct: acct}
}

// assertTotals checks the aggregate invariant directly against the store.
func assertTotals(t *testing.T, f *fixture, wantIncome, wantExpense float64) {
	t.Helper()
	acct, err := f.store.GetAccount(context.Background(), f.acct.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if acct.TotalIncome != wantIncome {
		t.Errorf("TotalIncome = %v, want %v", acct.TotalIncome, wantIncome)
	}
	if acct.TotalExpense != wantExpense {
		t.Errorf("TotalExpense = %v, want %v", acct.TotalExpense, wantExpense)
	}
}

func cachedSummary(t *testing.T, f *fixture) models.AccountSummary {
	t.Helper()
	v, err := f.cache.Get(context.Background(), cache.AccountKey(f.user.ID, f.acct.ID))
	if err != nil {
		t.Fatalf("summary not cached: %v", err)
	}
	var s models.AccountSummary
	if err := json.Unmarshal(v, &s); err != nil {
		t.Fatalf("bad cached summary: %v", err)
	}
	return s
}

func TestAddUpdateDeleteScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "Income", Amount: 100})
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	assertTotals(t, f, 100, 0)

	second, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "expense", Amount: 30})
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	assertTotals(t, f, 100, 30)

	// Flipping the first record from income to expense moves its
	// contribution across totals.
	if err := f.svc.UpdateRecord(ctx, first.ID, RecordInput{Type: "expense", Amount: 20}); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	assertTotals(t, f, 0, 50)

	if err := f.svc.DeleteRecord(ctx, second.ID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	assertTotals(t, f, 0, 20)

	// Projections followed along.
	if !f.index.has(first.ID) {
		t.Error("expected first record in index")
	}
	if f.index.has(second.ID) {
		t.Error("expected second record gone from index")
	}
	summary := cachedSummary(t, f)
	if summary.TotalIncome != 0 || summary.TotalExpense != 20 {
		t.Errorf("cached summary = %+v, want 0/20", summary)
	}
}

func TestUpdateReversesOldDelta(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "expense", Amount: 15})
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	rec, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "expense", Amount: 50})
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}

	if err := f.svc.UpdateRecord(ctx, rec.ID, RecordInput{Type: "income", Amount: 80}); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	// -50 expense, +80 income; the other record's contribution is untouched.
	assertTotals(t, f, 80, 15)

	got, err := f.store.GetRecord(ctx, other.ID)
	if err != nil || got.Amount != 15 || got.Type != models.Expense {
		t.Errorf("unrelated record changed: %+v err=%v", got, err)
	}
}

func TestBatchDeleteAllOrNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "expense", Amount: 10})
		if err != nil {
			t.Fatalf("AddRecord failed: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	assertTotals(t, f, 0, 30)

	t.Run("foreign id refuses the whole batch", func(t *testing.T) {
		err := f.svc.DeleteRecordsBatch(ctx, f.acct.ID, []string{ids[0], ids[1], "not-yours"})
		if !errors.Is(err, ErrBatchMismatch) {
			t.Fatalf("expected ErrBatchMismatch, got %v", err)
		}
		assertTotals(t, f, 0, 30)
		records, _ := f.svc.ListByAccount(ctx, f.acct.ID)
		if len(records) != 3 {
			t.Errorf("expected 3 surviving records, got %d", len(records))
		}
	})

	t.Run("record on another account refuses the batch", func(t *testing.T) {
		otherAcct := &models.Account{UserID: f.user.ID, Name: "Savings"}
		if err := f.store.CreateAccount(ctx, otherAcct); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		err := f.svc.DeleteRecordsBatch(ctx, otherAcct.ID, ids[:1])
		if !errors.Is(err, ErrBatchMismatch) {
			t.Fatalf("expected ErrBatchMismatch, got %v", err)
		}
	})

	t.Run("clean batch deletes everything", func(t *testing.T) {
		if err := f.svc.DeleteRecordsBatch(ctx, f.acct.ID, ids); err != nil {
			t.Fatalf("DeleteRecordsBatch failed: %v", err)
		}
		assertTotals(t, f, 0, 0)
		for _, id := range ids {
			if f.index.has(id) {
				t.Errorf("record %s still in index", id)
			}
		}
	})

	t.Run("unknown account fails", func(t *testing.T) {
		err := f.svc.DeleteRecordsBatch(ctx, "missing", []string{"x"})
		if !errors.Is(err, storage.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestConcurrentAddsLoseNoUpdates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Each goroutine can lose a version race at most once per competing
	// winner, so N-1 <= maxConflictRetries keeps retries sufficient.
	const n = maxConflictRetries + 1
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "income", Amount: 10})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddRecord %d failed: %v", i, err)
		}
	}
	assertTotals(t, f, n*10, 0)

	records, err := f.svc.ListByAccountAndType(ctx, f.acct.ID, models.Income)
	if err != nil {
		t.Fatalf("ListByAccountAndType failed: %v", err)
	}
	if len(records) != n {
		t.Errorf("expected %d records, got %d", n, len(records))
	}
}

func TestProjectionFailuresDoNotFailMutations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.index.failing = true

	// Rebuild the service with a cache that rejects writes but a resolver
	// that still works off the healthy memory cache.
	resolver := session.NewResolver(f.cache)
	svc := NewService(f.store,
		projection.NewCacheProjector(failingCache{cache.NewMemory()}),
		projection.NewSearchProjector(f.index),
		resolver,
	)

	rec, err := svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "income", Amount: 40})
	if err != nil {
		t.Fatalf("AddRecord failed despite projection-only errors: %v", err)
	}
	assertTotals(t, f, 40, 0)

	if err := svc.DeleteRecord(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecord failed despite projection-only errors: %v", err)
	}
	assertTotals(t, f, 0, 0)
}

func TestSummaryOverwriteIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "income", Amount: 55}); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	want := cachedSummary(t, f)

	// Re-projecting the same committed state any number of times converges
	// to the identical summary.
	acct, err := f.store.GetAccount(ctx, f.acct.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	cp := projection.NewCacheProjector(f.cache)
	for i := 0; i < 3; i++ {
		cp.Upsert(ctx, acct)
		if got := cachedSummary(t, f); got != want {
			t.Fatalf("summary diverged on repeat %d: %+v != %+v", i, got, want)
		}
	}
}

func TestAddRecordValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("unknown type", func(t *testing.T) {
		_, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "transfer", Amount: 5})
		if !errors.Is(err, ErrInvalidRecordType) {
			t.Fatalf("expected ErrInvalidRecordType, got %v", err)
		}
		assertTotals(t, f, 0, 0)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: "income", Amount: -1})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("no active account", func(t *testing.T) {
		_, err := f.svc.AddRecord(ctx, "user-without-session", RecordInput{Type: "income", Amount: 5})
		if !errors.Is(err, storage.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		resolver := session.NewResolver(f.cache)
		if err := resolver.SetCurrentAccount(ctx, "ghost", f.acct.ID); err != nil {
			t.Fatalf("SetCurrentAccount failed: %v", err)
		}
		_, err := f.svc.AddRecord(ctx, "ghost", RecordInput{Type: "income", Amount: 5})
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("update missing record", func(t *testing.T) {
		err := f.svc.UpdateRecord(ctx, "missing", RecordInput{Type: "income", Amount: 5})
		if !errors.Is(err, storage.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("delete missing record", func(t *testing.T) {
		err := f.svc.DeleteRecord(ctx, "missing")
		if !errors.Is(err, storage.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestAggregateInvariantAcrossRandomishSequence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Apply a mixed sequence and recompute the expected totals from the
	// surviving records after every step.
	type op struct {
		kind   string
		typ    string
		amount float64
	}
	ops := []op{
		{"add", "income", 120},
		{"add", "expense", 45.5},
		{"add", "income", 10},
		{"update0", "expense", 60},
		{"add", "expense", 9.25},
		{"delete1", "", 0},
		{"update2", "income", 33},
	}

	var created []string
	for i, o := range ops {
		var err error
		switch o.kind {
		case "add":
			var rec *models.TransactionRecord
			rec, err = f.svc.AddRecord(ctx, f.user.ID, RecordInput{Type: o.typ, Amount: o.amount})
			if rec != nil {
				created = append(created, rec.ID)
			}
		case "update0":
			err = f.svc.UpdateRecord(ctx, created[0], RecordInput{Type: o.typ, Amount: o.amount})
		case "update2":
			err = f.svc.UpdateRecord(ctx, created[2], RecordInput{Type: o.typ, Amount: o.amount})
		case "delete1":
			err = f.svc.DeleteRecord(ctx, created[1])
		}
		if err != nil {
			t.Fatalf("step %d (%s) failed: %v", i, o.kind, err)
		}

		records, err := f.svc.ListByAccount(ctx, f.acct.ID)
		if err != nil {
			t.Fatalf("ListByAccount failed: %v", err)
		}
		var income, expense float64
		for _, r := range records {
			switch r.Type {
			case models.Income:
				income += r.Amount
			case models.Expense:
				expense += r.Amount
			}
		}
		assertTotals(t, f, income, expense)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "", "c", "b"})
	want := fmt.Sprintf("%v", []string{"a", "b", "c"})
	if fmt.Sprintf("%v", got) != want {
		t.Errorf("dedupe = %v, want %v", got, want)
	}
}
