package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"basket-share/db"
)

type publishedEvent struct {
	Code  string
	Event string
	Data  any
}

// recordingPublisher captures broadcasts so tests can assert on the
// post-commit events without a websocket in the loop.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingPublisher) Publish(code, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Code: code, Event: event, Data: data})
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

// skipWithoutDB follows the integration-test convention: these tests
// need a migrated database and skip otherwise.
func skipWithoutDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping basket integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping basket integration test: no DB pool")
	}
}

func TestBasketLifecycle_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	rec := &recordingPublisher{}
	SetPublisher(rec)
	defer SetPublisher(nil)

	b, err := CreateBasket(ctx)
	if err != nil {
		t.Fatalf("CreateBasket: %v", err)
	}
	if len(b.Code) != 8 {
		t.Errorf("basket code %q, want 8 characters", b.Code)
	}

	if err := JoinBasket(ctx, b.Code, "Alice"); err != nil {
		t.Fatalf("JoinBasket: %v", err)
	}

	item, err := AddItem(ctx, b.Code, "Milk", 2.5, 1, "Alice")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items, err := ListItems(ctx, b.Code)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if got.ID != item.ID || got.Product != "Milk" || got.Price != 2.5 || got.Quantity != 1 || got.AddedBy != "Alice" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	if err := RemoveItem(ctx, b.Code, item.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	items, err = ListItems(ctx, b.Code)
	if err != nil {
		t.Fatalf("ListItems after remove: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) after remove = %d, want 0", len(items))
	}

	// Delete is not idempotent at the API level: the second call fails.
	if err := RemoveItem(ctx, b.Code, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("second RemoveItem = %v, want ErrItemNotFound", err)
	}

	want := []string{"participant_joined", "item_added", "item_deleted"}
	names := rec.names()
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	for _, e := range rec.events {
		if e.Code != b.Code {
			t.Errorf("event %q published to %q, want %q", e.Event, e.Code, b.Code)
		}
	}
}

func TestCreateBasket_UniqueCodes_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		b, err := CreateBasket(ctx)
		if err != nil {
			t.Fatalf("CreateBasket #%d: %v", i, err)
		}
		if _, dup := seen[b.Code]; dup {
			t.Fatalf("duplicate code %q", b.Code)
		}
		seen[b.Code] = struct{}{}
	}
}

func TestJoinBasket_NotFound_Integration(t *testing.T) {
	skipWithoutDB(t)
	err := JoinBasket(context.Background(), "00000000", "Alice")
	if !errors.Is(err, ErrBasketNotFound) {
		t.Errorf("JoinBasket(unknown code) = %v, want ErrBasketNotFound", err)
	}
}

func TestJoinBasket_EmptyName(t *testing.T) {
	// No DB round-trip happens for an empty name.
	err := JoinBasket(context.Background(), "00000000", "")
	if !errors.Is(err, ErrNameRequired) {
		t.Errorf("JoinBasket(empty name) = %v, want ErrNameRequired", err)
	}
}

func TestAddItem_NotFound_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	_, err := AddItem(ctx, "00000000", "Milk", 2.5, 1, "Alice")
	if !errors.Is(err, ErrBasketNotFound) {
		t.Errorf("AddItem(unknown code) = %v, want ErrBasketNotFound", err)
	}
}

func TestListItems_NotFound_Integration(t *testing.T) {
	skipWithoutDB(t)
	_, err := ListItems(context.Background(), "00000000")
	if !errors.Is(err, ErrBasketNotFound) {
		t.Errorf("ListItems(unknown code) = %v, want ErrBasketNotFound", err)
	}
}

func TestRemoveItem_CrossBasket_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	b1, err := CreateBasket(ctx)
	if err != nil {
		t.Fatalf("CreateBasket: %v", err)
	}
	b2, err := CreateBasket(ctx)
	if err != nil {
		t.Fatalf("CreateBasket: %v", err)
	}

	item, err := AddItem(ctx, b1.Code, "Bread", 1.2, 2, "Bob")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// Naming the wrong basket must not delete the item.
	if err := RemoveItem(ctx, b2.Code, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("RemoveItem(other basket) = %v, want ErrItemNotFound", err)
	}

	items, err := ListItems(ctx, b1.Code)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Errorf("item was not left intact: %+v", items)
	}
}

func TestAddItem_Concurrent_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	b, err := CreateBasket(ctx)
	if err != nil {
		t.Fatalf("CreateBasket: %v", err)
	}

	products := []string{"Banana", "Orange"}
	var wg sync.WaitGroup
	errs := make([]error, len(products))
	for i, p := range products {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, errs[i] = AddItem(ctx, b.Code, p, 1.0, 1, "Alice")
		}(i, p)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddItem(%s): %v", products[i], err)
		}
	}

	items, err := ListItems(ctx, b.Code)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	found := make(map[string]bool)
	for _, it := range items {
		found[it.Product] = true
	}
	for _, p := range products {
		if !found[p] {
			t.Errorf("concurrent add of %q was lost; listing: %+v", p, items)
		}
	}
}

func TestJoinBasket_ConcurrentSameName_Integration(t *testing.T) {
	skipWithoutDB(t)
	ctx := context.Background()

	b, err := CreateBasket(ctx)
	if err != nil {
		t.Fatalf("CreateBasket: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = JoinBasket(ctx, b.Code, "John Doe")
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent JoinBasket #%d: %v", i, err)
		}
	}

	// No dedup: both joins produce distinct participant rows.
	var count int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM participants WHERE basket_id = $1 AND name = $2`,
		b.ID, "John Doe",
	).Scan(&count)
	if err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if count != 2 {
		t.Errorf("participant rows = %d, want 2", count)
	}
}
