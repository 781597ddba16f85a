package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hmizuno/helpmapper/internal/aggregate"
	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/session"
)

func testResult(domain string, pages int) *session.Result {
	return &session.Result{
		SessionID: "test-session",
		Domain:    domain,
		SupportSections: map[classify.Category][]aggregate.PageSummary{
			classify.CategoryFAQ: {{URL: domain + "/faq", Title: "FAQ"}},
		},
		Actionable: &aggregate.Actionable{},
		Stats: session.Stats{
			PagesAnalyzed: pages,
			ContentTypes:  map[string]int{"faq": pages},
			Timestamp:     time.Now().UTC(),
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test_helpmapper.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveResult(testResult("https://example.com", 3)); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	result, createdAt, err := store.GetResult("https://example.com")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a cached result")
	}
	if result.Domain != "https://example.com" || result.Stats.PagesAnalyzed != 3 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(result.SupportSections[classify.CategoryFAQ]) != 1 {
		t.Errorf("Support sections not round-tripped: %+v", result.SupportSections)
	}
	if createdAt.IsZero() {
		t.Error("Expected created timestamp")
	}
}

func TestStoreGetMissingDomain(t *testing.T) {
	store := newTestStore(t)

	result, _, err := store.GetResult("https://unknown.example.com")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil for missing domain, got %+v", result)
	}
}

func TestStoreUpsertReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveResult(testResult("https://example.com", 3)); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.SaveResult(testResult("https://example.com", 7)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	result, _, err := store.GetResult("https://example.com")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result.Stats.PagesAnalyzed != 7 {
		t.Errorf("Expected replaced result with 7 pages, got %d", result.Stats.PagesAnalyzed)
	}

	entries, err := store.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry after upsert, got %d", len(entries))
	}
}

func TestStoreGetFresh(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveResult(testResult("https://example.com", 2)); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	fresh, err := store.GetFresh("https://example.com", time.Hour)
	if err != nil {
		t.Fatalf("GetFresh failed: %v", err)
	}
	if fresh == nil {
		t.Error("Expected fresh result within TTL")
	}

	stale, err := store.GetFresh("https://example.com", -time.Second)
	if err != nil {
		t.Fatalf("GetFresh failed: %v", err)
	}
	if stale != nil {
		t.Error("Expected nil for expired TTL")
	}
}

func TestStoreListAndDelete(t *testing.T) {
	store := newTestStore(t)

	for _, domain := range []string{"https://a.example.com", "https://b.example.com"} {
		if err := store.SaveResult(testResult(domain, 1)); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}
	}

	entries, err := store.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	if err := store.DeleteDomain("https://a.example.com"); err != nil {
		t.Fatalf("DeleteDomain failed: %v", err)
	}

	entries, err = store.ListDomains()
	if err != nil {
		t.Fatalf("ListDomains failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Domain != "https://b.example.com" {
		t.Errorf("Unexpected entries after delete: %+v", entries)
	}
}
