package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/micro-ha/netstate/internal/model"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := New(context.Background(), filepath.Join(t.TempDir(), "journal.db"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func transition(id string, kind model.ConnectionType, at time.Time) model.Transition {
	expensive := kind == model.ConnectionTypeCellular
	return model.Transition{
		ID:         id,
		RecordedAt: at,
		Delivered:  id != "t1",
		Result: model.ConnectivityResult{
			Type:        kind,
			IsConnected: true,
			Details:     model.Details{IsConnectionExpensive: &expensive},
		},
	}
}

func TestJournalAppendAndRecent(t *testing.T) {
	t.Helper()

	journal := openJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, kind := range []model.ConnectionType{model.ConnectionTypeWiFi, model.ConnectionTypeCellular, model.ConnectionTypeEthernet} {
		id := "t" + string(rune('1'+i))
		if err := journal.Append(ctx, transition(id, kind, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append(%s) error: %v", id, err)
		}
	}

	items, err := journal.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Recent() returned %d items, want 2", len(items))
	}
	if items[0].ID != "t3" || items[1].ID != "t2" {
		t.Fatalf("Recent() order = %s,%s, want t3,t2", items[0].ID, items[1].ID)
	}
	if items[1].Result.Type != model.ConnectionTypeCellular || !items[1].Delivered {
		t.Fatalf("unexpected row %+v", items[1])
	}
	if items[1].Result.Details.IsConnectionExpensive == nil || !*items[1].Result.Details.IsConnectionExpensive {
		t.Fatal("details not restored from journal")
	}
	if !items[0].RecordedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("recorded_at = %s", items[0].RecordedAt)
	}
}

func TestJournalPruneKeepsNewest(t *testing.T) {
	t.Helper()

	journal := openJournal(t)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		if err := journal.Append(ctx, transition(id, model.ConnectionTypeWiFi, now)); err != nil {
			t.Fatalf("Append(%s) error: %v", id, err)
		}
	}

	removed, err := journal.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("Prune() removed %d, want 3", removed)
	}
	items, err := journal.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "t4" {
		t.Fatalf("remaining rows = %+v, want t4 only", items)
	}
}

func TestJournalRejectsDuplicateIDs(t *testing.T) {
	journal := openJournal(t)
	ctx := context.Background()
	if err := journal.Append(ctx, transition("dup", model.ConnectionTypeWiFi, time.Now())); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := journal.Append(ctx, transition("dup", model.ConnectionTypeWiFi, time.Now())); !errors.Is(err, ErrDuplicateTransition) {
		t.Fatalf("second Append() error = %v, want ErrDuplicateTransition", err)
	}
}

func TestJournalClosed(t *testing.T) {
	journal := openJournal(t)
	if err := journal.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	ctx := context.Background()
	if err := journal.Append(ctx, transition("x", model.ConnectionTypeWiFi, time.Now())); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("Append() after close error = %v, want ErrJournalClosed", err)
	}
	if _, err := journal.Recent(ctx, 1); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("Recent() after close error = %v, want ErrJournalClosed", err)
	}
	if _, err := journal.Prune(ctx, 1); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("Prune() after close error = %v, want ErrJournalClosed", err)
	}
}
