package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/conversation"
	"telegram-reminder-bot/internal/models"
	"telegram-reminder-bot/internal/timeparse"
)

var _ conversation.Store = (*DB)(nil)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestConversationRoundTrip(t *testing.T) {
	t.Parallel()
	db, _ := openTestDB(t)
	ts := time.Date(2030, time.May, 20, 9, 0, 0, 0, time.UTC)

	if _, ok, err := db.Load(1); err != nil || ok {
		t.Fatalf("Load empty = %v, %v", ok, err)
	}

	want := models.ConversationState{ChatID: 1, Step: models.StepAwaitingTime, PendingText: "buy milk", UpdatedAt: ts}
	if err := db.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := db.Load(1)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if got.Step != want.Step || got.PendingText != want.PendingText || !got.UpdatedAt.Equal(ts) {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	// text is only kept while waiting for the time
	if err := db.Save(models.ConversationState{ChatID: 1, Step: models.StepAwaitingText, PendingText: "stale", UpdatedAt: ts}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, _ = db.Load(1)
	if got.Step != models.StepAwaitingText || got.PendingText != "" {
		t.Fatalf("after restart Load = %+v", got)
	}

	if err := db.Save(models.ConversationState{ChatID: 2, UpdatedAt: ts}); err != nil {
		t.Fatal(err)
	}
	all, err := db.All()
	if err != nil || len(all) != 2 {
		t.Fatalf("All = %v, %v", all, err)
	}

	if err := db.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := db.Load(1); ok {
		t.Fatal("chat 1 still present after Delete")
	}
}

func TestFlowSurvivesReopen(t *testing.T) {
	t.Parallel()
	db, path := openTestDB(t)
	now := time.Date(2030, time.May, 20, 9, 0, 0, 0, time.UTC)

	m := conversation.NewMachine(db, nil, timeparse.Parser{}, zerolog.Nop())
	if _, err := m.Start(10, now); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Input(10, "renew passport", now); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	st, ok, err := reopened.Load(10)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if st.Step != models.StepAwaitingTime || st.PendingText != "renew passport" {
		t.Fatalf("state = %+v", st)
	}
}
