package sqlstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brainvault/brainvault-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := OpenSQLite(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes UpdateIdea timestamps deterministic.
func fixedClock(s *Store, at time.Time) {
	s.now = func() time.Time { return at }
}

type recordingIndexer struct {
	mu            sync.Mutex
	indexed       map[string]string
	projects      map[string]string
	indexCalls    int
	deletedIdeas  []string
	deletedOwners []string
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: make(map[string]string), projects: make(map[string]string)}
}

func (r *recordingIndexer) IndexIdea(_ context.Context, idea *domain.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed[idea.ID] = idea.Content
	r.projects[idea.ID] = idea.Project
	r.indexCalls++
	return nil
}

func (r *recordingIndexer) DeleteIdea(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indexed, id)
	r.deletedIdeas = append(r.deletedIdeas, id)
	return nil
}

func (r *recordingIndexer) DeleteOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedOwners = append(r.deletedOwners, ownerID)
	return nil
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"users", "ideas"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", s.Driver())
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := OpenSQLite(path, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	u, _, err := s.GetOrCreateUserByExternalID(context.Background(), "auth0|persist", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	s.Close()

	s2, err := OpenSQLite(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetUser(context.Background(), u.ID); err != nil {
		t.Errorf("user lost across reopen: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("/tmp/a.db")
	want := "file:/tmp/a.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	custom := "file:/tmp/a.db?_pragma=foreign_keys(1)"
	if sqliteDSN(custom) != custom {
		t.Errorf("explicit pragmas should be left alone")
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	a := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Millisecond)
	c := a.Add(time.Second)

	fa, fb, fc := formatTime(a), formatTime(b), formatTime(c)
	if !(fa < fb && fb < fc) {
		t.Errorf("lexical order broken: %s %s %s", fa, fb, fc)
	}

	parsed, err := parseTime(fb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(b) {
		t.Errorf("round trip: got %v, want %v", parsed, b)
	}
}
