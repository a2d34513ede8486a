package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kapu/kdp-keyword-go/internal/config"
	"github.com/kapu/kdp-keyword-go/internal/domain"
	"github.com/kapu/kdp-keyword-go/pkg/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, config.DriverSQLite, zap.NewNop())
	var clockMu sync.Mutex
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func records(keywords ...string) []domain.ScoredResult {
	out := make([]domain.ScoredResult, len(keywords))
	for i, kw := range keywords {
		out[i] = domain.ScoredResult{
			Keyword:            domain.Keyword(kw),
			SearchVolume:       1000 + i,
			AmazonResults:      40000,
			CompetitionScore:   66.67,
			DifficultyScore:    60.87,
			ProfitabilityScore: 48.41,
			OpportunityScore:   45.63,
		}
	}
	return out
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := setup(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := NewSQLStore(nil, config.DriverPostgres, zap.NewNop())
	require.Equal(t, "SELECT id FROM sessions WHERE name = $1 AND is_autosave = $2",
		pg.rebind("SELECT id FROM sessions WHERE name = ? AND is_autosave = ?"))

	lite := NewSQLStore(nil, config.DriverSQLite, zap.NewNop())
	require.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestSaveSessionUpsertsByName(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	id, err := s.SaveSession(ctx, " puzzles ", records("puzzle book"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := s.SaveSession(ctx, "puzzles", records("puzzle book", "sudoku"))
	require.NoError(t, err)
	require.Equal(t, id, again)

	loaded, err := s.LoadSession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "puzzles", loaded.Name)
	require.Equal(t, records("puzzle book", "sudoku"), loaded.Records)
	require.True(t, loaded.UpdatedAt.After(loaded.CreatedAt))

	_, err = s.SaveSession(ctx, "   ", nil)
	require.True(t, errors.IsValidation(err))
}

func TestLoadSession(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	empty, err := s.LoadSession(ctx, domain.AutosaveSessionID)
	require.NoError(t, err)
	require.True(t, empty.IsAutosave)
	require.Empty(t, empty.Records)

	_, err = s.LoadSession(ctx, "missing")
	require.True(t, errors.IsNotFound(err))
}

func TestAutosaveOverwrites(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Autosave(ctx, records("a", "b")))
	require.NoError(t, s.Autosave(ctx, records("c")))

	loaded, err := s.LoadSession(ctx, domain.AutosaveSessionID)
	require.NoError(t, err)
	require.True(t, loaded.IsAutosave)
	require.Equal(t, records("c"), loaded.Records)

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, list[0].KeywordCount)
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	first, err := s.SaveSession(ctx, "first", records("a"))
	require.NoError(t, err)
	second, err := s.SaveSession(ctx, "second", records("a", "b"))
	require.NoError(t, err)
	require.NoError(t, s.Autosave(ctx, records("x", "y", "z")))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, domain.AutosaveSessionID, list[0].ID)
	require.Equal(t, second, list[1].ID)
	require.Equal(t, 2, list[1].KeywordCount)
	require.Equal(t, first, list[2].ID)

	// Resaving moves a session to the top.
	_, err = s.SaveSession(ctx, "first", records("a"))
	require.NoError(t, err)
	list, err = s.ListSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, first, list[0].ID)
}

func TestDeleteSession(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	id, err := s.SaveSession(ctx, "doomed", records("a"))
	require.NoError(t, err)
	require.NoError(t, s.Autosave(ctx, records("b")))

	require.NoError(t, s.DeleteSession(ctx, id))
	require.True(t, errors.IsNotFound(s.DeleteSession(ctx, id)))
	require.True(t, errors.IsValidation(s.DeleteSession(ctx, domain.AutosaveSessionID)))

	_, err = s.LoadSession(ctx, domain.AutosaveSessionID)
	require.NoError(t, err)
}

func TestBackupSkipsAutosave(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.SaveSession(ctx, "one", records("a"))
	require.NoError(t, err)
	_, err = s.SaveSession(ctx, "two", records("b", "c"))
	require.NoError(t, err)
	require.NoError(t, s.Autosave(ctx, records("d")))

	backup, err := s.Backup(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Sessions, 2)
	require.Equal(t, "one", backup.Sessions[0].Name)
	require.Equal(t, records("b", "c"), backup.Sessions[1].Records)
	require.False(t, backup.Timestamp.IsZero())
}

func TestFavorites(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	rec := records("Dog Training")[0]
	require.NoError(t, s.AddFavorite(ctx, rec, "check covers"))

	ok, err := s.IsFavorite(ctx, "dog   training")
	require.NoError(t, err)
	require.True(t, ok)

	err = s.AddFavorite(ctx, rec, "")
	require.True(t, errors.IsConflict(err), "got %v", err)

	require.NoError(t, s.AddFavorite(ctx, records("puzzles")[0], ""))

	favs, err := s.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	require.Equal(t, domain.Keyword("puzzles"), favs[0].Record.Keyword)
	require.Equal(t, domain.Keyword("dog training"), favs[1].Record.Keyword)
	require.Equal(t, "check covers", favs[1].Notes)
	require.Equal(t, 40000, favs[1].Record.AmazonResults)

	require.NoError(t, s.RemoveFavorite(ctx, "DOG TRAINING"))
	require.True(t, errors.IsNotFound(s.RemoveFavorite(ctx, "dog training")))

	ok, err = s.IsFavorite(ctx, "dog training")
	require.NoError(t, err)
	require.False(t, ok)

	require.True(t, errors.IsValidation(s.AddFavorite(ctx, domain.ScoredResult{Keyword: "  "}, "")))
}

func TestNamedSessionsAreUniqueInSchema(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	insert := func(id, name string, autosave bool) error {
		_, err := s.exec(ctx,
			`INSERT INTO sessions (id, name, records, keyword_count, is_autosave, created_at, updated_at)
			 VALUES (?, ?, '[]', 0, ?, ?, ?)`,
			id, name, autosave, s.now(), s.now())
		return err
	}

	require.NoError(t, insert("a", "puzzles", false))
	require.True(t, isUniqueViolation(insert("b", "puzzles", false)))
	require.NoError(t, insert("c", autosaveName, true))
	require.NoError(t, insert("d", autosaveName, false), "a named session may reuse the autosave label")
	require.True(t, isUniqueViolation(insert("a", "other", false)), "primary key")
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, isUniqueViolation(nil))
	require.False(t, isUniqueViolation(sql.ErrNoRows))
	require.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	require.False(t, isUniqueViolation(&pq.Error{Code: "23502"}))

	s := setup(t)
	_, err := s.exec(context.Background(),
		`INSERT INTO favorites (keyword, record, created_at) VALUES (?, NULL, ?)`, "x", s.now())
	require.Error(t, err)
	require.False(t, isUniqueViolation(err), "not null is not a conflict")
}

func TestConcurrentSavesShareOneSession(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	const writers = 8
	ids := make([]string, writers)
	saveErrs := make([]error, writers)
	favErrs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], saveErrs[i] = s.SaveSession(ctx, "race", records("a"))
			favErrs[i] = s.AddFavorite(ctx, records("dog training")[0], "")
		}(i)
	}
	wg.Wait()

	for _, err := range saveErrs {
		require.NoError(t, err)
	}
	for _, id := range ids[1:] {
		require.Equal(t, ids[0], id)
	}
	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	added := 0
	for _, err := range favErrs {
		if err == nil {
			added++
			continue
		}
		require.True(t, errors.IsConflict(err), "got %v", err)
	}
	require.Equal(t, 1, added)
}
