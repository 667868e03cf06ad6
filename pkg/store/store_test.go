package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/nudge/pkg/models"
)

// newTestStore creates an in-memory SQLite store with all migrations applied.
// It automatically closes the store when the test completes.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	s, err := NewSQLStore(models.StorageDriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

type kv interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

func exerciseKV(t *testing.T, s kv) {
	t.Helper()

	_, found, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("nudge.alarms", `[{"id":"a"}]`))
	v, found, err := s.Get("nudge.alarms")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, s.Set("nudge.alarms", `[]`))
	v, _, err = s.Get("nudge.alarms")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestPrefsStore(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ps := NewPrefsStore(a)
	exerciseKV(t, ps)

	assert.True(t, ps.GetBool("asked", true))
	ps.SetBool("asked", false)
	assert.False(t, ps.GetBool("asked", true))
}

func TestPrefsStoreWithoutApp(t *testing.T) {
	ps := NewPrefsStore(nil)

	_, _, err := ps.Get("k")
	assert.Error(t, err)
	assert.Error(t, ps.Set("k", "v"))
}

func TestSQLStoreKV(t *testing.T) {
	exerciseKV(t, newTestStore(t))
}

func TestSQLStoreMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nudge.db")

	s, err := NewSQLStore(models.StorageDriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = NewSQLStore(models.StorageDriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	v, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)

	var version int
	require.NoError(t, s.db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	assert.Equal(t, len(migrations), version)
}

func TestNewSQLStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "whatever")
	assert.Error(t, err)
}

func TestSQLStoreTodos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC)
	first := &models.Todo{Title: "call mom", DueDate: &due, Priority: models.PriorityHigh}
	second := &models.Todo{Title: "buy milk", Priority: 99}

	require.NoError(t, s.CreateTodo(ctx, second))
	require.NoError(t, s.CreateTodo(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.PriorityMedium, second.Priority, "out of range priority is reset")

	todos, err := s.GetTodos(ctx, TodoFilter{})
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "call mom", todos[0].Title, "todos with a due date come first")
	require.NotNil(t, todos[0].DueDate)
	assert.True(t, due.Equal(*todos[0].DueDate))
	assert.Nil(t, todos[1].DueDate)

	require.NoError(t, s.CompleteTodo(ctx, first.ID))
	open := models.TodoStatusOpen
	todos, err = s.GetTodos(ctx, TodoFilter{Status: &open})
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Title)

	require.NoError(t, s.DeleteTodo(ctx, second.ID))
	err = s.DeleteTodo(ctx, second.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.CompleteTodo(ctx, "nope"), ErrNotFound))

	assert.Error(t, s.CreateTodo(ctx, &models.Todo{Title: "  "}))
}
