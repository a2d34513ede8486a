package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewEmptyRequestError(), http.StatusBadRequest},
		{"not found", NewNotFoundError("session", "42"), http.StatusNotFound},
		{"conflict", NewConflictError("Keyword already in favorites", "favorite", "x"), http.StatusConflict},
		{"persistence", NewPersistenceError("failed to save session", "save_session", cause), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", NewNotFoundError("favorite", "x")), http.StatusNotFound},
		{"plain", cause, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	src := NewSourceUnavailable("google_trends", "measure", "dog training", stderrors.New("timeout"))
	require.True(t, IsSourceUnavailable(fmt.Errorf("collect: %w", src)))
	require.False(t, IsValidation(src))

	require.True(t, IsValidation(NewValidationError("bad", "field", 1)))
	require.True(t, IsNotFound(NewNotFoundError("session", "1")))
	require.True(t, IsConflict(NewConflictError("dup", "favorite", "a")))
}

func TestMessageHidesCause(t *testing.T) {
	err := NewPersistenceError("failed to load session", "load_session", stderrors.New("disk I/O error"))

	require.Equal(t, "failed to load session: disk I/O error", err.Error())
	require.Equal(t, "failed to load session", Message(err))
	require.Equal(t, "Internal server error", Message(stderrors.New("boom")))

	var target *PersistenceError
	require.True(t, As(fmt.Errorf("wrap: %w", err), &target))
	require.Equal(t, "load_session", target.Operation)
}

func TestCacheErrorUnwraps(t *testing.T) {
	cause := stderrors.New("redis down")
	err := NewCacheError("failed to get cache value", "get", "kdp:suggest:x", cause)
	require.True(t, Is(err, cause))
	require.Equal(t, "kdp:suggest:x", err.Key)
}
