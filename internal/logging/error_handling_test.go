package logging

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type rollbacker struct {
	err error
}

func (r *rollbacker) Rollback() error {
	return r.err
}

func TestSafeClose(t *testing.T) {
	t.Run("closes response body", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("timetable"))
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)

		SafeCloseWithLogging(resp.Body, logger, "test_operation")
		assert.Empty(t, buf.String())
	})

	t.Run("logs close failures", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{err: assert.AnError}, logger, "test_operation")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to close resource"`)
		assert.Contains(t, output, `"operation":"test_operation"`)
	})

	t.Run("nil closer", func(t *testing.T) {
		assert.NotPanics(t, func() { SafeCloseWithLogging(nil, nil, "noop") })
	})
}

func TestSafeRollback(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog bool
	}{
		{name: "rollback fails", err: assert.AnError, wantLog: true},
		{name: "already committed", err: sql.ErrTxDone},
		{name: "already committed and wrapped", err: fmt.Errorf("rollback: %w", sql.ErrTxDone)},
		{name: "rollback succeeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewStructuredLogger(&buf, slog.LevelInfo)

			SafeRollbackWithLogging(&rollbacker{err: tt.err}, logger, "import_feed")

			if tt.wantLog {
				assert.Contains(t, buf.String(), `"msg":"failed to rollback transaction"`)
				assert.Contains(t, buf.String(), `"operation":"import_feed"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestHandleDeferredError(t *testing.T) {
	t.Run("cleanup failure becomes the error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, logger, "close_statement")
			return nil
		}

		err := run()
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "close_statement failed")
		assert.Contains(t, buf.String(), `"msg":"deferred operation failed"`)
	})

	t.Run("original error wins", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)
		original := fmt.Errorf("query failed")

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, logger, "close_statement")
			return original
		}

		assert.Equal(t, original, run())
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
	})

	t.Run("successful cleanup", func(t *testing.T) {
		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return nil }, nil, "close_statement")
			return nil
		}
		assert.NoError(t, run())
	})
}
