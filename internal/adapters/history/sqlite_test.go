package history

import (
	"cloakbot/internal/core/domain"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Stats(t.Context(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStats{}, stats)
}

func TestRecordAndStats(t *testing.T) {
	s := newTestStore(t)

	records := []domain.JobRecord{
		{ChatID: 1, Route: domain.RoutePhoto, Artifacts: 1, Duration: time.Second},
		{ChatID: 1, Route: domain.RouteHEIC, Artifacts: 2, Duration: 2 * time.Second},
		{ChatID: 1, Route: domain.RouteDNG, Reason: domain.ReasonProtection},
		{ChatID: 2, Route: domain.RoutePhoto, Artifacts: 1},
	}

	for _, r := range records {
		require.NoError(t, s.Record(t.Context(), r))
	}

	stats, err := s.Stats(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStats{Total: 3, Succeeded: 2, Failed: 1, Artifacts: 3}, stats)

	stats, err = s.Stats(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStats{Total: 1, Succeeded: 1, Failed: 0, Artifacts: 1}, stats)
}
