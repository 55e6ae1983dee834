package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueDate(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "rfc3339 utc", raw: "2025-03-14T17:00:00Z", want: time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)},
		{name: "rfc3339 offset", raw: "2025-03-14T17:00:00-05:00", want: time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", raw: "2025-03-14T17:00:00.250Z", want: time.Date(2025, 3, 14, 17, 0, 0, 250000000, time.UTC)},
		{name: "no zone", raw: "2025-03-14T17:00:00", want: time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)},
		{name: "no seconds", raw: "2025-03-14 09:30", want: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
		{name: "date only is end of day", raw: " 2025-03-14 ", want: time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDueDate(tc.raw, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s", got)
		})
	}
}

func TestParseDueDate_EmptyIsNil(t *testing.T) {
	got, err := ParseDueDate("   ", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseDueDate_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	for _, raw := range []string{"next friday", "14/03/2025", "2019-01-01T00:00:00Z", "2035-01-01", "2025-13-01"} {
		got, err := ParseDueDate(raw, now)
		assert.Error(t, err, raw)
		assert.Nil(t, got, raw)
	}
}
