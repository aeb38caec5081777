package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	tables := []struct {
		text string
		want time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"20240115", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, table := range tables {
		t.Run(table.text, func(t *testing.T) {
			got, err := ParseDate(table.text)
			require.NoError(t, err)
			assert.True(t, table.want.Equal(got), "expected %v, got %v", table.want, got)
		})
	}
}

func TestParseDateNaturalLanguage(t *testing.T) {
	now, err := ParseDate("now")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, 2*time.Second)

	today, err := ParseDate("today")
	require.NoError(t, err)
	assert.Equal(t, 0, today.Hour())

	ago, err := ParseDate("2 days ago")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -2), ago, 5*time.Second)

	future, err := ParseDate("1 hour from now")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), future, 5*time.Second)
}

func TestParseDateInvalid(t *testing.T) {
	_, err := ParseDate("not a date")
	assert.Error(t, err)
}
