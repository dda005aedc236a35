package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTreatsNaiveTimestampsAsUTC(t *testing.T) {
	naive, ok := Parse("2025-11-17 19:16:42")
	require.True(t, ok)
	zulu, ok := Parse("2025-11-17 19:16:42Z")
	require.True(t, ok)

	assert.True(t, naive.Equal(zulu))
	assert.Equal(t, time.Date(2025, 11, 17, 19, 16, 42, 0, time.UTC), naive)
}

func TestParseOffsets(t *testing.T) {
	for _, raw := range []string{
		"2025-11-17T13:16:42-06:00",
		"2025-11-17T13:16:42-0600",
		"2025-11-17T19:16:42.000Z",
	} {
		got, ok := Parse(raw)
		require.True(t, ok, raw)
		assert.Equal(t, time.Date(2025, 11, 17, 19, 16, 42, 0, time.UTC), got, raw)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, ok := Parse("yesterday")
	assert.False(t, ok)
	_, ok = Parse("")
	assert.False(t, ok)
}

func TestFormatterRendersInZone(t *testing.T) {
	f, err := NewFormatter("America/Mexico_City")
	require.NoError(t, err)

	assert.Equal(t, "17/11/25, 13:16:42", f.Format("2025-11-17 19:16:42"))
	assert.Equal(t, f.Format("2025-11-17 19:16:42"), f.Format("2025-11-17 19:16:42Z"))
}

func TestFormatterFallsBackToRaw(t *testing.T) {
	f := Formatter{Location: time.UTC}
	assert.Equal(t, "not-a-date", f.Format("not-a-date"))
	assert.Equal(t, Placeholder, f.Format("  "))
}

func TestNewFormatterUnknownZone(t *testing.T) {
	f, err := NewFormatter("Mars/Olympus")
	assert.Error(t, err)
	assert.Equal(t, time.UTC, f.Location)
}
