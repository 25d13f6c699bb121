package dbtime

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodParseAndValue(t *testing.T) {
	tod, err := Parse("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", tod.String())

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", v)

	_, err = Parse("25:00")
	assert.Error(t, err)

	var scanned Tod
	require.NoError(t, scanned.Scan([]byte("17:05:00")))
	assert.Equal(t, "17:05:00", scanned.String())

	raw, err := scanned.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"17:05"`, string(raw))
}

func TestDateHelpers(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Bratislava")
	require.NoError(t, err)

	// 23:30 UTC on Mar 31 is already Apr 1 in the club zone
	late := time.Date(2025, 3, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), DateOf(late, loc))
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), FirstOfMonth(time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)))

	// CEST = UTC+2
	assert.Equal(t, time.Date(2025, 6, 30, 22, 0, 0, 0, time.UTC), StartOfDay(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), loc))

	assert.Equal(t, "", FormatLocal(nil, loc, "15:04"))
	paid := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-10 13:00", FormatLocal(&paid, loc, "2006-01-02 15:04"))
}
