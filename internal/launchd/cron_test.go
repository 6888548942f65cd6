package launchd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pietz/trigr/internal/models"
)

func TestCalendarIntervalsDiscreteFields(t *testing.T) {
	entries, err := calendarIntervals(&models.CronSchedule{
		Hour:   intPtr(8),
		Minute: intPtr(0),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 8, *entries[0].Hour)
	assert.Equal(t, 0, *entries[0].Minute)
	assert.Nil(t, entries[0].Day)
	assert.Nil(t, entries[0].Weekday)
	assert.Nil(t, entries[0].Month)
}

func TestExpandExprSimple(t *testing.T) {
	entries, err := expandExpr("0 8 * * *")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, *entries[0].Minute)
	assert.Equal(t, 8, *entries[0].Hour)
	assert.Nil(t, entries[0].Day)
	assert.Nil(t, entries[0].Weekday)
	assert.Nil(t, entries[0].Month)
}

func TestExpandExprValueList(t *testing.T) {
	entries, err := expandExpr("0,30 9 * * *")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, *entries[0].Minute)
	assert.Equal(t, 30, *entries[1].Minute)
	for _, e := range entries {
		assert.Equal(t, 9, *e.Hour)
	}
}

func TestExpandExprWeekdayRange(t *testing.T) {
	// Weekday 1-5 at 07:15, one entry per weekday.
	entries, err := expandExpr("15 7 * * 1-5")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, 15, *e.Minute)
		assert.Equal(t, 7, *e.Hour)
		assert.Equal(t, i+1, *e.Weekday)
	}
}

func TestExpandExprAllWildcards(t *testing.T) {
	entries, err := expandExpr("* * * * *")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Minute)
	assert.Nil(t, entries[0].Hour)
}

func TestExpandExprDayAndWeekdayDisjoint(t *testing.T) {
	// With both day fields restricted, cron fires when EITHER matches:
	// "the 1st, or any Monday". One conjunctive entry per day field, never
	// a single Day=1 AND Weekday=1 entry.
	entries, err := expandExpr("0 0 1 * 1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, *entries[0].Day)
	assert.Nil(t, entries[0].Weekday)
	assert.Nil(t, entries[1].Day)
	assert.Equal(t, 1, *entries[1].Weekday)
	for _, e := range entries {
		assert.Equal(t, 0, *e.Minute)
		assert.Equal(t, 0, *e.Hour)
	}
}

func TestExpandExprDayAndWeekdayLists(t *testing.T) {
	// 1st and 15th, or Saturday and Sunday: four entries, two per field.
	entries, err := expandExpr("30 6 1,15 * 0,6")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, 1, *entries[0].Day)
	assert.Equal(t, 15, *entries[1].Day)
	assert.Nil(t, entries[0].Weekday)
	assert.Nil(t, entries[1].Weekday)
	assert.Equal(t, 0, *entries[2].Weekday)
	assert.Equal(t, 6, *entries[3].Weekday)
	assert.Nil(t, entries[2].Day)
	assert.Nil(t, entries[3].Day)
}

func TestExpandExprDayOnly(t *testing.T) {
	// A single restricted day field keeps plain conjunctive entries.
	entries, err := expandExpr("0 0 1 * *")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, *entries[0].Day)
	assert.Nil(t, entries[0].Weekday)
}

func TestExpandExprInvalid(t *testing.T) {
	_, err := expandExpr("not a cron expression")
	require.Error(t, err)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestExpandExprTooManyEntries(t *testing.T) {
	// 31 minutes x 13 hours = 403 combinations, past the cap.
	_, err := expandExpr("0-30 0-12 * * *")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar entries")
}
