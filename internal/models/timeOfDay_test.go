package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected TimeOfDay
		wantErr  bool
	}{
		{input: "08:00", expected: NewTimeOfDay(8, 0, 0)},
		{input: "23:59:59", expected: NewTimeOfDay(23, 59, 59)},
		{input: "07:30:00.000000", expected: NewTimeOfDay(7, 30, 0)},
		{input: "25:00", wantErr: true},
		{input: "morning", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTimeOfDay_ScanAndValue(t *testing.T) {
	var tod TimeOfDay

	require.NoError(t, tod.Scan([]byte("09:15:00")))
	assert.Equal(t, NewTimeOfDay(9, 15, 0), tod)

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 18, 45, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(18, 45, 0), tod)

	assert.Error(t, tod.Scan(42))

	value, err := NewTimeOfDay(6, 5, 4).Value()
	require.NoError(t, err)
	assert.Equal(t, "06:05:04", value)
}

func TestTimeOfDay_JSON(t *testing.T) {
	data, err := json.Marshal(NewTimeOfDay(8, 30, 0))
	require.NoError(t, err)
	assert.Equal(t, `"08:30"`, string(data))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"21:00"`), &tod))
	assert.Equal(t, NewTimeOfDay(21, 0, 0), tod)
}

func TestTimeOfDayOf_UsesUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	assert.Equal(t, NewTimeOfDay(14, 0, 0), TimeOfDayOf(time.Date(2025, 12, 1, 9, 0, 0, 0, est)))
}

func TestSortInterests(t *testing.T) {
	interests := []Interest{
		{Slug: "science", DisplayOrder: 6},
		{Slug: "economics", DisplayOrder: 1},
		{Slug: "politics", DisplayOrder: 2},
		{Slug: "custom", DisplayOrder: 2},
	}

	SortInterests(interests)

	slugs := make([]string, 0, len(interests))
	for _, interest := range interests {
		slugs = append(slugs, interest.Slug)
	}
	assert.Equal(t, []string{"economics", "custom", "politics", "science"}, slugs)
}

func TestBaseUUIDModel_BeforeCreate(t *testing.T) {
	digest := &Digest{}
	require.NoError(t, digest.BeforeCreate(nil))
	assert.NotEqual(t, [16]byte{}, [16]byte(digest.ID))

	id := digest.ID
	require.NoError(t, digest.BeforeCreate(nil))
	assert.Equal(t, id, digest.ID)
}
