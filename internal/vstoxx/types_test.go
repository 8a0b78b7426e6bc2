package vstoxx

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingPresent(t *testing.T) {
	assert.True(t, Value(0).Present())
	assert.True(t, Value(18.5).Present())
	assert.False(t, Absent().Present())
	assert.False(t, Value(math.NaN()).Present())
	assert.False(t, Value(math.Inf(-1)).Present())
	assert.False(t, Reading{Value: 12}.Present())

	assert.True(t, math.IsNaN(Absent().Float()))
	assert.Equal(t, 18.5, Value(18.5).Float())
	assert.Equal(t, "", Absent().String())
	assert.Equal(t, "18.5", Value(18.5).String())
}

func TestReadingJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    Reading
		wantErr bool
	}{
		{input: `18.5`, want: Value(18.5)},
		{input: `0`, want: Value(0)},
		{input: `null`, want: Absent()},
		{input: `"NaN"`, want: Absent()},
		{input: `"nan"`, want: Absent()},
		{input: `""`, want: Absent()},
		{input: `"abc"`, wantErr: true},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var r Reading
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestInputRowJSON(t *testing.T) {
	payload := `{"date":"2014-01-02T00:00:00Z","v6i1":null,"v6i2":18.5,"v6i3":19,"v2tx":18.7}`

	var row InputRow
	require.NoError(t, json.Unmarshal([]byte(payload), &row))
	assert.Equal(t, time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC), row.Date)
	assert.False(t, row.V6I1.Present())
	assert.Equal(t, Value(19), row.V6I3)

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestOutputRowJSONFlattensInput(t *testing.T) {
	row := OutputRow{
		InputRow:      InputRow{Date: time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC), V6I2: Value(18.5)},
		LifeTime1:     15 * secondsPerDay,
		ComputedIndex: 18.86,
	}

	out, err := json.Marshal(row)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "v6i2")
	assert.Nil(t, fields["v6i1"])
	assert.Equal(t, float64(1296000), fields["life_time_1"])
	assert.Equal(t, 18.86, fields["computed_index"])
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeFailFast, false},
		{"fail_fast", ModeFailFast, false},
		{" COLLECT_ALL ", ModeCollectAll, false},
		{"retry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultHorizon(t *testing.T) {
	h := DefaultHorizon()
	assert.Equal(t, 31536000.0, h.SecondsPerYear)
	assert.Equal(t, 2592000.0, h.SecondsPer30Days)
	assert.True(t, h.IsValid())
	assert.False(t, Horizon{SecondsPerYear: 1}.IsValid())
}
