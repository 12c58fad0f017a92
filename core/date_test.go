package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "", want: Date{}},
		{in: " 2024-01-31 ", want: NewDate(2024, time.January, 31)},
		{in: "2024-01-31T23:30:00+01:00", want: NewDate(2024, time.January, 31)},
		{in: "2024-01-31T23:30:00Z", want: NewDate(2024, time.January, 31)},
		{in: "31/01/2024", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got.Time), "got %s", got)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
		None  Date `json:"none"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-01","end":"2024-01-31T00:00:00.000Z","none":null}`), &v))
	assert.Equal(t, "2024-01-01", v.Start.String())
	assert.Equal(t, "2024-01-31", v.End.String())
	assert.False(t, v.None.Valid())

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-01","end":"2024-01-31","none":null}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"soon"}`), &v))
}

func TestDate_compare(t *testing.T) {
	jan31 := NewDate(2024, time.January, 31)
	feb1 := DateOf(time.Date(2024, time.February, 1, 23, 59, 0, 0, time.FixedZone("WAT", 3600)))

	assert.True(t, jan31.Before(feb1))
	assert.True(t, feb1.After(jan31))
	assert.False(t, jan31.Before(NewDate(2024, time.January, 31)))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.March, 5, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}
