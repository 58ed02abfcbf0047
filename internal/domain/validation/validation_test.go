package validation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireText(t *testing.T) {
	v, err := RequireText("name", "  Hunter ")
	require.NoError(t, err)
	assert.Equal(t, "Hunter", v)

	_, err = RequireText("name", "   ")
	require.Error(t, err)
	assert.True(t, Is(err, KindMissingField))
	assert.Contains(t, err.Error(), "name")
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *float64
		wantErr bool
	}{
		{name: "empty is absent", raw: "", want: nil},
		{name: "dot decimal", raw: "12.5", want: ptr(12.5)},
		{name: "comma decimal", raw: "4,25", want: ptr(4.25)},
		{name: "zero", raw: "0", want: ptr(0)},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "garbage", raw: "heavy", wantErr: true},
		{name: "nan", raw: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeight("weight", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, Is(err, KindInvalidNumber))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckWeight(t *testing.T) {
	assert.NoError(t, CheckWeight("weight", nil))
	assert.NoError(t, CheckWeight("weight", ptr(3)))
	assert.True(t, Is(CheckWeight("weight", ptr(-0.5)), KindInvalidNumber))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("applied_on", "2025-11-07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("applied_on", "2025-11-07T10:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 7, 13, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("applied_on", "07/11/2025")
	assert.True(t, Is(err, KindInvalidDate))

	_, err = ParseDate("applied_on", "")
	assert.True(t, Is(err, KindMissingField))
}

func TestIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("create pet: %w", Missing("name"))
	assert.True(t, Is(err, KindMissingField))
	assert.False(t, Is(err, KindInvalidDate))
	assert.False(t, Is(nil, KindMissingField))
}

func ptr(f float64) *float64 { return &f }
