package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverityBinary(t *testing.T) {
	tests := []struct {
		severity Severity
		expected SeverityBinary
	}{
		{SeverityLight, BinaryLight},
		{SeveritySevere, BinarySevereFatal},
		{SeverityFatal, BinarySevereFatal},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.severity.Binary())
		})
	}
}

func TestTimeKeyOf(t *testing.T) {
	ts := time.Date(2022, 3, 5, 17, 42, 13, 0, time.UTC)
	key := TimeKeyOf(ts)

	assert.Equal(t, time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC), key.Date)
	assert.Equal(t, 17, key.Hour)
	assert.Equal(t, "2022-03-05T17", key.String())
	assert.Equal(t, time.Date(2022, 3, 5, 17, 0, 0, 0, time.UTC), key.Time())
}

func TestTimeKeyOfNormalizesZone(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	ts := time.Date(2022, 1, 1, 2, 30, 0, 0, loc) // 23:30 UTC previous day

	key := TimeKeyOf(ts)
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), key.Date)
	assert.Equal(t, 23, key.Hour)
}
