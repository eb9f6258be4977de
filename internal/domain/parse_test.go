package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEvent(t *testing.T) {
	frozen := time.Date(2024, 4, 26, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("full record", func(t *testing.T) {
		data := []byte(`{"latitude":"40.0","longitude":"-75.0","mean_temperature":"12.4","precipitation":"88.1","ndvi":"0.65","bloom_stage":"2","month":"4","year":"2020","solar_radiation":"182.5","soil_moisture":"0.31","vpd":"0.8","dtr":"9.5","agdd":"412"}`)
		obs, err := ParseRawEvent(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, 40.0, obs.Lat)
		assert.Equal(t, -75.0, obs.Lon)
		assert.Equal(t, 12.4, obs.Temperature)
		assert.Equal(t, 88.1, obs.Precipitation)
		assert.Equal(t, 0.65, obs.NDVI)
		assert.Equal(t, StagePeak, obs.BloomStage)
		assert.Equal(t, 4, obs.Month)
		assert.Equal(t, 2020, obs.Year)
		assert.Equal(t, 0.8, obs.VPD)
		assert.Equal(t, 412.0, obs.AGDD)
		assert.Equal(t, "stream", obs.Source)
		assert.Equal(t, frozen, obs.ProcessedAt)
		assert.NotEmpty(t, obs.ID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{not json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw event")
	})

	t.Run("out-of-range latitude", func(t *testing.T) {
		data := []byte(`{"latitude":"95.0","longitude":"-75.0","month":"4","year":"2020"}`)
		_, err := ParseRawEvent(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("non-numeric longitude", func(t *testing.T) {
		data := []byte(`{"latitude":"40.0","longitude":"east","month":"4","year":"2020"}`)
		_, err := ParseRawEvent(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("empty coordinate is not zero", func(t *testing.T) {
		data := []byte(`{"latitude":"","longitude":"","month":"4","year":"2020"}`)
		_, err := ParseRawEvent(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("month out of range", func(t *testing.T) {
		data := []byte(`{"latitude":"40.0","longitude":"-75.0","month":"13","year":"2020"}`)
		_, err := ParseRawEvent(RawEvent{Value: data})
		require.Error(t, err)
	})

	t.Run("stage clamped", func(t *testing.T) {
		data := []byte(`{"latitude":"40.0","longitude":"-75.0","bloom_stage":"7","month":"4","year":"2020"}`)
		obs, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)
		assert.Equal(t, StagePeak, obs.BloomStage)
	})

	t.Run("deterministic ID", func(t *testing.T) {
		data := []byte(`{"latitude":"40.0","longitude":"-75.0","month":"4","year":"2020"}`)
		a, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)
		b, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
	})
}

func TestObservationID(t *testing.T) {
	a := ObservationID(40, -75, 2020, 4)
	b := ObservationID(40, -75, 2020, 4)
	c := ObservationID(40, -75, 2020, 5)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "obs-")
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lon   float64
		valid bool
	}{
		{"origin", 0, 0, true},
		{"north pole", 90, 0, true},
		{"south pole", -90, 0, true},
		{"date line", 0, 180, true},
		{"lat too high", 90.01, 0, false},
		{"lat too low", -91, 0, false},
		{"lon too high", 0, 180.5, false},
		{"lon too low", 0, -181, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidCoordinate(tt.lat, tt.lon))
		})
	}
}

func TestClampStage(t *testing.T) {
	assert.Equal(t, StageNone, ClampStage(-3))
	assert.Equal(t, StageNone, ClampStage(0))
	assert.Equal(t, StageEmerging, ClampStage(1))
	assert.Equal(t, StagePeak, ClampStage(2))
	assert.Equal(t, StagePeak, ClampStage(9))
}

func TestBucketDate(t *testing.T) {
	assert.Equal(t, "2020-04", BucketDate(2020, 4))
	assert.Equal(t, "1998-12", BucketDate(1998, 12))
}
