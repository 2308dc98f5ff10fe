package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllDistricts(t *testing.T) {
	districts := AllDistricts()
	require.Len(t, districts, 28)
	assert.Equal(t, District("Balaka"), districts[0])
	assert.Equal(t, District("Zomba"), districts[27])
	for i := 1; i < len(districts); i++ {
		assert.Less(t, districts[i-1], districts[i])
	}
}

func TestDistrict_Valid(t *testing.T) {
	assert.True(t, District("Nsanje").Valid())
	assert.True(t, District("Nkhata Bay").Valid())
	assert.False(t, District("nsanje").Valid())
	assert.False(t, District("Harare").Valid())
	assert.False(t, District("").Valid())
}

func TestDistrict_Centroid(t *testing.T) {
	c := District("Nsanje").Centroid()
	assert.InDelta(t, -16.92, c.Lat, 1e-9)
	assert.InDelta(t, 35.26, c.Lon, 1e-9)

	assert.Equal(t, Geo{}, District("unknown").Centroid())
}

func TestNewIndicatorTable(t *testing.T) {
	t.Run("builds table", func(t *testing.T) {
		table, err := NewIndicatorTable([]RawIndicatorRecord{
			{District: "Nsanje", Indicator: "flood_risk", Value: 9.5},
			{District: "Nsanje", Indicator: "poverty_rate", Value: 81.2},
			{District: "Lilongwe", Indicator: "flood_risk", Value: 2.0},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, table.Len())
		assert.Equal(t, []District{"Lilongwe", "Nsanje"}, table.Districts())

		col := table.Column("flood_risk")
		assert.Equal(t, map[District]float64{"Nsanje": 9.5, "Lilongwe": 2.0}, col)

		v, ok := table.Value("Nsanje", "poverty_rate")
		require.True(t, ok)
		assert.Equal(t, 81.2, v)
	})

	t.Run("rejects unknown district", func(t *testing.T) {
		_, err := NewIndicatorTable([]RawIndicatorRecord{
			{District: "Gotham", Indicator: "flood_risk", Value: 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown district")
	})

	t.Run("rejects NaN not marked missing", func(t *testing.T) {
		_, err := NewIndicatorTable([]RawIndicatorRecord{
			{District: "Zomba", Indicator: "flood_risk", Value: math.NaN()},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-finite")
	})

	t.Run("rejects empty indicator name", func(t *testing.T) {
		_, err := NewIndicatorTable([]RawIndicatorRecord{
			{District: "Zomba", Value: 3},
		})
		require.Error(t, err)
	})

	t.Run("missing records leave cells absent", func(t *testing.T) {
		table, err := NewIndicatorTable([]RawIndicatorRecord{
			{District: "Zomba", Indicator: "flood_risk", Missing: true, Value: math.NaN()},
			{District: "Nsanje", Indicator: "flood_risk", Value: 9.5},
		})
		require.NoError(t, err)

		// Zomba stays in the table (to be reported as degraded) but the
		// cell itself is absent, never coerced to zero.
		assert.Equal(t, []District{"Nsanje", "Zomba"}, table.Districts())
		_, ok := table.Value("Zomba", "flood_risk")
		assert.False(t, ok)
		assert.Len(t, table.Column("flood_risk"), 1)
	})
}

func TestParseSnapshot(t *testing.T) {
	t.Run("valid snapshot", func(t *testing.T) {
		data := []byte(`{"snapshot_id":"snap-2026-08","produced_at":"2026-08-01T00:00:00Z","records":[{"district":"Nsanje","indicator":"flood_risk","value":9.5,"unit":"events","year":2026}]}`)
		snap, err := ParseSnapshot(RawMessage{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "snap-2026-08", snap.SnapshotID)
		require.Len(t, snap.Records, 1)
		assert.Equal(t, District("Nsanje"), snap.Records[0].District)
		assert.Equal(t, 9.5, snap.Records[0].Value)
		assert.Equal(t, 2026, snap.Records[0].Year)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseSnapshot(RawMessage{Value: []byte("{invalid")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse snapshot")
	})

	t.Run("empty records", func(t *testing.T) {
		_, err := ParseSnapshot(RawMessage{Value: []byte(`{"snapshot_id":"s","records":[]}`)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no records")
	})
}

func TestSerializeRiskScore(t *testing.T) {
	scoredAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	score := RiskScore{
		District:         "Nsanje",
		Risk:             72.68,
		Category:         CategoryHigh,
		Hazard:           80,
		Exposure:         60,
		AdaptiveCapacity: 20,
		Vulnerability:    80,
		Mode:             ModeMultiplicative,
		ScoredAt:         scoredAt,
	}

	msg, err := SerializeRiskScore(score)
	require.NoError(t, err)

	assert.Equal(t, []byte("Nsanje"), msg.Key)
	assert.Equal(t, "Nsanje", msg.Headers["district"])
	assert.Equal(t, "multiplicative", msg.Headers["mode"])
	assert.Equal(t, "2026-08-30T12:00:00Z", msg.Headers["scored_at"])

	var roundtrip RiskScore
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, score.District, roundtrip.District)
	assert.Equal(t, score.Risk, roundtrip.Risk)
	assert.Equal(t, score.Category, roundtrip.Category)
	assert.Equal(t, score.Vulnerability, roundtrip.Vulnerability)
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	assert.Equal(t, fixed, Now())

	// Stamps come back in UTC even when the clock runs in another zone.
	lilongwe := time.FixedZone("CAT", 2*60*60)
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 2, 0, 0, 0, lilongwe)))
	got := Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(fixed))

	SetClock(nil)
	assert.Less(t, time.Since(Now()), time.Second)
}
