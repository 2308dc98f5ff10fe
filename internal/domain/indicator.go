package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// RawIndicatorRecord is one (district, indicator) cell of the raw indicator
// table assembled by the upstream data services. Value must be finite unless
// Missing is set; a missing value is never coerced to zero.
type RawIndicatorRecord struct {
	District  District `json:"district"`
	Indicator string   `json:"indicator"`
	Value     float64  `json:"value"`
	Missing   bool     `json:"missing,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Source    string   `json:"source,omitempty"`
	Year      int      `json:"year,omitempty"`
}

// Snapshot is a complete raw indicator table for one scoring run. Robust
// normalization needs every district's value for an indicator before any
// single district can be scored, so the snapshot is the unit of ingestion.
type Snapshot struct {
	SnapshotID string               `json:"snapshot_id"`
	ProducedAt time.Time            `json:"produced_at"`
	Records    []RawIndicatorRecord `json:"records"`
}

// RawMessage represents an unprocessed snapshot message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseSnapshot deserializes a RawMessage's value into a Snapshot.
func ParseSnapshot(raw RawMessage) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw.Value, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if len(snap.Records) == 0 {
		return Snapshot{}, fmt.Errorf("parse snapshot: no records")
	}
	return snap, nil
}

// IndicatorTable holds raw indicator values keyed by district and indicator
// name. Absent keys are missing values; a cell is never stored as NaN.
type IndicatorTable struct {
	values map[District]map[string]float64
}

// NewIndicatorTable builds a table from raw records. It rejects records for
// unknown districts and non-finite values that are not explicitly marked
// missing, since either breaks the input contract for the whole snapshot.
func NewIndicatorTable(records []RawIndicatorRecord) (*IndicatorTable, error) {
	t := &IndicatorTable{values: make(map[District]map[string]float64)}
	for i, rec := range records {
		if !rec.District.Valid() {
			return nil, fmt.Errorf("record %d: unknown district %q", i, rec.District)
		}
		if rec.Missing {
			// Ensure the district row exists even if every value is missing,
			// so it is reported as degraded rather than silently dropped.
			if t.values[rec.District] == nil {
				t.values[rec.District] = make(map[string]float64)
			}
			continue
		}
		if math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) {
			return nil, fmt.Errorf("record %d: district %q indicator %q: non-finite value not marked missing",
				i, rec.District, rec.Indicator)
		}
		if rec.Indicator == "" {
			return nil, fmt.Errorf("record %d: district %q: empty indicator name", i, rec.District)
		}
		if t.values[rec.District] == nil {
			t.values[rec.District] = make(map[string]float64)
		}
		t.values[rec.District][rec.Indicator] = rec.Value
	}
	return t, nil
}

// Districts returns the districts present in the table, sorted.
func (t *IndicatorTable) Districts() []District {
	districts := make([]District, 0, len(t.values))
	for d := range t.values {
		districts = append(districts, d)
	}
	sort.Slice(districts, func(i, j int) bool { return districts[i] < districts[j] })
	return districts
}

// Column returns indicator values for every district that has one.
func (t *IndicatorTable) Column(indicator string) map[District]float64 {
	col := make(map[District]float64)
	for d, row := range t.values {
		if v, ok := row[indicator]; ok {
			col[d] = v
		}
	}
	return col
}

// Value returns the raw value for one district and indicator.
func (t *IndicatorTable) Value(d District, indicator string) (float64, bool) {
	v, ok := t.values[d][indicator]
	return v, ok
}

// Len returns the number of districts in the table.
func (t *IndicatorTable) Len() int { return len(t.values) }
