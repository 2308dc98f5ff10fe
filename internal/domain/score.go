package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RiskScore is the final composite for one district, with the component
// inputs retained for traceability and the aggregation mode that produced it.
type RiskScore struct {
	District         District        `json:"district"`
	Risk             float64         `json:"risk"`
	Rank             int             `json:"rank,omitempty"`
	Category         RiskCategory    `json:"category"`
	Hazard           float64         `json:"hazard"`
	Exposure         float64         `json:"exposure"`
	AdaptiveCapacity float64         `json:"adaptive_capacity"`
	Vulnerability    float64         `json:"vulnerability"`
	Mode             AggregationMode `json:"mode"`
	Centroid         Geo             `json:"centroid,omitempty"`
	ScoredAt         time.Time       `json:"scored_at"`
}

// Issue records a per-district scoring failure. A run produces both a results
// table and a parallel issue list, so partial results stay usable when some
// districts are degraded.
type Issue struct {
	District District `json:"district"`
	Stage    string   `json:"stage"`
	Message  string   `json:"message"`
}

// OutputMessage is the serialized form destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeRiskScore marshals a RiskScore into an output message keyed by
// district, with routing metadata in headers.
func SerializeRiskScore(score RiskScore) (OutputMessage, error) {
	data, err := json.Marshal(score)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize risk score: %w", err)
	}
	return OutputMessage{
		Key:   []byte(score.District),
		Value: data,
		Headers: map[string]string{
			"district":  string(score.District),
			"mode":      string(score.Mode),
			"scored_at": score.ScoredAt.Format(time.RFC3339),
		},
	}, nil
}
