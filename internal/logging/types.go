package logging

import "time"

// #region event-entry
// Entry is a single row in the event_log table.
type Entry struct {
	Kind        string
	Phase       string
	Summary     string
	PayloadJSON string
	CreatedAt   time.Time
}

// #endregion event-entry

// #region payloads
// PhasePayload is the JSON payload of a phase transition row.
type PhasePayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// EgoPayload is the JSON payload of an ego shift row.
type EgoPayload struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	FromStrength float64 `json:"from_strength"`
	ToStrength   float64 `json:"to_strength"`
}

// RulePayload is the JSON payload of a rule rewrite row.
type RulePayload struct {
	EvictedID          string `json:"evicted_id"`
	EvictedCondition   string `json:"evicted_condition"`
	EvictedActivations int    `json:"evicted_activations"`
	NewID              string `json:"new_id"`
	NewCondition       string `json:"new_condition"`
	NewAction          string `json:"new_action"`
}

// IdentityPayload is the JSON payload of an identity evolution row.
type IdentityPayload struct {
	Similarity float64            `json:"similarity"`
	Values     map[string]float64 `json:"values"`
	Rules      int                `json:"rules"`
}

// #endregion payloads
