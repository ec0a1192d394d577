package models

import "time"

// SelectorStat tracks one extraction rule's empirical success rate
// for one field.
type SelectorStat struct {
	Key        string    `json:"key"`
	Field      string    `json:"field"`
	Successes  int64     `json:"successes"`
	Failures   int64     `json:"failures"`
	QualityEMA float64   `json:"quality_ema"`
	LastUsed   time.Time `json:"last_used"`
}

// SuccessRate is the ranking score shared by SelectorStat, AgentStat,
// and ProxyStat: successes / (successes + failures + 1).
func (s SelectorStat) SuccessRate() float64 {
	return float64(s.Successes) / float64(s.Successes+s.Failures+1)
}

// AgentStat tracks one user-agent string's empirical success rate.
type AgentStat struct {
	Key        string    `json:"key"`
	Successes  int64     `json:"successes"`
	Failures   int64     `json:"failures"`
	QualityEMA float64   `json:"quality_ema"`
	LastUsed   time.Time `json:"last_used"`
	Active     bool      `json:"active"`
}

func (a AgentStat) SuccessRate() float64 {
	return float64(a.Successes) / float64(a.Successes+a.Failures+1)
}

// ProxyStat tracks one proxy's empirical success rate.
type ProxyStat struct {
	Key        string    `json:"key"`
	Successes  int64     `json:"successes"`
	Failures   int64     `json:"failures"`
	QualityEMA float64   `json:"quality_ema"`
	LastUsed   time.Time `json:"last_used"`
	Active     bool      `json:"active"`
}

func (p ProxyStat) SuccessRate() float64 {
	return float64(p.Successes) / float64(p.Successes+p.Failures+1)
}

// Chunk is a field-bound page-structure snippet reused as a learning
// hint for subsequent extractions.
type Chunk struct {
	ID                string         `json:"id"`
	Field             string         `json:"field"`
	ExtractionMethod  string         `json:"extraction_method"`
	SelectorPattern   string         `json:"selector_pattern,omitempty"`
	RelatedClasses    []string       `json:"related_classes"`
	ClassFrequency    map[string]int `json:"class_frequency"`
	ElementPresent    bool           `json:"element_present"`
	ContextURL        string         `json:"context_url"`
	ContextCode       string         `json:"context_code"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ErrorReport is a user-reported field mismatch against a completed
// job, consumed by the Chunk Feedback Loop (C11).
type ErrorReport struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	Field          string     `json:"field"`
	ReportedValue  string     `json:"reported_value,omitempty"`
	Status         string     `json:"status"` // open | resolved
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// StageRecord is one pipeline-stage observation consumed by the
// Pipeline Monitor (C9).
type StageRecord struct {
	JobID      string            `json:"job_id"`
	URL        string            `json:"url"`
	URLKind    URLKind           `json:"url_kind"`
	Stage      Stage             `json:"stage"`
	Status     string            `json:"status"` // success | failure
	DurationMs int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"ts"`
}

// PeriodType enumerates the Monitor's rolling-aggregate bucket sizes.
type PeriodType string

const (
	PeriodHour  PeriodType = "hour"
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

// StageAggregate is one rolling (period_type, period_start, stage)
// bucket maintained by the Monitor.
type StageAggregate struct {
	PeriodType    PeriodType `json:"period_type"`
	PeriodStart   time.Time  `json:"period_start"`
	Stage         Stage      `json:"stage"`
	Total         int64      `json:"total"`
	Success       int64      `json:"success"`
	Failure       int64      `json:"failure"`
	SuccessRate   float64    `json:"success_rate"`
	AvgDurationMs float64    `json:"avg_duration_ms"`
}
