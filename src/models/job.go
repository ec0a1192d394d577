// Package models holds the data types shared across every pipeline
// stage: jobs, records, page structures, and the stage outputs they
// carry.
package models

import "time"

// URLKind classifies a submitted URL.
type URLKind string

const (
	URLKindProduct URLKind = "product"
	URLKindShop    URLKind = "shop"
	URLKindUnknown URLKind = "unknown"
)

// JobStatus is the Job state machine: queued -> running -> {completed|failed}.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Stage names the pipeline stages recorded by the monitor.
type Stage string

const (
	StageCrawling              Stage = "crawling"
	StageAnalyzing             Stage = "analyzing"
	StageGeneratingRecommendations Stage = "generating_recommendations"
	StageEvaluatingChecklist   Stage = "evaluating_checklist"
	StageValidating            Stage = "validating"
	StageFinalizing            Stage = "finalizing"
)

// Progress tracks a running job's current stage and completion percent.
type Progress struct {
	Stage   Stage  `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Job is one client-submitted analysis request, tracked from queued
// to a terminal status. Only the orchestrator mutates a Job; every
// other reader sees an atomic snapshot via the Job Store.
type Job struct {
	ID        string    `json:"job_id"`
	URL       string    `json:"url"`
	URLKind   URLKind   `json:"url_kind"`
	Status    JobStatus `json:"status"`
	Progress  Progress  `json:"progress"`
	Result    *Report   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the completed-job payload returned to polling clients.
type Report struct {
	Product             *Product            `json:"product,omitempty"`
	Shop                *Shop               `json:"shop,omitempty"`
	AnalyzerResult      *AnalyzerResult     `json:"analyzer_result,omitempty"`
	Recommendations     []Recommendation    `json:"recommendations"`
	ChecklistOutcome    *ChecklistOutcome   `json:"checklist_outcome,omitempty"`
	ValidationOutcome   *ValidationOutcome  `json:"validation_outcome,omitempty"`
	DataSource          DataSource          `json:"data_source"`
}

// DataSource names how a Record's HTML was obtained.
type DataSource string

const (
	SourceHTMLFetch DataSource = "html-fetch"
	SourceJSRender  DataSource = "js-render"
	SourceAPI       DataSource = "api"
)
