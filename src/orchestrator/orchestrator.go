// Package orchestrator implements the Pipeline Orchestrator (C8): a
// data-driven stage table drives one job from queued through its
// terminal status, recording every transition to the Pipeline Monitor
// and persisting the final Report to the Job Store. Grounded on
// §9's design note ("a small table mapping stage→(required?, timeout,
// degrade-to)"), generalizing order_service.go's sequential
// validate→persist→cache→notify method chain into one data-driven
// loop.
package orchestrator

import (
	"context"
	"time"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/analyzer"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/checklist"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/fetcher"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/parser"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/recommender"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/validator"
)

// Config controls per-stage timeouts, per §4.8 and §5.
type Config struct {
	CrawlTimeout     time.Duration
	AnalyzeTimeout   time.Duration
	ChecklistBudget  time.Duration
	ValidateTimeout  time.Duration
	FinalizeTimeout  time.Duration
}

func defaultConfig(cfg Config) Config {
	if cfg.CrawlTimeout <= 0 {
		cfg.CrawlTimeout = 30 * time.Second
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = 10 * time.Second
	}
	if cfg.ChecklistBudget <= 0 {
		cfg.ChecklistBudget = 5 * time.Second
	}
	if cfg.ValidateTimeout <= 0 {
		cfg.ValidateTimeout = 5 * time.Second
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = 10 * time.Second
	}
	return cfg
}

// pipelineContext accumulates a job's intermediate results as stages
// run.
type pipelineContext struct {
	job               *models.Job
	kind              models.URLKind
	product           *models.Product
	shop              *models.Shop
	dataSource        models.DataSource
	analyzerResult    *models.AnalyzerResult
	recommendations   []models.Recommendation
	checklistOutcome  *models.ChecklistOutcome
	validationOutcome *models.ValidationOutcome
	warning           string
}

// stageSpec is one entry in the orchestrator's data-driven stage
// table.
type stageSpec struct {
	name     models.Stage
	percent  int
	required bool
	timeout  time.Duration
	run      func(ctx context.Context, pc *pipelineContext) error
}

// Orchestrator drives the full job lifecycle queued → running →
// {completed | failed}.
type Orchestrator struct {
	fetcher   *fetcher.Fetcher
	parser    *parser.Parser
	analyzer  *analyzer.Analyzer
	validator *validator.Validator
	perfStore store.PerformanceStore
	jobs      jobstore.JobStore
	monitor   *monitor.Monitor
	log       *logging.Logger
	cfg       Config
}

// New builds an Orchestrator wiring every pipeline stage's component.
func New(f *fetcher.Fetcher, p *parser.Parser, a *analyzer.Analyzer, v *validator.Validator, perfStore store.PerformanceStore, jobs jobstore.JobStore, mon *monitor.Monitor, log *logging.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		fetcher:   f,
		parser:    p,
		analyzer:  a,
		validator: v,
		perfStore: perfStore,
		jobs:      jobs,
		monitor:   mon,
		log:       log,
		cfg:       defaultConfig(cfg),
	}
}

// Run executes one job end to end. It never returns an error: every
// terminal outcome is recorded into the Job Store directly, per §4.8's
// state machine (`queued → running → {completed | failed}`, no other
// transitions).
func (o *Orchestrator) Run(ctx context.Context, job *models.Job) {
	pc := &pipelineContext{job: job, kind: job.URLKind}

	for _, stage := range o.stages() {
		stageCtx, cancel := context.WithTimeout(ctx, stage.timeout)
		start := time.Now()
		err := stage.run(stageCtx, pc)
		duration := time.Since(start)
		cancel()

		status := "success"
		errMsg := ""
		if err != nil {
			status = "failure"
			errMsg = err.Error()
		}
		o.recordStage(ctx, job, stage.name, status, duration, errMsg)

		if err != nil {
			if stage.required {
				o.fail(ctx, job, err)
				return
			}
			// degradable: the stage leaves pc's field for this stage
			// nil/empty and the pipeline proceeds.
		}

		// finalizing's SetResult already marked the job completed; a
		// progress update here would move it back to running.
		if stage.name != models.StageFinalizing {
			o.updateProgress(ctx, job, stage.name, stage.percent, pc.warning)
		}
	}

	o.complete(ctx, job, pc)
}

// stages is the fixed table driving a job's six stages, per §4.8.
func (o *Orchestrator) stages() []stageSpec {
	return []stageSpec{
		{name: models.StageCrawling, percent: 20, required: true, timeout: o.cfg.CrawlTimeout, run: o.runCrawling},
		{name: models.StageAnalyzing, percent: 50, required: true, timeout: o.cfg.AnalyzeTimeout, run: o.runAnalyzing},
		{name: models.StageGeneratingRecommendations, percent: 60, required: false, timeout: o.cfg.AnalyzeTimeout, run: o.runRecommending},
		{name: models.StageEvaluatingChecklist, percent: 75, required: false, timeout: o.cfg.ChecklistBudget, run: o.runChecklist},
		{name: models.StageValidating, percent: 85, required: false, timeout: o.cfg.ValidateTimeout, run: o.runValidating},
		{name: models.StageFinalizing, percent: 100, required: true, timeout: o.cfg.FinalizeTimeout, run: o.runFinalizing},
	}
}

func (o *Orchestrator) runCrawling(ctx context.Context, pc *pipelineContext) error {
	if pc.kind == models.URLKindUnknown {
		pc.kind = parser.DetectURLKind(pc.job.URL)
	}
	if pc.kind == models.URLKindUnknown {
		return apperr.NewInputError("crawling", "could not detect URL kind")
	}

	priorityFields, _ := o.perfStore.PriorityFields(ctx, 10)

	result, err := o.fetcher.Fetch(ctx, pc.job.URL)
	if err != nil {
		return err
	}
	pc.dataSource = result.Source

	product, shop, err := o.parser.Parse(ctx, result.Body, pc.job.URL, pc.kind, priorityFields)
	if err != nil {
		return err
	}
	pc.product, pc.shop = product, shop

	if pc.product != nil && pc.product.Name == "" {
		pc.product.Name = "Untitled product " + pc.product.Code
		pc.warning = "product name was not extractable; a fallback name was synthesized"
	}
	return nil
}

func (o *Orchestrator) runAnalyzing(ctx context.Context, pc *pipelineContext) error {
	if pc.product == nil {
		// shop jobs have no product to analyze; the remaining
		// product-only stages all no-op the same way.
		return nil
	}
	pc.analyzerResult = o.analyzer.Analyze(ctx, pc.product)
	return nil
}

func (o *Orchestrator) runRecommending(ctx context.Context, pc *pipelineContext) error {
	if pc.product == nil || pc.analyzerResult == nil {
		return nil
	}
	pc.recommendations = recommender.Generate(pc.product, pc.analyzerResult)
	return nil
}

// runChecklist evaluates the catalog under the stage's own timeout
// context; the checklist package's per-item soft timeouts are each
// derived from this context, so they can never collectively exceed
// it, satisfying §4.8's "total wall-clock budget 5s".
func (o *Orchestrator) runChecklist(ctx context.Context, pc *pipelineContext) error {
	if pc.product == nil || pc.analyzerResult == nil {
		return nil
	}
	pc.checklistOutcome = checklist.Evaluate(ctx, pc.product, pc.analyzerResult)
	return nil
}

func (o *Orchestrator) runValidating(ctx context.Context, pc *pipelineContext) error {
	if pc.product == nil || pc.analyzerResult == nil {
		return nil
	}
	pc.validationOutcome = o.validator.Validate(ctx, pc.product, pc.analyzerResult, pc.checklistOutcome)
	return nil
}

func (o *Orchestrator) runFinalizing(ctx context.Context, pc *pipelineContext) error {
	report := &models.Report{
		Product:           pc.product,
		Shop:              pc.shop,
		AnalyzerResult:    pc.analyzerResult,
		Recommendations:   pc.recommendations,
		ChecklistOutcome:  pc.checklistOutcome,
		ValidationOutcome: pc.validationOutcome,
		DataSource:        pc.dataSource,
	}
	if report.Recommendations == nil {
		report.Recommendations = []models.Recommendation{}
	}
	if err := o.jobs.SetResult(ctx, pc.job.ID, report, pc.dataSource); err != nil {
		return apperr.NewInternalError("finalizing", "failed to persist job result", err)
	}
	// Asynchronous side-effects (history write, notification) are
	// scheduled fire-and-forget so finalizing doesn't wait on them.
	go o.scheduleSideEffects(pc.job.ID, report)
	return nil
}

// scheduleSideEffects is a placeholder hook for history/notification
// writers; it currently only logs, since no concrete sink is named in
// scope.
func (o *Orchestrator) scheduleSideEffects(jobID string, report *models.Report) {
	if o.log != nil {
		o.log.WithJob(jobID).Info("job finalized")
	}
}

func (o *Orchestrator) recordStage(ctx context.Context, job *models.Job, stage models.Stage, status string, duration time.Duration, errMsg string) {
	if o.monitor == nil {
		return
	}
	_ = o.monitor.RecordStage(ctx, models.StageRecord{
		JobID:      job.ID,
		URL:        job.URL,
		URLKind:    job.URLKind,
		Stage:      stage,
		Status:     status,
		DurationMs: duration.Milliseconds(),
		Error:      errMsg,
		Timestamp:  time.Now().UTC(),
	})
}

func (o *Orchestrator) updateProgress(ctx context.Context, job *models.Job, stage models.Stage, percent int, message string) {
	progress := models.Progress{Stage: stage, Percent: percent, Message: message}
	if err := o.jobs.UpdateProgress(ctx, job.ID, progress); err != nil && o.log != nil {
		o.log.WithJob(job.ID).WithError(err).Info("failed to update job progress")
	}
}

func (o *Orchestrator) fail(ctx context.Context, job *models.Job, err error) {
	msg := apperr.Translate(err)
	if setErr := o.jobs.SetError(ctx, job.ID, msg); setErr != nil && o.log != nil {
		o.log.WithJob(job.ID).WithError(setErr).Info("failed to persist job failure")
	}
}

func (o *Orchestrator) complete(ctx context.Context, job *models.Job, pc *pipelineContext) {
	// runFinalizing already called SetResult, which the Job Store
	// implementation transitions to JobCompleted; nothing further to
	// do here besides final logging.
	if o.log != nil {
		o.log.WithJob(job.ID).Info("job completed")
	}
}
