// Package httpapi implements the service's external HTTP surface
// (§6): job submission and polling, monitor queries, the feedback
// entry point, health, and Prometheus metrics. Modeled on
// order_controller.go/PricingController.go's controller-wraps-service
// shape, generalized from airline domain objects to analysis jobs.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/feedback"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/jobstore"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/monitor"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/parser"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/worker"
)

// ErrorResponse mirrors order_controller.go's envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse mirrors order_controller.go's envelope.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Controller wires the HTTP surface to the job store, worker pool,
// monitor, and feedback service.
type Controller struct {
	jobs      jobstore.JobStore
	pool      *worker.Pool
	mon       *monitor.Monitor
	feedback  *feedback.Service
	log       *logging.Logger
	metrics   *controllerMetrics
	startedAt time.Time
}

// New builds a Controller.
func New(jobs jobstore.JobStore, pool *worker.Pool, mon *monitor.Monitor, fb *feedback.Service, log *logging.Logger) *Controller {
	return &Controller{
		jobs:      jobs,
		pool:      pool,
		mon:       mon,
		feedback:  fb,
		log:       log,
		metrics:   newControllerMetrics(),
		startedAt: time.Now().UTC(),
	}
}

type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

type analyzeResponse struct {
	JobID      string           `json:"job_id"`
	Status     models.JobStatus `json:"status"`
	URLKind    models.URLKind   `json:"url_kind"`
	ETASeconds int              `json:"eta_s"`
}

// etaSeconds is a static estimate of end-to-end job duration, equal
// to the fetcher's default 45 s total timeout rather than measured —
// no historical duration series exists before a job's first run.
const etaSeconds = 45

// Analyze handles POST /analyze: classifies the URL, creates a queued
// job, and submits it to the worker pool.
// @Summary Submit a URL for analysis
// @Router /analyze [post]
func (c *Controller) Analyze(ctx *gin.Context) {
	var req analyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	kind := parser.DetectURLKind(req.URL)
	if kind == models.URLKindUnknown {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not detect URL kind"})
		return
	}

	job := &models.Job{
		ID:        uuid.NewString(),
		URL:       req.URL,
		URLKind:   kind,
		Status:    models.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.jobs.Create(ctx.Request.Context(), job); err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create job", Details: err.Error()})
		return
	}

	if !c.pool.Submit(job) {
		c.jobs.SetError(ctx.Request.Context(), job.ID, "worker pool is at capacity")
		ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "worker pool is at capacity"})
		return
	}

	ctx.JSON(http.StatusAccepted, analyzeResponse{
		JobID: job.ID, Status: models.JobQueued, URLKind: kind, ETASeconds: etaSeconds,
	})
}

type jobResponse struct {
	JobID    string           `json:"job_id"`
	Status   models.JobStatus `json:"status"`
	Progress *models.Progress `json:"progress,omitempty"`
	Result   *models.Report   `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// GetJob handles GET /analyze/:job_id.
// @Summary Poll a job's status
// @Router /analyze/{job_id} [get]
func (c *Controller) GetJob(ctx *gin.Context) {
	jobID := ctx.Param("job_id")
	job, err := c.jobs.Get(ctx.Request.Context(), jobID)
	if err != nil {
		if err == jobstore.ErrNotFound {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to resolve job", Details: err.Error()})
		return
	}

	resp := jobResponse{JobID: job.ID, Status: job.Status, Result: job.Result, Error: job.Error}
	if job.Status == models.JobRunning || job.Status == models.JobQueued {
		resp.Progress = &job.Progress
	}
	ctx.JSON(http.StatusOK, resp)
}

// Download handles GET /analyze/:job_id/download?format=pdf|excel|markdown.
// Rendering is out of this service's scope (§6); this expansion wires
// the content negotiation and returns a markdown rendering of the
// completed Report directly, since markdown needs no external
// renderer. pdf/excel request a renderer this service does not carry.
// @Summary Download a completed job's report
// @Router /analyze/{job_id}/download [get]
func (c *Controller) Download(ctx *gin.Context) {
	jobID := ctx.Param("job_id")
	format := ctx.DefaultQuery("format", "markdown")

	job, err := c.jobs.Get(ctx.Request.Context(), jobID)
	if err != nil {
		if err == jobstore.ErrNotFound {
			ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to resolve job", Details: err.Error()})
		return
	}
	if job.Status != models.JobCompleted || job.Result == nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "job is not completed"})
		return
	}

	switch format {
	case "markdown":
		ctx.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(renderMarkdown(job)))
	case "pdf", "excel":
		ctx.JSON(http.StatusNotImplemented, ErrorResponse{Error: format + " rendering is out of scope for this service"})
	default:
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported format"})
	}
}

// Health handles GET /health.
// @Summary Health check
// @Router /health [get]
func (c *Controller) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "ts": time.Now().UTC()})
}

// SuccessRates handles GET /monitor/success-rates?period=&lookback=.
// @Summary Rolling per-stage success rates
// @Router /monitor/success-rates [get]
func (c *Controller) SuccessRates(ctx *gin.Context) {
	period := models.PeriodType(ctx.DefaultQuery("period", string(models.PeriodDay)))
	lookback, _ := strconv.Atoi(ctx.DefaultQuery("lookback", "7"))
	if lookback <= 0 {
		lookback = 7
	}

	rates, err := c.mon.GetSuccessRates(ctx.Request.Context(), period, lookback)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read success rates", Details: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"period": period, "lookback": lookback, "aggregates": rates})
}

// StageDetails handles GET /monitor/stage-details?stage=&limit=.
// @Summary Raw stage observation history
// @Router /monitor/stage-details [get]
func (c *Controller) StageDetails(ctx *gin.Context) {
	stage := models.Stage(ctx.Query("stage"))
	if stage == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "stage is required"})
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}

	records, err := c.mon.GetStageDetails(ctx.Request.Context(), stage, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read stage details", Details: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stage": stage, "records": records})
}

type feedbackRequest struct {
	JobID         string `json:"job_id" binding:"required"`
	Field         string `json:"field" binding:"required"`
	ReportedValue string `json:"reported_value"`
}

// Feedback handles POST /feedback.
// @Summary Report a field mismatch against a completed job
// @Router /feedback [post]
func (c *Controller) Feedback(ctx *gin.Context) {
	var req feedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	report, err := c.feedback.ReportMismatch(ctx.Request.Context(), req.JobID, req.Field, req.ReportedValue)
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.KindOf(err) == apperr.InputError {
			status = http.StatusBadRequest
		}
		ctx.JSON(status, ErrorResponse{Error: "failed to report mismatch", Details: apperr.Translate(err)})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"report_id": report.ID, "status": report.Status})
}
