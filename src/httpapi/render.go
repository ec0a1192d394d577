package httpapi

import (
	"fmt"
	"strings"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// renderMarkdown produces a human-readable summary of a completed
// job's report. Out-of-scope rendering targets (pdf, excel) are left
// unimplemented; markdown needs no external library, so it is the one
// format this service renders directly.
func renderMarkdown(job *models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis report: %s\n\n", job.ID)
	fmt.Fprintf(&b, "- URL: %s\n", job.URL)
	fmt.Fprintf(&b, "- Data source: %s\n\n", job.Result.DataSource)

	if p := job.Result.Product; p != nil {
		fmt.Fprintf(&b, "## Product\n\n- Code: %s\n- Name: %s\n- Sale price: %d\n\n", p.Code, p.Name, p.Price.Sale)
	}
	if s := job.Result.Shop; s != nil {
		fmt.Fprintf(&b, "## Shop\n\n- ID: %s\n- Name: %s\n\n", s.ID, s.Name)
	}
	if r := job.Result.AnalyzerResult; r != nil {
		fmt.Fprintf(&b, "## Analysis\n\n- Overall score: %d\n\n", r.OverallScore)
	}
	if len(job.Result.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range job.Result.Recommendations {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", rec.Priority, rec.Category, rec.Title)
		}
		b.WriteString("\n")
	}
	if c := job.Result.ChecklistOutcome; c != nil {
		fmt.Fprintf(&b, "## Checklist\n\n- Overall completion: %d%%\n\n", c.OverallCompletion)
	}
	if v := job.Result.ValidationOutcome; v != nil {
		fmt.Fprintf(&b, "## Validation\n\n- Valid: %t\n- Score: %d\n\n", v.Valid, v.Score)
	}
	return b.String()
}
