// Package ui renders the HTML pages served by the job server.
package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is one row of the job overview.
type JobListItem struct {
	ID        string
	Kind      string
	State     string
	Sizes     []string
	Done      int
	Total     int
	Passed    bool
	Summary   string
	StartTime time.Time
	EndTime   *time.Time
	Error     string
}

// Progress returns the completed fraction as a percentage.
func (j JobListItem) Progress() float64 {
	if j.Total == 0 {
		return 0
	}
	return 100 * float64(j.Done) / float64(j.Total)
}

// Duration returns the run time, measured up to now for running jobs.
func (j JobListItem) Duration() time.Duration {
	end := time.Now()
	if j.EndTime != nil {
		end = *j.EndTime
	}
	return end.Sub(j.StartTime).Round(time.Millisecond)
}

// Result returns the outcome column text.
func (j JobListItem) Result() string {
	switch {
	case j.Error != "":
		return j.Error
	case j.State != "completed":
		return ""
	case j.Kind == "verify" && j.Passed:
		return "pass"
	case j.Kind == "verify":
		return "FAIL"
	default:
		return j.Summary
	}
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>blocksad jobs</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: left; }
.state-failed, .fail { color: #b00; }
.state-completed { color: #070; }
</style>
</head>
<body>
<h1>Jobs</h1>
`

// JobList renders the job overview page.
func JobList(items []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if len(items) == 0 {
			_, err := io.WriteString(w, "<p>No jobs yet.</p>\n</body>\n</html>\n")
			return err
		}

		if _, err := io.WriteString(w, "<table>\n<tr><th>ID</th><th>Kind</th><th>State</th><th>Sizes</th><th>Progress</th><th>Duration</th><th>Result</th></tr>\n"); err != nil {
			return err
		}

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := jobRow(w, item); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</table>\n</body>\n</html>\n")
		return err
	})
}

func jobRow(w io.Writer, item JobListItem) error {
	sizes := "all"
	if len(item.Sizes) > 0 {
		sizes = fmt.Sprint(item.Sizes)
	}

	resultClass := ""
	if item.Kind == "verify" && item.State == "completed" && !item.Passed {
		resultClass = ` class="fail"`
	}

	_, err := fmt.Fprintf(w,
		"<tr><td><a href=\"/api/v1/jobs/%s/status\">%s</a></td><td>%s</td><td class=\"state-%s\">%s</td><td>%s</td><td>%d/%d (%.0f%%)</td><td>%s</td><td%s>%s</td></tr>\n",
		templ.EscapeString(item.ID),
		templ.EscapeString(shortID(item.ID)),
		templ.EscapeString(item.Kind),
		templ.EscapeString(item.State),
		templ.EscapeString(item.State),
		templ.EscapeString(sizes),
		item.Done, item.Total, item.Progress(),
		item.Duration(),
		resultClass,
		templ.EscapeString(item.Result()),
	)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
