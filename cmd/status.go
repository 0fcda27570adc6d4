package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

// jobStatus mirrors the JSON of /api/v1/jobs/:id/status.
type jobStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Config struct {
		Kind       string   `json:"kind"`
		Sizes      []string `json:"sizes"`
		Strategies []string `json:"strategies"`
		Iters      int      `json:"iters"`
		Method     string   `json:"method"`
	} `json:"config"`
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Progress float64 `json:"progress"`
	Passed   bool    `json:"passed"`
	Summary  string  `json:"summary"`
	Elapsed  float64 `json:"elapsed"`
	Error    string  `json:"error"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func getJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(out io.Writer, url string) error {
	var jobs []jobStatus
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tKIND\tSTATE\tPROGRESS\tSUMMARY")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", job.ID, job.Config.Kind, job.State, job.Done, job.Total, job.Summary)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal jobs: %d\n", len(jobs))
	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var status jobStatus
	code, err := getJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Kind: %s\n", status.Config.Kind)
	if len(status.Config.Sizes) > 0 {
		fmt.Fprintf(out, "  Sizes: %v\n", status.Config.Sizes)
	} else {
		fmt.Fprintln(out, "  Sizes: all")
	}
	if len(status.Config.Strategies) > 0 {
		fmt.Fprintf(out, "  Strategies: %v\n", status.Config.Strategies)
	}
	if status.Config.Method != "" {
		fmt.Fprintf(out, "  Method: %s\n", status.Config.Method)
	}
	fmt.Fprintf(out, "  Iterations: %d\n", status.Config.Iters)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Done: %d/%d (%.0f%%)\n", status.Done, status.Total, 100*status.Progress)
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.Summary != "" {
		fmt.Fprintf(out, "  Result: %s (passed: %t)\n", status.Summary, status.Passed)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
