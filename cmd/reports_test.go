package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/blocksad/internal/store"
)

// testCommand returns a command whose output is captured in buf.
func testCommand(buf *bytes.Buffer) *cobra.Command {
	c := &cobra.Command{}
	c.SetOut(buf)
	c.SetIn(strings.NewReader(""))
	return c
}

// withDataDir points the package level data dir at dir for one test.
func withDataDir(t *testing.T, dir string) {
	t.Helper()
	original := dataDir
	dataDir = dir
	t.Cleanup(func() { dataDir = original })
}

func saveTestReport(t *testing.T, fs *store.FSStore, jobID string, age time.Duration) {
	t.Helper()
	cfg := store.JobConfig{Kind: store.KindVerify, Iters: 1}
	report := store.NewReport(jobID, cfg, "fused")
	report.Passed = true
	report.Timestamp = time.Now().Add(-age)
	if err := fs.SaveReport(jobID, report); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}
}

func TestSelectReportsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.ReportInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectReportsForDeletion(infos, 0, 7, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 reports to delete, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "job1" || toDelete[1].JobID != "job4" {
		t.Errorf("Expected job1 and job4, got %s and %s", toDelete[0].JobID, toDelete[1].JobID)
	}
}

func TestSelectReportsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.ReportInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectReportsForDeletion(infos, 2, 0, now)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 reports to delete, got %d", len(toDelete))
	}
	for _, info := range toDelete {
		if info.JobID != "job1" && info.JobID != "job4" {
			t.Errorf("Expected only the oldest reports, got %s", info.JobID)
		}
	}
}

func TestSelectReportsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.ReportInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	// Age selects job1 and job4; keeping 2 adds job2 without duplicates.
	toDelete := selectReportsForDeletion(infos, 2, 7, now)

	if len(toDelete) != 3 {
		t.Errorf("Expected 3 reports to delete, got %d", len(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	content := []byte("Hello, World!")
	if err := os.WriteFile(filepath.Join(tmpDir, "test.txt"), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		if result := formatBytes(tt.bytes); result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestReportsListCommand_NoReports(t *testing.T) {
	withDataDir(t, t.TempDir())

	var buf bytes.Buffer
	if err := runListReports(testCommand(&buf), nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "No reports found") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestReportsListCommand_WithReports(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestReport(t, fs, "test-job-id", 0)
	withDataDir(t, tmpDir)

	var buf bytes.Buffer
	if err := runListReports(testCommand(&buf), nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "test-job-id") || !strings.Contains(out, "Total reports: 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestReportsCleanCommand_NoFlags(t *testing.T) {
	withDataDir(t, t.TempDir())
	keepLast, olderThanDays = 0, 0

	var buf bytes.Buffer
	if err := runCleanReports(testCommand(&buf), nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestReportsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestReport(t, fs, "old-job", 30*24*time.Hour)
	saveTestReport(t, fs, "new-job", 0)
	withDataDir(t, tmpDir)

	keepLast, olderThanDays, forceClean = 0, 7, true
	t.Cleanup(func() { keepLast, olderThanDays, forceClean = 0, 0, false })

	var buf bytes.Buffer
	if err := runCleanReports(testCommand(&buf), nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := fs.LoadReport("old-job"); err == nil {
		t.Error("Expected old report to be deleted")
	}
	if _, err := fs.LoadReport("new-job"); err != nil {
		t.Errorf("Expected new report to survive: %v", err)
	}
}

func TestReportsCleanCommand_Aborted(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestReport(t, fs, "old-job", 30*24*time.Hour)
	withDataDir(t, tmpDir)

	keepLast, olderThanDays, forceClean = 0, 7, false
	t.Cleanup(func() { keepLast, olderThanDays = 0, 0 })

	var buf bytes.Buffer
	c := testCommand(&buf)
	c.SetIn(strings.NewReader("n\n"))
	if err := runCleanReports(c, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := fs.LoadReport("old-job"); err != nil {
		t.Errorf("Report should survive an aborted clean: %v", err)
	}
}
