package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/blocksad/internal/store"
)

func TestExecute_Verify(t *testing.T) {
	dir := t.TempDir()
	tw, err := store.NewTraceWriter(dir, "job-v", false)
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}

	var progress []Progress
	report, err := Execute(context.Background(), "job-v", store.JobConfig{
		Kind:  store.KindVerify,
		Sizes: []string{"4x4", "16x16", "64x64"},
		Iters: 2,
		Seed:  1,
	}, Options{
		Trace:    tw,
		Progress: func(p Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	tw.Close()

	if !report.Passed {
		t.Fatalf("Expected verification to pass: %s", report.Summary)
	}
	if report.JobID != "job-v" || report.Kind != store.KindVerify || report.Strategy == "" {
		t.Errorf("Unexpected report header %+v", report.ToInfo())
	}
	if len(report.Sizes) != 3 || len(progress) != 3 {
		t.Errorf("Expected 3 sizes and 3 progress calls, got %d / %d", len(report.Sizes), len(progress))
	}
	if err := report.Validate(); err != nil {
		t.Errorf("Report should validate: %v", err)
	}

	reader, err := store.NewTraceReader(dir, "job-v")
	if err != nil {
		t.Fatalf("NewTraceReader: %v", err)
	}
	defer reader.Close()
	entries, _ := reader.ReadAll()
	if len(entries) != 3 {
		t.Errorf("Expected 3 trace entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Kind != store.TraceMismatches || e.Value != 0 {
			t.Errorf("Unexpected trace entry %+v", e)
		}
	}
}

func TestExecute_Bench(t *testing.T) {
	report, err := Execute(context.Background(), "job-b", store.JobConfig{
		Kind:       store.KindBench,
		Sizes:      []string{"8x8", "32x32"},
		Strategies: []string{"fused", "pairwise"},
		Iters:      20,
		Compound:   true,
	}, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// 2 sizes x 2 strategies x 2 families
	if len(report.Sizes) != 8 {
		t.Fatalf("Expected 8 measurements, got %d", len(report.Sizes))
	}
	for _, s := range report.Sizes {
		if s.NsPerOp <= 0 {
			t.Errorf("%s %s %s: ns/op = %f", s.Size, s.Strategy, s.Family, s.NsPerOp)
		}
	}
	if !strings.Contains(report.Summary, "8 measurements") {
		t.Errorf("Unexpected summary %q", report.Summary)
	}
}

func TestExecute_Search(t *testing.T) {
	report, err := Execute(context.Background(), "job-s", store.JobConfig{
		Kind:        store.KindSearch,
		Sizes:       []string{"16x16"},
		Method:      "full",
		Radius:      3,
		PlaneWidth:  64,
		PlaneHeight: 64,
		ShiftX:      2,
		ShiftY:      1,
		Seed:        5,
		Compound:    true,
		Noise:       3,
	}, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(report.Sizes) != 1 {
		t.Fatalf("Expected 1 size, got %d", len(report.Sizes))
	}
	s := report.Sizes[0]
	if s.Evaluations == 0 || s.MeanCost <= 0 {
		t.Errorf("Unexpected search summary %+v", s)
	}
	if !strings.Contains(s.Detail, "compound better on") {
		t.Errorf("Expected compound detail, got %q", s.Detail)
	}
	t.Logf("search: %s (%s)", report.Summary, s.Detail)
}

func TestExecute_InvalidConfig(t *testing.T) {
	_, err := Execute(context.Background(), "x", store.JobConfig{Kind: "render"}, Options{})
	var ve *store.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, "x", store.JobConfig{Kind: store.KindVerify}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := WithDefaults(store.JobConfig{Kind: store.KindSearch})
	if cfg.Method != "diamond" || cfg.Radius != DefaultRadius || cfg.PlaneWidth != DefaultPlaneSize {
		t.Errorf("Unexpected search defaults %+v", cfg)
	}

	cfg = WithDefaults(store.JobConfig{Kind: store.KindBench, Iters: 7})
	if cfg.Iters != 7 || len(cfg.Strategies) != 2 {
		t.Errorf("Unexpected bench defaults %+v", cfg)
	}
}
