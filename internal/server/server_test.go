package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/blocksad/internal/sad"
	"github.com/cwbudde/blocksad/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.FSStore) {
	t.Helper()
	tmpDir := t.TempDir()
	fs, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	s := NewServer(":0", fs, tmpDir)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, fs
}

// waitForJob polls until the job reaches a terminal state.
func waitForJob(t *testing.T, jm *JobManager, id string, timeout time.Duration) *Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, ok := jm.GetJob(id)
		if ok && job.Finished() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish within %s", id, timeout)
	return nil
}

func TestServer_CreateJob(t *testing.T) {
	s, _ := newTestServer(t)

	config := JobConfig{
		Kind:  store.KindVerify,
		Sizes: []string{"8x8"},
		Iters: 2,
		Seed:  42,
	}

	body, _ := json.Marshal(config)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.Config.Iters != 2 {
		t.Errorf("Expected iters 2, got %d", job.Config.Iters)
	}

	waitForJob(t, s.jobManager, job.ID, 10*time.Second)
}

func TestServer_CreateJob_AppliesDefaults(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs",
		strings.NewReader(`{"kind":"bench","sizes":["4x4"],"iters":10}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	var job Job
	json.NewDecoder(w.Body).Decode(&job)
	if len(job.Config.Strategies) != 2 {
		t.Errorf("Expected default strategies, got %v", job.Config.Strategies)
	}

	waitForJob(t, s.jobManager, job.ID, 10*time.Second)
}

func TestServer_CreateJob_Invalid(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"kind":`},
		{"unknown kind", `{"kind":"render"}`},
		{"bad size", `{"kind":"verify","sizes":["12x12"]}`},
		{"bad strategy", `{"kind":"bench","strategies":["simd"]}`},
		{"bad method", `{"kind":"search","method":"hexagon"}`},
		{"too many workers", `{"kind":"bench","sizes":["4x4"],"iters":1,"workers":1125899906842624}`},
		{"huge plane", `{"kind":"search","planeWidth":1000000,"planeHeight":1000000}`},
		{"huge radius", `{"kind":"search","radius":100000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	if n := len(s.jobManager.ListJobs()); n != 0 {
		t.Errorf("invalid requests should not create jobs, got %d", n)
	}
}

func TestServer_ListJobs(t *testing.T) {
	s, _ := newTestServer(t)

	s.jobManager.CreateJob(JobConfig{Kind: store.KindVerify})
	s.jobManager.CreateJob(JobConfig{Kind: store.KindBench})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var jobs []*Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s, _ := newTestServer(t)

	job := s.jobManager.CreateJob(JobConfig{Kind: store.KindVerify})
	s.jobManager.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Done = 1
		j.Total = 4
	})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/status", job.ID), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if status["state"] != string(StateRunning) {
		t.Errorf("Expected running, got %v", status["state"])
	}
	if status["progress"] != 0.25 {
		t.Errorf("Expected progress 0.25, got %v", status["progress"])
	}
}

func TestServer_GetJobStatus_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/status", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_Integration(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"kind":"verify","sizes":["4x4","64x64"],"iters":2,"seed":7}`
	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	var job Job
	json.NewDecoder(resp.Body).Decode(&job)
	resp.Body.Close()

	final := waitForJob(t, s.jobManager, job.ID, 20*time.Second)
	if final.State != StateCompleted || !final.Passed {
		t.Fatalf("Expected a passing completed job, got %s passed=%t (%s)", final.State, final.Passed, final.Error)
	}

	// Report
	resp, err = http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/report", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET report failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected report status 200, got %d", resp.StatusCode)
	}
	var report store.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.JobID != job.ID || len(report.Sizes) != 2 {
		t.Errorf("Unexpected report: id=%s sizes=%d", report.JobID, len(report.Sizes))
	}

	// Trace
	traceResp, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/trace", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET trace failed: %v", err)
	}
	defer traceResp.Body.Close()
	var entries []store.TraceEntry
	if err := json.NewDecoder(traceResp.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode trace: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 trace entries, got %d", len(entries))
	}
}

func TestServer_GetReport_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/unknown/report", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_CancelJob(t *testing.T) {
	s, _ := newTestServer(t)

	job := s.StartJob(JobConfig{
		Kind:       store.KindBench,
		Strategies: []string{"reference", "fused", "pairwise"},
		Iters:      50000,
		Compound:   true,
	})

	// Wait until the worker registered its cancel func.
	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/jobs/%s/cancel", job.ID), nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code == http.StatusAccepted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cancel was never accepted, last status %d", w.Code)
		}
		time.Sleep(5 * time.Millisecond)
	}

	final := waitForJob(t, s.jobManager, job.ID, 30*time.Second)
	if final.State != StateCancelled {
		t.Errorf("Expected cancelled state, got %s", final.State)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/jobs/%s/cancel", job.ID), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a finished job, got %d", w.Code)
	}
}

func TestServer_Sad(t *testing.T) {
	s, _ := newTestServer(t)

	src := make([]byte, 16)
	ref := make([]byte, 16)
	pred := make([]byte, 16)
	for i := range src {
		src[i] = 100
		ref[i] = 90
		pred[i] = 80
	}

	tests := []struct {
		name     string
		req      SadRequest
		wantSad  uint32
		compound bool
	}{
		{"sad", SadRequest{Width: 4, Height: 4, Src: src, Ref: ref}, 160, false},
		{"sad_avg", SadRequest{Width: 4, Height: 4, Src: src, Ref: ref, SecondPred: pred}, 240, true},
		{"pairwise", SadRequest{Width: 4, Height: 4, Src: src, Ref: ref, Strategy: "pairwise"}, 160, false},
		{"reference", SadRequest{Width: 4, Height: 4, Src: src, Ref: ref, Strategy: "reference"}, 160, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sad", bytes.NewReader(body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}

			var resp SadResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Sad != tt.wantSad {
				t.Errorf("Expected sad %d, got %d", tt.wantSad, resp.Sad)
			}
			if resp.Compound != tt.compound {
				t.Errorf("Expected compound %t, got %t", tt.compound, resp.Compound)
			}
			if resp.Size != "4x4" {
				t.Errorf("Expected size 4x4, got %s", resp.Size)
			}
		})
	}
}

func TestServer_Sad_Invalid(t *testing.T) {
	s, _ := newTestServer(t)
	buf := make([]byte, 64)

	tests := []struct {
		name string
		req  SadRequest
	}{
		{"unsupported size", SadRequest{Width: 12, Height: 4, Src: buf, Ref: buf}},
		{"short src", SadRequest{Width: 4, Height: 4, Src: buf[:15], Ref: buf}},
		{"stride below width", SadRequest{Width: 8, Height: 4, Src: buf, SrcStride: 4, Ref: buf}},
		{"short pred", SadRequest{Width: 4, Height: 4, Src: buf, Ref: buf, SecondPred: buf[:8]}},
		{"huge src stride", SadRequest{Width: 4, Height: 8, Src: buf, SrcStride: math.MaxInt / 2, Ref: buf}},
		{"huge ref stride", SadRequest{Width: 4, Height: 8, Src: buf, Ref: buf, RefStride: math.MaxInt / 2}},
		{"unknown strategy", SadRequest{Width: 4, Height: 4, Src: buf, Ref: buf, Strategy: "avx512"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sad", bytes.NewReader(body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sad", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for GET, got %d", w.Code)
	}
}

func TestServer_Info(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var info InfoResponse
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.Strategy != sad.Active().Name() {
		t.Errorf("Expected strategy %s, got %s", sad.Active().Name(), info.Strategy)
	}
	if len(info.Catalogue) != len(sad.Catalogue()) {
		t.Errorf("Expected %d catalogue sizes, got %d", len(sad.Catalogue()), len(info.Catalogue))
	}
	if info.Features.Architecture == "" {
		t.Error("Architecture should be reported")
	}
}

func TestServer_Index(t *testing.T) {
	s, _ := newTestServer(t)
	s.jobManager.CreateJob(JobConfig{Kind: store.KindSearch})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "search") {
		t.Error("Index should list the search job")
	}

	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestServer_JobStream_SSE(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	job := s.jobManager.CreateJob(JobConfig{
		Kind:  store.KindVerify,
		Sizes: []string{"4x4", "8x8", "16x16"},
		Iters: 2,
	})

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/stream", ts.URL, job.ID))
	if err != nil {
		t.Fatalf("GET stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream content type, got %s", ct)
	}

	// Start the job only after the stream subscribed.
	go runJob(context.Background(), s.jobManager, s.reportStore, s.dataDir, job.ID)

	var events []ProgressEvent
	done := make(chan struct{})
	go func() {
		defer close(done)
		dec := newSSEDecoder(resp.Body)
		for {
			ev, err := dec.next()
			if err != nil {
				return
			}
			events = append(events, ev)
		}
	}()

	select {
	case <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("stream did not end after job completion")
	}

	if len(events) < 2 {
		t.Fatalf("Expected initial and final events, got %d", len(events))
	}
	if events[0].State != StatePending {
		t.Errorf("Expected initial pending event, got %s", events[0].State)
	}
	if last := events[len(events)-1]; last.State != StateCompleted {
		t.Errorf("Expected final completed event, got %s", last.State)
	}
}

func TestServer_JobStream_Finished(t *testing.T) {
	s, _ := newTestServer(t)

	job := s.jobManager.CreateJob(JobConfig{Kind: store.KindVerify})
	s.jobManager.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"state":"completed"`) {
		t.Errorf("Expected a single completed event, got %q", w.Body.String())
	}
}

func TestServer_JobStream_FinishesWhileConnecting(t *testing.T) {
	s, _ := newTestServer(t)
	jm := s.jobManager

	for i := 0; i < 50; i++ {
		job := jm.CreateJob(JobConfig{Kind: store.KindVerify})
		jm.UpdateJob(job.ID, func(j *Job) { j.State = StateRunning })

		go func() {
			jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCompleted })
			jm.broadcaster.Broadcast(ProgressEvent{JobID: job.ID, State: StateCompleted, Timestamp: time.Now()})
			jm.broadcaster.CleanupJob(job.ID)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/jobs/%s/stream", job.ID), nil).WithContext(ctx)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		timedOut := ctx.Err() != nil
		cancel()

		if timedOut {
			t.Fatalf("iteration %d: stream stayed open after the job finished", i)
		}
		if !strings.Contains(w.Body.String(), `"state":"completed"`) {
			t.Fatalf("iteration %d: no completed event in %q", i, w.Body.String())
		}
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	event := ProgressEvent{
		JobID:     "job1",
		State:     StateRunning,
		Done:      3,
		Total:     10,
		Size:      "16x16",
		Value:     12.5,
		Timestamp: time.Now(),
	}
	eb.Broadcast(event)

	select {
	case received := <-ch:
		if received.JobID != "job1" {
			t.Errorf("Expected jobID job1, got %s", received.JobID)
		}
		if received.Done != 3 || received.Size != "16x16" {
			t.Errorf("Unexpected event %+v", received)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	eb.CleanupJob("job1")
}

func TestEventBroadcaster_OtherJob(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	eb.Broadcast(ProgressEvent{JobID: "job2", State: StateRunning})

	select {
	case ev := <-ch:
		t.Errorf("received event for another job: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
