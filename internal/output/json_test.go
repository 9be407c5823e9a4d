package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

func TestJSONRenderer(t *testing.T) {
	run := sampleReport()

	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Render(run); err != nil {
		t.Fatalf("render json: %v", err)
	}

	var decoded report.RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.RunID != run.RunID {
		t.Fatalf("run id mismatch: %s vs %s", decoded.RunID, run.RunID)
	}
	if decoded.TotalSuites != 2 || decoded.Passed != 1 || decoded.Failed != 1 {
		t.Fatalf("totals mismatch: %+v", decoded)
	}
	if len(decoded.Suites) != 2 || decoded.Suites[1].Steps[1].Status != report.StepTimeout {
		t.Fatalf("suite mismatch: %+v", decoded.Suites)
	}
	if decoded.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", decoded.ExitCode)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for _, key := range []string{"runId", "startTime", "endTime", "durationSeconds", "totalSuites", "passed", "failed", "skipped", "suites"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected key %q in %s", key, buf.String())
		}
	}
}

func TestJSONRenderList(t *testing.T) {
	buf := &bytes.Buffer{}
	defs := []suite.Definition{{ID: "s1", Name: "Smoke", Steps: []suite.Step{{Name: "check", TimeoutSeconds: 120, Required: true}}}}
	if err := NewJSON(buf).RenderList(defs, nil); err != nil {
		t.Fatalf("render list: %v", err)
	}

	var decoded Listing
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded.Suites) != 1 || decoded.Suites[0].Steps[0].TimeoutSeconds != 120 {
		t.Fatalf("suites mismatch: %+v", decoded.Suites)
	}
	if decoded.Invalid == nil {
		t.Fatalf("expected empty invalid list, got null")
	}
}

func TestJSONRenderHistory(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSON(buf).RenderHistory([]report.RunReport{sampleReport()}); err != nil {
		t.Fatalf("render history: %v", err)
	}

	var decoded []RunSummary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Failed != 1 || decoded[0].ExitCode != 1 {
		t.Fatalf("unexpected summaries: %+v", decoded)
	}
	if decoded[0].StartTime != "2026-03-04T10:00:00Z" {
		t.Fatalf("unexpected start time %q", decoded[0].StartTime)
	}
}
