package minimax

import (
	"encoding/json"
	"testing"
)

// decode parses a JSON literal into the generic tree ExtractResult consumes.
func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("failed to decode test payload: %v", err)
	}
	return v
}

func TestExtractResult(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantURL    string
	}{
		{
			name:       "flat video_url",
			payload:    `{"status":"Succeeded","video_url":"https://cdn.example.com/a.mp4"}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/a.mp4",
		},
		{
			name:       "flat result_url",
			payload:    `{"status":"completed","result_url":"https://cdn.example.com/b.mp4"}`,
			wantStatus: "completed",
			wantURL:    "https://cdn.example.com/b.mp4",
		},
		{
			name:       "state field instead of status",
			payload:    `{"state":"SUCCESS","video_url":"https://cdn.example.com/c.mp4"}`,
			wantStatus: "success",
			wantURL:    "https://cdn.example.com/c.mp4",
		},
		{
			name:       "nested result object",
			payload:    `{"status":"finished","result":{"video_url":"https://cdn.example.com/d.mp4"}}`,
			wantStatus: "finished",
			wantURL:    "https://cdn.example.com/d.mp4",
		},
		{
			name:       "nested output object",
			payload:    `{"status":"done","output":{"video_url":"https://cdn.example.com/e.mp4"}}`,
			wantStatus: "done",
			wantURL:    "https://cdn.example.com/e.mp4",
		},
		{
			name:       "outputs list prefers video type",
			payload:    `{"status":"succeeded","outputs":[{"url":"https://cdn.example.com/thumb.png","type":"image"},{"url":"https://cdn.example.com/f.mp4","type":"video"}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/f.mp4",
		},
		{
			name:       "outputs list prefers mp4 suffix without type",
			payload:    `{"status":"succeeded","outputs":[{"url":"https://cdn.example.com/thumb.png"},{"url":"https://cdn.example.com/g.mp4"}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/g.mp4",
		},
		{
			name:       "outputs list falls back to first url",
			payload:    `{"status":"succeeded","outputs":[{"url":"https://cdn.example.com/h.bin"}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/h.bin",
		},
		{
			name:       "jobs results single object, status from first job",
			payload:    `{"jobs":[{"status":"Succeeded","results":{"video":{"url":"https://cdn.example.com/i.mp4","type":"video"}}}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/i.mp4",
		},
		{
			name:       "jobs results list of objects",
			payload:    `{"status":"succeeded","jobs":[{"results":{"clips":[{"url":"https://cdn.example.com/thumb.png","type":"image"},{"url":"https://cdn.example.com/j.mp4","type":"video"}]}}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/j.mp4",
		},
		{
			name:       "jobs artifact on a later job",
			payload:    `{"jobs":[{"status":"succeeded","results":{}},{"results":{"video":{"url":"https://cdn.example.com/k.mp4"}}}]}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/k.mp4",
		},
		{
			name:       "top-level status wins over job status",
			payload:    `{"status":"failed","jobs":[{"status":"succeeded"}]}`,
			wantStatus: "failed",
			wantURL:    "",
		},
		{
			name:       "buried string fallback",
			payload:    `{"status":"succeeded","data":{"items":[{"blob":"https://cdn.example.com/l.mp4?sig=abc"}]}}`,
			wantStatus: "succeeded",
			wantURL:    "https://cdn.example.com/l.mp4?sig=abc",
		},
		{
			name:       "pending with no url",
			payload:    `{"status":"Processing"}`,
			wantStatus: "processing",
			wantURL:    "",
		},
		{
			name:       "empty object",
			payload:    `{}`,
			wantStatus: "",
			wantURL:    "",
		},
		{
			name:       "unrecognized shape",
			payload:    `{"foo":{"bar":[1,2,3]}}`,
			wantStatus: "",
			wantURL:    "",
		},
		{
			name:       "non-object root",
			payload:    `"hello"`,
			wantStatus: "",
			wantURL:    "",
		},
		{
			name:       "non-object root containing video url",
			payload:    `["https://cdn.example.com/m.mp4"]`,
			wantStatus: "",
			wantURL:    "https://cdn.example.com/m.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, url := ExtractResult(decode(t, tt.payload))
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if url != tt.wantURL {
				t.Errorf("url = %q, want %q", url, tt.wantURL)
			}
		})
	}
}

func TestExtractResult_FlatURLWinsOverNested(t *testing.T) {
	payload := decode(t, `{
		"status": "succeeded",
		"video_url": "https://cdn.example.com/top.mp4",
		"result": {"video_url": "https://cdn.example.com/nested.mp4"}
	}`)

	_, url := ExtractResult(payload)
	if url != "https://cdn.example.com/top.mp4" {
		t.Errorf("url = %q, want top-level video_url to win", url)
	}
}

func TestStatusTerms(t *testing.T) {
	for _, s := range []string{"succeeded", "SUCCESS", "Completed", "complete", "finished", "done"} {
		if !IsSuccessStatus(s) {
			t.Errorf("IsSuccessStatus(%q) = false, want true", s)
		}
		if IsFailureStatus(s) {
			t.Errorf("IsFailureStatus(%q) = true, want false", s)
		}
	}
	for _, s := range []string{"failed", "ERROR", "cancelled", "canceled", "timed_out"} {
		if !IsFailureStatus(s) {
			t.Errorf("IsFailureStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "processing", "queued", "running"} {
		if IsSuccessStatus(s) || IsFailureStatus(s) {
			t.Errorf("status %q should be non-terminal", s)
		}
	}
}
