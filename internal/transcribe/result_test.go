package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleResult = `{
  "jobName": "transcripcion-1234",
  "accountId": "123456789012",
  "results": {
    "transcripts": [{"transcript": "Hoy me siento feliz."}],
    "items": [
      {"start_time": "0.04", "end_time": "0.35", "alternatives": [{"confidence": "0.99", "content": "Hoy"}], "type": "pronunciation"}
    ]
  },
  "status": "COMPLETED"
}`

func TestParseTranscriptResult(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"completed", sampleResult, "Hoy me siento feliz.", false},
		{"empty_transcript", `{"results":{"transcripts":[{"transcript":""}]}}`, "", false},
		{"no_transcripts", `{"results":{"transcripts":[]}}`, "", true},
		{"not_json", `<Error>AccessDenied</Error>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTranscriptResult([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("transcript = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPResultFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			io.WriteString(w, sampleResult)
		default:
			http.Error(w, "AccessDenied", http.StatusForbidden)
		}
	}))
	defer srv.Close()

	f := NewHTTPResultFetcher(5 * time.Second)

	text, err := f.FetchTranscript(context.Background(), srv.URL+"/ok.json")
	if err != nil {
		t.Fatalf("FetchTranscript: %v", err)
	}
	if text != "Hoy me siento feliz." {
		t.Errorf("text = %q", text)
	}

	if _, err := f.FetchTranscript(context.Background(), srv.URL+"/expired.json"); err == nil {
		t.Error("expected error on 403")
	}
	if _, err := f.FetchTranscript(context.Background(), ""); err == nil {
		t.Error("expected error on empty uri")
	}
}
