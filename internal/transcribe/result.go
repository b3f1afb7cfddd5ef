package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// transcriptResult is the JSON document AWS Transcribe writes for a completed job.
type transcriptResult struct {
	JobName string `json:"jobName"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
	Status string `json:"status"`
}

// HTTPResultFetcher downloads job results from the (presigned) result URI.
type HTTPResultFetcher struct {
	client *http.Client
}

// NewHTTPResultFetcher creates a fetcher with the given request timeout.
func NewHTTPResultFetcher(timeout time.Duration) *HTTPResultFetcher {
	return &HTTPResultFetcher{client: &http.Client{Timeout: timeout}}
}

// FetchTranscript GETs uri and returns results.transcripts[0].transcript.
func (f *HTTPResultFetcher) FetchTranscript(ctx context.Context, uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("empty result uri")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download result: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read result: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download result (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseTranscriptResult(body)
}

// ParseTranscriptResult extracts the first transcript from a job result document.
func ParseTranscriptResult(body []byte) (string, error) {
	var result transcriptResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	if len(result.Results.Transcripts) == 0 {
		return "", fmt.Errorf("result has no transcripts")
	}
	return result.Results.Transcripts[0].Transcript, nil
}
