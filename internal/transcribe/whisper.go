package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint
// and asks for a plain-text response. Implements Backend.
type WhisperClient struct {
	url      string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// NewWhisperClient creates a new Whisper HTTP client.
func NewWhisperClient(url, apiKey, model, language string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:      url,
		apiKey:   apiKey,
		model:    model,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name.
func (wc *WhisperClient) Name() string { return "whisper" }

// NeedsRemote is false: the file is sent in the request body.
func (wc *WhisperClient) NeedsRemote() bool { return false }

// Transcribe uploads the local file in a single multipart request and returns
// the response body as the transcript. Errors are not retried.
func (wc *WhisperClient) Transcribe(ctx context.Context, audio Audio, language string) (string, error) {
	text, err := wc.transcribe(ctx, audio.Path, language)
	if err != nil {
		return "", &Error{Backend: wc.Name(), Reason: "request failed", Err: err}
	}
	return text, nil
}

func (wc *WhisperClient) transcribe(ctx context.Context, audioPath, language string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}

	if wc.model != "" {
		w.WriteField("model", wc.model)
	}

	lang := language
	if lang == "" {
		lang = wc.language
	}
	if lang != "" {
		w.WriteField("language", lang)
	}

	w.WriteField("response_format", "text")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if wc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+wc.apiKey)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}
