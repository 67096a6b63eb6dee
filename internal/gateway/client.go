// Package gateway is the HTTP client for the external DSP backend, which
// owns the production FFT, equalizer gain application, and stem separation.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/wavescope/wavescope/internal/eq"
)

// Client communicates with the DSP backend REST API. The endpoint is
// injected at construction; nothing here hardcodes a host.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a DSP backend client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// ProcessResult is the backend's answer to an FFT/equalize request. The
// optional fields are valid no-ops when absent: in particular a missing
// OutputAudioURL means no gain differed from unity.
type ProcessResult struct {
	FFTReal            []float64          `json:"fftReal"`
	FFTImag            []float64          `json:"fftImag"`
	OriginalFFTReal    []float64          `json:"originalFftReal,omitempty"`
	OriginalFFTImag    []float64          `json:"originalFftImag,omitempty"`
	SampleRate         int                `json:"sampleRate"`
	FFTSize            int                `json:"fftSize"`
	OutputAudioURL     string             `json:"outputAudioUrl,omitempty"`
	AppliedAdjustments map[string]float64 `json:"appliedAdjustments,omitempty"`
}

// SeparationResult lists the stems the backend produced. Instrument
// separation fills Files (stem name -> filename); voice separation fills
// FileList.
type SeparationResult struct {
	Files    map[string]string `json:"files,omitempty"`
	FileList []string          `json:"fileList,omitempty"`
}

// ProgressFunc receives separation progress in [0, 1].
type ProgressFunc func(progress float64)

// WaitForHealthy blocks until the DSP backend responds to health checks.
func (c *Client) WaitForHealthy(ctx context.Context) error {
	log.Println("Waiting for DSP backend to be ready...")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := c.http.Get(c.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Println("DSP backend is healthy")
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}

		log.Println("DSP backend not ready, retrying in 5s...")
		time.Sleep(5 * time.Second)
	}
}

// UploadAndProcessFFT uploads an audio file and requests its FFT with the
// given gain bands (no bands for the initial, untouched spectrum).
func (c *Client) UploadAndProcessFFT(ctx context.Context, file []byte, name string, bands []eq.Band) (*ProcessResult, error) {
	return c.process(ctx, "/api/fft", file, name, bands)
}

// UpdateEqualizerGains re-equalizes a previously analyzed file with a new
// band list.
func (c *Client) UpdateEqualizerGains(ctx context.Context, file []byte, name string, bands []eq.Band) (*ProcessResult, error) {
	return c.process(ctx, "/api/equalize", file, name, bands)
}

func (c *Client) process(ctx context.Context, path string, file []byte, name string, bands []eq.Band) (*ProcessResult, error) {
	body, contentType, err := multipartBody(file, name, map[string]any{"bands": bands})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp)
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.FFTReal) != len(result.FFTImag) {
		return nil, fmt.Errorf("backend sent mismatched coefficient arrays: %d real vs %d imag",
			len(result.FFTReal), len(result.FFTImag))
	}
	return &result, nil
}

// SeparateInstruments submits an instrument separation job and polls its
// progress until the stems are ready. Progress is reported through repeated
// onProgress calls; the call blocks until completion, error, or ctx cancel.
func (c *Client) SeparateInstruments(ctx context.Context, file []byte, name string, gains []eq.Band, sessionID string, interval time.Duration, onProgress ProgressFunc) (*SeparationResult, error) {
	return c.separate(ctx, "/api/separate/instruments", file, name, gains, sessionID, interval, onProgress)
}

// SeparateVoices submits a voice separation job; same contract as
// SeparateInstruments but the result is a flat filename list.
func (c *Client) SeparateVoices(ctx context.Context, file []byte, name string, gains []eq.Band, sessionID string, interval time.Duration, onProgress ProgressFunc) (*SeparationResult, error) {
	return c.separate(ctx, "/api/separate/voices", file, name, gains, sessionID, interval, onProgress)
}

func (c *Client) separate(ctx context.Context, path string, file []byte, name string, gains []eq.Band, sessionID string, interval time.Duration, onProgress ProgressFunc) (*SeparationResult, error) {
	body, contentType, err := multipartBody(file, name, map[string]any{
		"gains":     gains,
		"sessionId": sessionID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	// The backend answers the submit immediately; stems arrive when the
	// status endpoint reports done.
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit separation: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("submit separation: status %d", resp.StatusCode)
	}

	return c.pollSeparation(ctx, sessionID, interval, onProgress)
}

type separationStatus struct {
	Progress float64           `json:"progress"` // 0..1
	Done     bool              `json:"done"`
	Error    string            `json:"error,omitempty"`
	Files    map[string]string `json:"files,omitempty"`
	FileList []string          `json:"fileList,omitempty"`
}

// pollSeparation polls the status endpoint until the job finishes.
func (c *Client) pollSeparation(ctx context.Context, sessionID string, interval time.Duration, onProgress ProgressFunc) (*SeparationResult, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/separate/status/"+sessionID, nil)
		if err != nil {
			return nil, fmt.Errorf("create poll request: %w", err)
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			log.Printf("gateway: poll error: %v, retrying...", err)
			continue
		}

		var status separationStatus
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			log.Printf("gateway: poll decode error: %v, retrying...", err)
			continue
		}

		if onProgress != nil {
			onProgress(status.Progress)
		}

		if status.Error != "" {
			return nil, fmt.Errorf("separation failed: %s", status.Error)
		}
		if status.Done {
			return &SeparationResult{Files: status.Files, FileList: status.FileList}, nil
		}
	}
}

// StemURL builds the download URL for a separated stem file.
func (c *Client) StemURL(filename string) string {
	return c.baseURL + "/api/separate/download/" + filename
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// multipartBody assembles a file upload with JSON-encoded side fields.
func multipartBody(file []byte, name string, fields map[string]any) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	for key, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, "", fmt.Errorf("marshal field %s: %w", key, err)
		}
		if err := w.WriteField(key, string(encoded)); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("backend status %d", resp.StatusCode)
	}
	return fmt.Errorf("backend status %d: %s", resp.StatusCode, msg)
}
