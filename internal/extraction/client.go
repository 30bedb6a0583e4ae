package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client communicates with the external text-recognition service. The
// service accepts a multipart file attachment on POST /ocr and answers with
// a JSON body carrying the recognized text.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a recognizer client. timeout bounds each recognition
// request; the per-job deadline is enforced separately by the pipeline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UpstreamError is a non-2xx response from the recognizer.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("recognizer: status %d: %s", e.Status, e.Body)
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize sends the payload and returns the recognized text.
func (c *Client) Recognize(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return parsed.Text, nil
}
