package detection

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

// Source is one detector sub-model. The model itself is a black box behind
// an inference service.
type Source interface {
	Category() string
	Detect(ctx context.Context, frame Frame) ([]Record, error)
}

// HTTPSource posts frames to an external inference service and decodes its
// detections.
type HTTPSource struct {
	category     string
	inferenceURL string
	client       *http.Client
}

func NewHTTPSource(category, inferenceURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		category:     category,
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Category() string {
	return s.category
}

type inferenceDetection struct {
	ClassName  string     `json:"class_name"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

func (s *HTTPSource) Detect(ctx context.Context, frame Frame) ([]Record, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(frame.Data)); err != nil {
		return nil, fmt.Errorf("copy frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []inferenceDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]Record, 0, len(result.Detections))
	for _, det := range result.Detections {
		records = append(records, Record{
			Label:          det.ClassName,
			Confidence:     det.Confidence,
			BBox:           BBox{X1: det.BBox[0], Y1: det.BBox[1], X2: det.BBox[2], Y2: det.BBox[3]},
			SourceCategory: s.category,
		})
	}
	return records, nil
}

// RunSources invokes every source on the frame. A failing or panicking
// source yields a failed SourceResult and never stops the others.
func RunSources(ctx context.Context, sources []Source, frame Frame) []SourceResult {
	results := make([]SourceResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, runSource(ctx, src, frame))
	}
	return results
}

func runSource(ctx context.Context, src Source, frame Frame) (res SourceResult) {
	res.Category = src.Category()
	defer func() {
		if r := recover(); r != nil {
			res.Detections = nil
			res.Err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	res.Detections, res.Err = src.Detect(ctx, frame)
	return res
}
