package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"house-inspect/internal/domain/entity"
	"house-inspect/internal/domain/port"
)

// HTTPDetector отправляет кадр во внешний сервис инференса и разбирает ответ.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
}

// detection элемент ответа сервиса инференса
type detection struct {
	Category         entity.ProblemCategory `json:"category"`
	Description      string                 `json:"description"`
	Severity         entity.Severity        `json:"severity"`
	Confidence       float64                `json:"confidence"`
	BoundingBox      *entity.BoundingBox    `json:"boundingBox"`
	RepairSuggestion string                 `json:"repairSuggestion"`
	EstimatedCost    int64                  `json:"estimatedCost"`
}

type detectResponse struct {
	Detections []detection `json:"detections"`
}

// NewHTTPDetector создаёт клиента; timeout ограничивает один запрос
func NewHTTPDetector(endpoint string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Detect отправляет кадр как multipart/form-data
func (d *HTTPDetector) Detect(ctx context.Context, frame entity.Frame) ([]entity.Problem, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(frame.Image); err != nil {
		return nil, err
	}
	_ = writer.WriteField("timestamp", strconv.FormatFloat(frame.Timestamp, 'f', -1, 64))
	_ = writer.WriteField("width", strconv.Itoa(frame.Width))
	_ = writer.WriteField("height", strconv.Itoa(frame.Height))
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference service is unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}

	problems := make([]entity.Problem, 0, len(result.Detections))
	for i, det := range result.Detections {
		problems = append(problems, toProblem(det, frame, i))
	}
	return problems, nil
}

func toProblem(det detection, frame entity.Frame, index int) entity.Problem {
	category := det.Category
	if !category.IsValid() {
		category = entity.CategoryOther
	}
	severity := min(max(det.Severity, entity.SeverityMinor), entity.SeverityCritical)

	// Вырожденная рамка ничего не говорит о положении
	box := det.BoundingBox
	if box != nil && box.Area() <= 0 {
		box = nil
	}
	location := "в кадре"
	if box != nil {
		location = LocationDescription(*box, frame.Width, frame.Height)
	}

	return entity.Problem{
		ID:               entity.NewProblemID(frame.Timestamp, index),
		Category:         category,
		Description:      det.Description,
		Severity:         severity,
		Confidence:       min(max(det.Confidence, 0), 1),
		Location:         location,
		Timestamp:        frame.Timestamp,
		BoundingBox:      box,
		RepairSuggestion: det.RepairSuggestion,
		EstimatedCost:    det.EstimatedCost,
	}
}

var _ port.ProblemDetector = (*HTTPDetector)(nil)
