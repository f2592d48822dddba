package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/domain/service"
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"
)

// defaultLabels is the model's class set, used when no labels file is
// configured or the configured one cannot be read.
var defaultLabels = []string{
	"healthy",
	"powdery_mildew",
	"Late_blight",
	"Septoria_leaf_spot",
	"Tomato_mosaic_virus",
}

// inferenceResponse is the wire format of the inference sidecar.
type inferenceResponse struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// HTTPClassifier talks to the TFLite inference sidecar over HTTP and applies
// the model-validity gate: a label outside the known class set is replaced
// with the unrecognized sentinel and its confidence forced to zero.
// Implements port.Classifier.
type HTTPClassifier struct {
	cfg         config.ClassifierConfig
	client      *http.Client
	validLabels map[string]struct{}
	logger      *logger.Logger
}

// NewHTTPClassifier creates the client and loads the labels file.
func NewHTTPClassifier(cfg config.ClassifierConfig, log *logger.Logger) *HTTPClassifier {
	c := &HTTPClassifier{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		validLabels: make(map[string]struct{}),
		logger:      log,
	}

	labels := loadLabels(cfg.LabelsPath)
	if labels == nil {
		log.Warn("Labels file unavailable, using built-in class set", "path", cfg.LabelsPath)
		labels = defaultLabels
	}
	for _, label := range labels {
		c.validLabels[label] = struct{}{}
	}

	log.Info("Classifier labels loaded", "count", len(c.validLabels))
	return c
}

// Classify sends the image to the sidecar and gates the returned label.
func (c *HTTPClassifier) Classify(ctx context.Context, image []byte) (port.Classification, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.cfg.BaseURL+"/classify", bytes.NewReader(image))
	if err != nil {
		return port.Classification{}, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return port.Classification{}, fmt.Errorf("%w: %v", port.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return port.Classification{}, fmt.Errorf("%w: status %d: %s",
			port.ErrClassifierUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return port.Classification{}, fmt.Errorf("%w: unparseable response: %v",
			port.ErrClassifierUnavailable, err)
	}

	classification := port.Classification{
		ClassName:  result.ClassName,
		Confidence: result.Confidence,
		Elapsed:    time.Since(started),
	}

	// Model-validity gate.
	if _, ok := c.validLabels[result.ClassName]; !ok {
		c.logger.Warn("Classifier returned a label outside the model's class set",
			"label", result.ClassName)
		classification.ClassName = service.UnrecognizedLabel
		classification.Confidence = 0
	}

	return classification, nil
}

// loadLabels reads one label per line, skipping blanks.
func loadLabels(path string) []string {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var labels []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			labels = append(labels, line)
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}
