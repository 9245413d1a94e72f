// Package classifier runs plant-disease classification with a pretrained
// convolutional network. The network and its weights are an opaque external
// artifact; this package owns preprocessing, the forward-pass plumbing and
// the ranking of the output distribution.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrModelNotLoaded indicates the model failed to load at startup. The
// service keeps running in a degraded state and reports this per request
// instead of crashing the process.
var ErrModelNotLoaded = errors.New("model not loaded")

// topK is the number of ranked classes returned per prediction.
const topK = 5

// Prediction is one ranked class with its softmax probability.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of a single classification.
type Result struct {
	Predictions []Prediction
	Stats       TensorStats
}

// Runner executes a single forward pass over a preprocessed input tensor
// and returns the raw class logits.
type Runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// Classifier holds the loaded network. It is created once at startup and
// read-only afterwards; Predict is safe for concurrent use.
type Classifier struct {
	labels  []string
	runner  Runner
	loadErr error
	logger  *slog.Logger

	// The runner binds fixed input/output tensors, so forward passes
	// cannot overlap.
	mu sync.Mutex
}

// New creates a Classifier over an already-initialized runner.
func New(labels []string, runner Runner, logger *slog.Logger) *Classifier {
	return &Classifier{labels: labels, runner: runner, logger: logger}
}

// Degraded creates a Classifier whose Predict always reports
// ErrModelNotLoaded, preserving the cause for logging.
func Degraded(loadErr error, logger *slog.Logger) *Classifier {
	return &Classifier{loadErr: loadErr, logger: logger}
}

// LoadOptions configures artifact loading.
type LoadOptions struct {
	ModelPath  string
	LabelsPath string
	// Path to the onnxruntime shared library; empty uses the platform default.
	SharedLibraryPath string
	// AllowParentFallback enables a single parent-directory lookup for
	// artifacts left at their default paths. Deployments that start the
	// process from a subdirectory of the release root rely on this.
	AllowParentFallback bool
}

// Load builds the classifier from on-disk artifacts. It never fails hard:
// any load error is logged and yields a degraded classifier so the HTTP
// surface can still serve auth traffic and explicit model errors.
func Load(opts LoadOptions, logger *slog.Logger) *Classifier {
	labelsPath := resolveArtifact(opts.LabelsPath, opts.AllowParentFallback, logger)
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		logger.Error("failed to load class labels", "path", labelsPath, "error", err)
		return Degraded(err, logger)
	}

	modelPath := resolveArtifact(opts.ModelPath, opts.AllowParentFallback, logger)
	runner, err := newONNXRunner(modelPath, opts.SharedLibraryPath)
	if err != nil {
		logger.Error("failed to load model", "path", modelPath, "error", err)
		return Degraded(err, logger)
	}

	logger.Info("model loaded", "path", modelPath, "classes", len(labels))
	return New(labels, runner, logger)
}

// resolveArtifact returns path, or its parent-directory sibling when the
// file is missing, fallback is allowed, and the sibling exists.
func resolveArtifact(path string, allowFallback bool, logger *slog.Logger) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if !allowFallback {
		return path
	}

	parent := filepath.Join("..", path)
	if _, err := os.Stat(parent); err == nil {
		logger.Warn("artifact not in working directory, using parent directory",
			"path", path,
			"fallback", parent,
		)
		return parent
	}

	return path
}

// Ready reports whether the model loaded successfully.
func (c *Classifier) Ready() bool {
	return c.runner != nil
}

// Predict classifies the uploaded image bytes and returns the top-5
// classes by probability, plus input-tensor diagnostics. Identical input
// bytes always produce identical output; there is no randomness at
// inference time.
func (c *Classifier) Predict(ctx context.Context, data []byte) (*Result, error) {
	if c.runner == nil {
		return nil, ErrModelNotLoaded
	}

	tensor, stats, err := preprocess(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	logits, err := c.runner.Run(tensor)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("forward pass failed: %w", err)
	}

	if len(logits) != len(c.labels) {
		return nil, fmt.Errorf("model returned %d logits, want %d", len(logits), len(c.labels))
	}

	probs := softmax(logits)
	ranked := rank(probs)

	predictions := make([]Prediction, topK)
	for i := 0; i < topK; i++ {
		idx := ranked[i]
		predictions[i] = Prediction{
			Class:      c.labels[idx],
			Confidence: probs[idx],
		}
	}

	c.logger.Debug("input tensor stats",
		"min", stats.Min,
		"max", stats.Max,
		"mean", stats.Mean,
	)

	return &Result{Predictions: predictions, Stats: stats}, nil
}

// Close releases the runner's resources.
func (c *Classifier) Close() error {
	if c.runner == nil {
		return nil
	}
	return c.runner.Close()
}

// softmax converts raw logits into a probability distribution. Shifted by
// the max logit for numerical stability.
func softmax(logits []float32) []float64 {
	max := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > max {
			max = float64(v)
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

// rank returns class indices ordered by probability descending. The sort
// is stable, so ties keep their original index order.
func rank(probs []float64) []int {
	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})

	return indices
}
