package classifier

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Tensor names fixed at ONNX export time.
const (
	onnxInputName  = "input"
	onnxOutputName = "output"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// onnxRunner wraps an onnxruntime session with pre-bound input and output
// tensors. Bound tensors make individual Run calls allocation-free but not
// concurrency-safe; the Classifier serializes access.
type onnxRunner struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func newONNXRunner(modelPath, sharedLibPath string) (*onnxRunner, error) {
	// The onnxruntime environment is process-wide and initialized once.
	ortInitOnce.Do(func() {
		if sharedLibPath != "" {
			ort.SetSharedLibraryPath(sharedLibPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", ortInitErr)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, channels, cropSize, cropSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, classCount))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{onnxInputName},
		[]string{onnxOutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create model session: %w", err)
	}

	return &onnxRunner{session: session, input: input, output: output}, nil
}

// Run executes one forward pass. The caller must not invoke Run
// concurrently.
func (r *onnxRunner) Run(tensor []float32) ([]float32, error) {
	copy(r.input.GetData(), tensor)

	if err := r.session.Run(); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}

	logits := make([]float32, classCount)
	copy(logits, r.output.GetData())
	return logits, nil
}

// Close destroys the session and its tensors.
func (r *onnxRunner) Close() error {
	r.session.Destroy()
	r.input.Destroy()
	r.output.Destroy()
	return nil
}
