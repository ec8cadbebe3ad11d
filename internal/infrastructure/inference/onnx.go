package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
			return
		}
		zlog.Logger.Info().Str("lib", libPath).Msg("ONNX runtime initialized")
	})
	return envErr
}

// ShutdownRuntime releases the ONNX environment. Call once, after every
// model has been closed.
func ShutdownRuntime() {
	if ort.IsInitialized() {
		if err := ort.DestroyEnvironment(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to destroy ONNX environment")
		}
	}
}

// onnxModel runs an exported classifier with a 1x3x224x224 input. Each Predict
// call owns its tensors, so concurrent calls are safe.
type onnxModel struct {
	arch    Architecture
	session *ort.DynamicAdvancedSession
}

// NewONNXLoader returns a LoaderFunc that fetches weights and opens an ONNX
// Runtime session for the requested architecture.
func NewONNXLoader(cfg *config.ModelsConfig) LoaderFunc {
	fetcher := NewWeightsFetcher(cfg.Dir, cfg.BaseURL)
	inputName, outputName := cfg.InputName, cfg.OutputName

	return func(ctx context.Context, arch Architecture) (domain.Model, error) {
		if err := initEnvironment(cfg.OnnxRuntimeLib); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}

		path, err := fetcher.Ensure(ctx, arch)
		if err != nil {
			return nil, err
		}

		session, err := ort.NewDynamicAdvancedSession(path,
			[]string{inputName}, []string{outputName}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create ONNX session for %s: %w", arch.ID, err)
		}
		return &onnxModel{arch: arch, session: session}, nil
	}
}

func (m *onnxModel) ID() string {
	return m.arch.ID
}

func (m *onnxModel) Predict(input []float32) ([]float32, error) {
	inputShape := ort.NewShape(1, processor.Channels, processor.CropSize, processor.CropSize)
	if int64(len(input)) != inputShape.FlattenedSize() {
		return nil, fmt.Errorf("%w: expected %d input values, got %d",
			domain.ErrInferenceFailed, inputShape.FlattenedSize(), len(input))
	}

	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.arch.NumClasses)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := m.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}

	logits := make([]float32, m.arch.NumClasses)
	copy(logits, outputTensor.GetData())
	return logits, nil
}

func (m *onnxModel) Close() error {
	if m.session != nil {
		return m.session.Destroy()
	}
	return nil
}
