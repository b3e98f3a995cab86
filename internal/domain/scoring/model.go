package scoring

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// TwoTowerModel manages the trained scoring model lifecycle: initial load,
// inference, atomic reload, and asynchronous training. It is safe for
// concurrent use; the active model is an immutable value behind an atomic
// pointer, so readers never observe a half-swapped state.
type TwoTowerModel struct {
	dir          string
	embeddingDim int
	accelerator  bool
	trainer      Trainer

	active atomic.Pointer[towerNet]

	trainingActive atomic.Bool

	histMu        sync.Mutex
	history       []model.TrainingRecord
	lastTrainedAt time.Time

	logger logger.Logger
}

// ModelOption applies a configuration option to the TwoTowerModel.
type ModelOption func(*TwoTowerModel)

// WithTrainer wires the training backend. Without one, Train is rejected.
func WithTrainer(t Trainer) ModelOption {
	return func(m *TwoTowerModel) {
		m.trainer = t
	}
}

// WithAccelerator overrides accelerator detection.
func WithAccelerator(available bool) ModelOption {
	return func(m *TwoTowerModel) {
		m.accelerator = available
	}
}

// WithModelLogger sets a custom logger.
func WithModelLogger(l logger.Logger) ModelOption {
	return func(m *TwoTowerModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewTwoTowerModel creates a model manager rooted at dir. Call Initialize
// to load an existing artifact before serving.
func NewTwoTowerModel(dir string, embeddingDim int, opts ...ModelOption) *TwoTowerModel {
	m := &TwoTowerModel{
		dir:          dir,
		embeddingDim: embeddingDim,
		accelerator:  detectAccelerator(),
		logger:       logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads the persisted training history and, if an artifact is
// present, the model itself. A missing artifact is not an error: the
// service starts unloaded and serves fallback scores until trained.
func (m *TwoTowerModel) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	m.loadHistory(ctx)

	net, err := loadArtifact(m.dir, m.embeddingDim)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Info(ctx, "no model artifact found; serving fallback scores until trained")
			metrics.UpdateModelLoaded(false)
			return nil
		}
		return fmt.Errorf("initial model load: %w", err)
	}

	m.active.Store(net)
	metrics.UpdateModelLoaded(true)
	m.logger.Info(ctx, "model loaded",
		logger.String("version", net.artifact.Version),
		logger.Int("embedding_dim", net.artifact.EmbeddingDim),
	)
	return nil
}

// Score runs inference against the currently active model instance.
func (m *TwoTowerModel) Score(ctx context.Context, in PairInput) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("scoring canceled: %w", err)
	}
	net := m.active.Load()
	if net == nil {
		return 0, ErrModelNotLoaded
	}
	return net.score(in)
}

// Status reports the model lifecycle state.
func (m *TwoTowerModel) Status(_ context.Context) model.ModelStatus {
	status := model.ModelStatus{
		AcceleratorAvailable: m.accelerator,
		TrainingActive:       m.trainingActive.Load(),
	}
	if net := m.active.Load(); net != nil {
		status.Loaded = true
		status.Version = net.artifact.Version
		status.LoadedAt = net.loadedAt
	}
	m.histMu.Lock()
	status.LastTrainedAt = m.lastTrainedAt
	m.histMu.Unlock()
	return status
}

// Reload validates the on-disk artifact and swaps it in atomically. On
// validation failure the previous model stays active and ErrReloadFailed
// is returned.
func (m *TwoTowerModel) Reload(ctx context.Context) error {
	net, err := loadArtifact(m.dir, m.embeddingDim)
	if err != nil {
		metrics.RecordModelReload("failure")
		m.logger.Error(ctx, "model reload rejected; previous model stays active", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}

	m.active.Store(net)
	metrics.RecordModelReload("success")
	metrics.UpdateModelLoaded(true)
	m.logger.Info(ctx, "model reloaded", logger.String("version", net.artifact.Version))
	return nil
}

// History returns a copy of the training history, oldest first.
func (m *TwoTowerModel) History(_ context.Context) []model.TrainingRecord {
	m.histMu.Lock()
	defer m.histMu.Unlock()
	out := make([]model.TrainingRecord, len(m.history))
	copy(out, m.history)
	return out
}

// detectAccelerator probes for an NVIDIA device node. The numeric runtime
// falls back to CPU when absent.
func detectAccelerator() bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	return os.Getenv("NVIDIA_VISIBLE_DEVICES") != ""
}
