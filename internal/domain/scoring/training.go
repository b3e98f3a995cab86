package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Trainer produces a new model artifact in outDir from a dataset reference.
// Implementations run the multi-hour training pipeline; they must write a
// loadable artifact on success.
type Trainer interface {
	Train(ctx context.Context, datasetRef string, config, params map[string]any, outDir string) error
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(ctx context.Context, datasetRef string, config, params map[string]any, outDir string) error

func (f TrainerFunc) Train(ctx context.Context, datasetRef string, config, params map[string]any, outDir string) error {
	return f(ctx, datasetRef, config, params, outDir)
}

// ExecTrainer shells the training job out to an external pipeline command.
// The command receives the dataset reference and output directory as flags
// and the config/params document on stdin.
type ExecTrainer struct {
	Command string
}

func (t *ExecTrainer) Train(ctx context.Context, datasetRef string, config, params map[string]any, outDir string) error {
	doc, err := json.Marshal(map[string]any{
		"dataset_ref": datasetRef,
		"config":      config,
		"params":      params,
	})
	if err != nil {
		return fmt.Errorf("encode training request: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.Command, "--dataset", datasetRef, "--out", outDir)
	cmd.Stdin = bytes.NewReader(doc)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("trainer command: %w (output: %s)", err, truncate(string(out), 512))
	}
	return nil
}

// Train starts an asynchronous training run. It returns immediately;
// completion (success or failure) is appended to the training history, and
// success triggers an implicit reload. Only one run may be active at a time.
func (m *TwoTowerModel) Train(ctx context.Context, datasetRef string, config, params map[string]any) error {
	if m.trainer == nil {
		return ErrTrainingUnavailable
	}
	if !m.trainingActive.CompareAndSwap(false, true) {
		return ErrTrainingInProgress
	}

	m.logger.Info(ctx, "training started", logger.String("dataset_ref", datasetRef))

	// The job is fire-and-forget: it survives the request context and is
	// bounded only by process lifetime.
	go m.runTraining(context.Background(), datasetRef, config, params)
	return nil
}

func (m *TwoTowerModel) runTraining(ctx context.Context, datasetRef string, config, params map[string]any) {
	defer m.trainingActive.Store(false)

	record := model.TrainingRecord{
		Timestamp:  time.Now().UTC(),
		DatasetRef: datasetRef,
		Config:     config,
		Params:     params,
	}

	err := m.trainer.Train(ctx, datasetRef, config, params, m.dir)
	if err != nil {
		record.Status = model.TrainingFailed
		record.Error = err.Error()
		m.appendHistory(ctx, record)
		metrics.RecordTrainingRun("failure")
		m.logger.Error(ctx, "training failed; serving model unchanged", logger.Error(err))
		return
	}

	// Read the produced artifact version for the history entry, then swap
	// it in. A reload failure here is recorded as a failed run: the old
	// model keeps serving.
	if reloadErr := m.Reload(ctx); reloadErr != nil {
		record.Status = model.TrainingFailed
		record.Error = reloadErr.Error()
		m.appendHistory(ctx, record)
		metrics.RecordTrainingRun("failure")
		return
	}

	if net := m.active.Load(); net != nil {
		record.ModelVersion = net.artifact.Version
	}
	record.Status = model.TrainingSucceeded
	m.appendHistory(ctx, record)
	metrics.RecordTrainingRun("success")
	m.logger.Info(ctx, "training completed",
		logger.String("dataset_ref", datasetRef),
		logger.String("model_version", record.ModelVersion),
	)
}

// appendHistory appends a record to the in-memory history and persists the
// full history file. History is append-only; entries are never removed.
func (m *TwoTowerModel) appendHistory(ctx context.Context, record model.TrainingRecord) {
	m.histMu.Lock()
	defer m.histMu.Unlock()

	m.history = append(m.history, record)
	m.lastTrainedAt = record.Timestamp

	raw, err := json.MarshalIndent(m.history, "", "  ")
	if err != nil {
		m.logger.Error(ctx, "encode training history", logger.Error(err))
		return
	}
	path := filepath.Join(m.dir, HistoryFile)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		m.logger.Error(ctx, "persist training history", logger.Error(err))
	}
}

// loadHistory restores persisted training history; absence is fine.
func (m *TwoTowerModel) loadHistory(ctx context.Context) {
	path := filepath.Join(m.dir, HistoryFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}

	m.histMu.Lock()
	defer m.histMu.Unlock()
	if err := json.Unmarshal(raw, &m.history); err != nil {
		m.logger.Warn(ctx, "training history unreadable; starting empty", logger.Error(err))
		m.history = nil
		return
	}
	if n := len(m.history); n > 0 {
		m.lastTrainedAt = m.history[n-1].Timestamp
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
