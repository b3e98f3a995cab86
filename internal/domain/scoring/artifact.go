package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Artifact file names inside the model directory.
const (
	ArtifactFile = "two_tower.json"
	HistoryFile  = "training_history.json"
)

// Layer is one fully connected layer: y = W*x + b, W is [out][in].
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Artifact is the on-disk two-tower checkpoint. Each tower encodes one
// company (dense slots concatenated with the culture vector) into an
// embedding; the pair score is sigmoid(dot(towerA, towerB)).
type Artifact struct {
	Version        string  `json:"version"`
	EmbeddingDim   int     `json:"embedding_dim"`
	DenseDim       int     `json:"dense_dim"`
	QueryTower     []Layer `json:"query_tower"`
	CandidateTower []Layer `json:"candidate_tower"`
}

// towerNet is an immutable, validated in-memory model instance. Readers
// borrow it for the duration of one Score call; reload swaps the pointer
// to a fully constructed replacement.
type towerNet struct {
	artifact Artifact
	loadedAt time.Time
}

// loadArtifact reads and validates the checkpoint in dir. embeddingDim is
// the culture vector length the deployment requires.
func loadArtifact(dir string, embeddingDim int) (*towerNet, error) {
	path := filepath.Join(dir, ArtifactFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidArtifact, path, err)
	}

	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidArtifact, path, err)
	}

	if err := validateArtifact(&art, embeddingDim); err != nil {
		return nil, err
	}

	return &towerNet{artifact: art, loadedAt: time.Now().UTC()}, nil
}

// validateArtifact checks schema and shape consistency.
func validateArtifact(art *Artifact, embeddingDim int) error {
	switch {
	case art.Version == "":
		return fmt.Errorf("%w: missing version", ErrInvalidArtifact)
	case art.EmbeddingDim != embeddingDim:
		return fmt.Errorf("%w: embedding dim %d, want %d", ErrInvalidArtifact, art.EmbeddingDim, embeddingDim)
	case art.DenseDim != DenseDim:
		return fmt.Errorf("%w: dense dim %d, want %d", ErrInvalidArtifact, art.DenseDim, DenseDim)
	case len(art.QueryTower) == 0 || len(art.CandidateTower) == 0:
		return fmt.Errorf("%w: empty tower", ErrInvalidArtifact)
	}

	inputDim := art.DenseDim + art.EmbeddingDim
	outA, err := validateTower("query", art.QueryTower, inputDim)
	if err != nil {
		return err
	}
	outB, err := validateTower("candidate", art.CandidateTower, inputDim)
	if err != nil {
		return err
	}
	if outA != outB {
		return fmt.Errorf("%w: tower output dims differ (%d vs %d)", ErrInvalidArtifact, outA, outB)
	}
	return nil
}

// validateTower checks that layer shapes chain together and returns the
// tower output dimension.
func validateTower(name string, layers []Layer, inputDim int) (int, error) {
	dim := inputDim
	for i, layer := range layers {
		out := len(layer.Weights)
		if out == 0 || out != len(layer.Bias) {
			return 0, fmt.Errorf("%w: %s tower layer %d bias/weight rows mismatch", ErrInvalidArtifact, name, i)
		}
		for _, row := range layer.Weights {
			if len(row) != dim {
				return 0, fmt.Errorf("%w: %s tower layer %d expects input dim %d, row has %d",
					ErrInvalidArtifact, name, i, dim, len(row))
			}
		}
		dim = out
	}
	return dim, nil
}

// score runs the two-tower forward pass for one pair.
func (n *towerNet) score(in PairInput) (float64, error) {
	art := &n.artifact
	if len(in.QueryVector) != art.EmbeddingDim || len(in.CandidateVector) != art.EmbeddingDim {
		return 0, fmt.Errorf("%w: culture vector length %d/%d, want %d",
			ErrInputShape, len(in.QueryVector), len(in.CandidateVector), art.EmbeddingDim)
	}
	if len(in.QueryDense) != art.DenseDim || len(in.CandidateDense) != art.DenseDim {
		return 0, fmt.Errorf("%w: dense length %d/%d, want %d",
			ErrInputShape, len(in.QueryDense), len(in.CandidateDense), art.DenseDim)
	}

	qa := forward(art.QueryTower, concat(in.QueryDense, in.QueryVector))
	qb := forward(art.CandidateTower, concat(in.CandidateDense, in.CandidateVector))

	var dot float64
	for i := range qa {
		dot += qa[i] * qb[i]
	}
	return sigmoid(dot), nil
}

// forward applies each layer with ReLU activation on all but the last.
func forward(layers []Layer, x []float64) []float64 {
	for i, layer := range layers {
		y := make([]float64, len(layer.Weights))
		for r, row := range layer.Weights {
			sum := layer.Bias[r]
			for c, w := range row {
				sum += w * x[c]
			}
			y[r] = sum
		}
		if i < len(layers)-1 {
			for r := range y {
				if y[r] < 0 {
					y[r] = 0
				}
			}
		}
		x = y
	}
	return x
}

func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
