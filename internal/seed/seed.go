// Package seed generates synthetic company feature snapshots for local
// development and load testing, and can serve them over the feature
// service HTTP contract so the recommender runs without a real feature
// pipeline.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// Generation bounds for synthetic traction metrics.
const (
	maxFunding   = 50_000_000.0
	maxEmployees = 2000
	growthSpan   = 80.0 // growth rates in [-20, 60]
	growthFloor  = -20.0
)

// Generate builds n deterministic synthetic company snapshots. The same
// seed always yields the same universe.
func Generate(n, embeddingDim int, seed int64) []model.CompanyFeatures {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()

	out := make([]model.CompanyFeatures, 0, n)
	for i := 0; i < n; i++ {
		vec := make([]float64, embeddingDim)
		for j := range vec {
			vec[j] = rng.NormFloat64()
		}
		out = append(out, model.CompanyFeatures{
			CompanyID:        fmt.Sprintf("company-%04d", i),
			UserOverlapScore: rng.Float64(),
			Traction: model.TractionMetrics{
				FundingAmount:   rng.Float64() * maxFunding,
				EmployeeCount:   rng.Intn(maxEmployees) + 1,
				GrowthRate:      growthFloor + rng.Float64()*growthSpan,
				MarketSentiment: rng.Float64()*2 - 1,
				RevenueGrowth:   growthFloor + rng.Float64()*growthSpan,
				UserGrowth:      growthFloor + rng.Float64()*growthSpan,
			},
			CultureVector: vec,
			Timestamp:     now,
		})
	}
	return out
}

// WriteFile dumps the universe as a JSON array.
func WriteFile(path string, companies []model.CompanyFeatures) error {
	raw, err := json.MarshalIndent(companies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode companies: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Serve exposes the universe over the feature service HTTP contract until
// the context ends.
func Serve(ctx context.Context, addr string, companies []model.CompanyFeatures) error {
	byID := make(map[string]model.CompanyFeatures, len(companies))
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		byID[c.CompanyID] = c
		ids = append(ids, c.CompanyID)
	}
	sort.Strings(ids)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /features/company/{id}", func(w http.ResponseWriter, r *http.Request) {
		f, ok := byID[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, f)
	})
	mux.HandleFunc("POST /features/online", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyIDs []string `json:"company_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		found := make([]model.CompanyFeatures, 0, len(req.CompanyIDs))
		for _, id := range req.CompanyIDs {
			if f, ok := byID[id]; ok {
				found = append(found, f)
			}
		}
		writeJSON(w, map[string]any{"features": found})
	})
	mux.HandleFunc("GET /features/companies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"company_ids": ids})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
