package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/aditya13504/partner-recommender/internal/adapters/http/api"
	"github.com/aditya13504/partner-recommender/internal/app"
	"github.com/aditya13504/partner-recommender/internal/domain/explain"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/domain/scoring"
	"github.com/aditya13504/partner-recommender/internal/engine"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

// stubDeps is a canned Dependencies implementation.
type stubDeps struct {
	recs        []model.Recommendation
	recommend   error
	asyncBatch  bool
	cached      map[string][]model.Recommendation
	trainErr    error
	reloadErr   error
	modelStatus model.ModelStatus
	history     []model.TrainingRecord
}

func (s *stubDeps) Recommend(_ context.Context, req engine.Request) ([]model.Recommendation, error) {
	if s.recommend != nil {
		return nil, s.recommend
	}
	return s.recs, nil
}

func (s *stubDeps) RecommendBatch(_ context.Context, queryIDs []string, _ int, _ *float64, _ *model.Filters) (app.BatchOutcome, error) {
	if s.asyncBatch {
		return app.BatchOutcome{Async: true, JobID: "job-123"}, nil
	}
	results := make(map[string][]model.Recommendation, len(queryIDs))
	for _, id := range queryIDs {
		results[id] = s.recs
	}
	return app.BatchOutcome{Results: results}, nil
}

func (s *stubDeps) BatchResults(_ context.Context, queryID string) ([]model.Recommendation, bool, error) {
	recs, ok := s.cached[queryID]
	return recs, ok, nil
}

func (s *stubDeps) Explain(_ context.Context, queryID, partnerID string, _ int) (explain.Explanation, error) {
	if queryID == "ghost" || partnerID == "ghost" {
		return explain.Explanation{}, engine.ErrFeaturesNotFound
	}
	return explain.Explanation{QueryCompany: queryID, PartnerCompany: partnerID, OverallMatchScore: 0.8}, nil
}

func (s *stubDeps) FeatureStoreHealthy(context.Context) bool      { return true }
func (s *stubDeps) ModelStatus(context.Context) model.ModelStatus { return s.modelStatus }
func (s *stubDeps) ReloadModel(context.Context) error             { return s.reloadErr }
func (s *stubDeps) Train(_ context.Context, _ string, _, _ map[string]any) error {
	return s.trainErr
}
func (s *stubDeps) TrainingHistory(context.Context) []model.TrainingRecord { return s.history }
func (s *stubDeps) Stats(context.Context) engine.Stats {
	return engine.Stats{CompaniesIndexed: 3, DefaultTopK: 10}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func sample() []model.Recommendation {
	return []model.Recommendation{
		{CompanyID: "beta", MatchScore: 0.9, Confidence: 0.99},
		{CompanyID: "gamma", MatchScore: 0.7, Confidence: 0.77},
	}
}

func TestRecommendEndpoint(t *testing.T) {
	Convey("Given the API over a stub service", t, func() {
		deps := &stubDeps{recs: sample()}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("POST /recommend returns ranked recommendations", func() {
			resp := postJSON(t, srv.URL+"/recommend", map[string]any{"company_id": "alpha", "top_k": 5})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["query_company"], ShouldEqual, "alpha")
			So(body["count"], ShouldEqual, 2)
		})

		Convey("A missing company_id is a 400", func() {
			resp := postJSON(t, srv.URL+"/recommend", map[string]any{"top_k": 5})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("An out-of-range threshold is a 400", func() {
			resp := postJSON(t, srv.URL+"/recommend", map[string]any{"company_id": "alpha", "threshold": 1.5})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("An unknown company is a 404", func() {
			deps.recommend = engine.ErrUnknownCompany
			resp := postJSON(t, srv.URL+"/recommend", map[string]any{"company_id": "ghost"})
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})

		Convey("A backend failure is a 503", func() {
			deps.recommend = errors.New("feature service down")
			resp := postJSON(t, srv.URL+"/recommend", map[string]any{"company_id": "alpha"})
			So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			resp.Body.Close()
		})

		Convey("GET /recommend is not routed", func() {
			resp, err := http.Get(srv.URL + "/recommend")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})
	})
}

func TestBatchEndpoints(t *testing.T) {
	Convey("Given the API over a stub service", t, func() {
		deps := &stubDeps{
			recs:   sample(),
			cached: map[string][]model.Recommendation{"alpha": sample()},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("A small batch is served inline with 200", func() {
			resp := postJSON(t, srv.URL+"/batch-recommend", map[string]any{"company_ids": []string{"a", "b"}})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["mode"], ShouldEqual, "sync")
			So(body["count"], ShouldEqual, 2)
		})

		Convey("A large batch is accepted with 202 and a job id", func() {
			deps.asyncBatch = true
			resp := postJSON(t, srv.URL+"/batch-recommend", map[string]any{"company_ids": []string{"a"}})
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)

			body := decode[map[string]any](t, resp)
			So(body["mode"], ShouldEqual, "async")
			So(body["job_id"], ShouldEqual, "job-123")
		})

		Convey("Empty company_ids is a 400", func() {
			resp := postJSON(t, srv.URL+"/batch-recommend", map[string]any{"company_ids": []string{}})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("Polling a ready result returns it", func() {
			resp, err := http.Get(srv.URL + "/batch-recommend/alpha")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["query_company"], ShouldEqual, "alpha")
			So(body["count"], ShouldEqual, 2)
		})

		Convey("Polling an unknown result is a 404", func() {
			resp, err := http.Get(srv.URL + "/batch-recommend/unknown")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})
	})
}

func TestExplainEndpoint(t *testing.T) {
	Convey("Given the API over a stub service", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("GET /explain returns the decomposition", func() {
			resp, err := http.Get(srv.URL + "/explain?query_company=alpha&partner_company=beta")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["query_company"], ShouldEqual, "alpha")
			So(body["partner_company"], ShouldEqual, "beta")
		})

		Convey("Missing parameters are a 400", func() {
			resp, err := http.Get(srv.URL + "/explain?query_company=alpha")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("Unknown companies are a 404", func() {
			resp, err := http.Get(srv.URL + "/explain?query_company=ghost&partner_company=beta")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})
	})
}

func TestModelEndpoints(t *testing.T) {
	Convey("Given the API over a stub service", t, func() {
		deps := &stubDeps{modelStatus: model.ModelStatus{Loaded: true, Version: "v3"}}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("GET /model/status reports the lifecycle state", func() {
			resp, err := http.Get(srv.URL + "/model/status")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["loaded"], ShouldEqual, true)
			So(body["version"], ShouldEqual, "v3")
		})

		Convey("POST /model/reload returns the refreshed status", func() {
			resp := postJSON(t, srv.URL+"/model/reload", map[string]any{})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})

		Convey("A failed reload is a 409", func() {
			deps.reloadErr = scoring.ErrReloadFailed
			resp := postJSON(t, srv.URL+"/model/reload", map[string]any{})
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			resp.Body.Close()
		})

		Convey("POST /train acknowledges with 202", func() {
			resp := postJSON(t, srv.URL+"/train", map[string]any{"dataset_ref": "s3://pairs"})
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			resp.Body.Close()
		})

		Convey("Training without a dataset_ref is a 400", func() {
			resp := postJSON(t, srv.URL+"/train", map[string]any{})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("A training run already in flight is a 409", func() {
			deps.trainErr = scoring.ErrTrainingInProgress
			resp := postJSON(t, srv.URL+"/train", map[string]any{"dataset_ref": "s3://pairs"})
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			resp.Body.Close()
		})

		Convey("Training without a configured trainer is a 501", func() {
			deps.trainErr = scoring.ErrTrainingUnavailable
			resp := postJSON(t, srv.URL+"/train", map[string]any{"dataset_ref": "s3://pairs"})
			So(resp.StatusCode, ShouldEqual, http.StatusNotImplemented)
			resp.Body.Close()
		})

		Convey("GET /train/history lists past runs", func() {
			deps.history = []model.TrainingRecord{{DatasetRef: "ds", Status: model.TrainingSucceeded}}
			resp, err := http.Get(srv.URL + "/train/history")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["count"], ShouldEqual, 1)
		})
	})
}

func TestOpsEndpoints(t *testing.T) {
	Convey("Given the API over a stub service", t, func() {
		srv := newTestServer(&stubDeps{modelStatus: model.ModelStatus{Loaded: true}})
		defer srv.Close()

		Convey("GET /healthz reports ok with model state", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["status"], ShouldEqual, "ok")
			So(body["model_loaded"], ShouldEqual, true)
			So(body["feature_store_healthy"], ShouldEqual, true)
		})

		Convey("GET /stats reports serving statistics", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			body := decode[map[string]any](t, resp)
			So(body["companies_indexed"], ShouldEqual, 3)
		})

		Convey("GET /metrics serves the Prometheus registry", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})
	})
}
