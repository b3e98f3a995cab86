package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"testing"

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

// stubProvider serves a fixed feature universe from memory.
type stubProvider struct {
	companies map[string]model.CompanyFeatures
	batchErr  error
	listErr   error
}

func (p *stubProvider) Get(_ context.Context, id string) (*model.CompanyFeatures, error) {
	f, ok := p.companies[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (p *stubProvider) GetBatch(_ context.Context, ids []string) (map[string]model.CompanyFeatures, error) {
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	out := make(map[string]model.CompanyFeatures, len(ids))
	for _, id := range ids {
		if f, ok := p.companies[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (p *stubProvider) ListCompanyIDs(_ context.Context) ([]string, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	ids := make([]string, 0, len(p.companies))
	for id := range p.companies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// stubScorer scores pairs from a fixed table, or reports no model.
type stubScorer struct {
	scores   map[string]float64 // key "query|candidate"
	unloaded bool
	failFor  string
}

func (s *stubScorer) Score(_ context.Context, in scoring.PairInput) (float64, error) {
	if s.unloaded {
		return 0, scoring.ErrModelNotLoaded
	}
	if s.failFor != "" && in.CandidateID == s.failFor {
		return 0, errors.New("scorer blew up")
	}
	if v, ok := s.scores[in.QueryID+"|"+in.CandidateID]; ok {
		return v, nil
	}
	return 0.75, nil
}

func (s *stubScorer) Status(context.Context) model.ModelStatus {
	return model.ModelStatus{Loaded: !s.unloaded, Version: "test"}
}

func company(id string, axis int) model.CompanyFeatures {
	v := make([]float64, 8)
	v[axis%8] = 1
	return model.CompanyFeatures{
		CompanyID:        id,
		UserOverlapScore: 0.4,
		Traction: model.TractionMetrics{
			FundingAmount:   2_000_000,
			EmployeeCount:   50,
			GrowthRate:      20,
			MarketSentiment: 0.3,
		},
		CultureVector: v,
	}
}

func universe(n int) map[string]model.CompanyFeatures {
	out := make(map[string]model.CompanyFeatures, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("company-%02d", i)
		out[id] = company(id, i)
	}
	return out
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over a small universe", t, func() {
		provider := &stubProvider{companies: universe(6)}
		scorer := &stubScorer{scores: map[string]float64{
			"company-00|company-01": 0.9,
			"company-00|company-02": 0.8,
			"company-00|company-03": 0.8,
			"company-00|company-04": 0.6,
			"company-00|company-05": 0.2,
		}}
		eng := engine.New(provider, scorer, engine.WithThreshold(0.5))

		Convey("Recommendations are ranked, thresholded, and exclude the query", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 4) // company-05 falls below threshold

			So(recs[0].CompanyID, ShouldEqual, "company-01")
			for i := 1; i < len(recs); i++ {
				So(recs[i].MatchScore, ShouldBeLessThanOrEqualTo, recs[i-1].MatchScore)
			}
			for _, r := range recs {
				So(r.CompanyID, ShouldNotEqual, "company-00")
			}
		})

		Convey("Equal scores break ties by company id ascending", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			So(recs[1].CompanyID, ShouldEqual, "company-02")
			So(recs[2].CompanyID, ShouldEqual, "company-03")
		})

		Convey("TopK truncates after ranking", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00", TopK: 2})
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 2)
			So(recs[0].CompanyID, ShouldEqual, "company-01")
		})

		Convey("Confidence is min(score*1.1, 1)", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			So(recs[0].Confidence, ShouldAlmostEqual, 0.99) // 0.9 * 1.1
			So(recs[0].Confidence, ShouldBeLessThanOrEqualTo, 1.0)
		})

		Convey("Every recommendation carries reasoning and metadata", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			for _, r := range recs {
				So(r.Reasoning.CompatibilityFactors, ShouldHaveLength, 4)
				So(r.Metadata.ScoredBy, ShouldEqual, model.ScoredByModel)
				So(r.Metadata.QueryCompany, ShouldEqual, "company-00")
				So(r.Metadata.QueryID, ShouldNotBeEmpty)
			}
		})

		Convey("Filters drop candidates before scoring", func() {
			minEmployees := 100
			recs, err := eng.Recommend(ctx, engine.Request{
				CompanyID: "company-00",
				Filters:   &model.Filters{MinEmployees: &minEmployees},
			})
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})

		Convey("A per-request threshold overrides the default", func() {
			loose := 0.1
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00", Threshold: &loose})
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 5)
		})

		Convey("An unknown query company is an error", func() {
			_, err := eng.Recommend(ctx, engine.Request{CompanyID: "ghost"})
			So(err, ShouldWrap, engine.ErrUnknownCompany)
		})

		Convey("A failing candidate is skipped, not fatal", func() {
			scorer.failFor = "company-01"
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			for _, r := range recs {
				So(r.CompanyID, ShouldNotEqual, "company-01")
			}
		})

		Convey("A candidate fetch failure degrades to no recommendations", func() {
			provider.batchErr = errors.New("feature service down")
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "company-00"})
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})
	})

	Convey("Given an engine with no model loaded", t, func() {
		provider := &stubProvider{companies: map[string]model.CompanyFeatures{
			"aligned-a": company("aligned-a", 0),
			"aligned-b": company("aligned-b", 0),
			"opposed":   company("opposed", 1),
		}}
		eng := engine.New(provider, &stubScorer{unloaded: true}, engine.WithThreshold(0.6))

		Convey("The similarity fallback serves scores", func() {
			recs, err := eng.Recommend(ctx, engine.Request{CompanyID: "aligned-a"})
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1) // identical culture scores 1.0, orthogonal 0.5 < 0.6

			So(recs[0].CompanyID, ShouldEqual, "aligned-b")
			So(recs[0].MatchScore, ShouldAlmostEqual, 1.0)
			So(recs[0].Metadata.ScoredBy, ShouldEqual, model.ScoredByFallback)
		})
	})
}

func TestRecommendBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over a universe", t, func() {
		provider := &stubProvider{companies: universe(5)}
		eng := engine.New(provider, &stubScorer{}, engine.WithBatchConcurrency(2))

		Convey("Every requested id gets an entry, failures map to empty", func() {
			out := eng.RecommendBatch(ctx,
				[]string{"company-00", "company-01", "ghost", "company-00"}, 3, nil, nil)

			So(out, ShouldHaveLength, 3) // deduped
			So(out["company-00"], ShouldNotBeEmpty)
			So(out["company-01"], ShouldNotBeEmpty)
			So(out["ghost"], ShouldBeEmpty)
			So(out["ghost"], ShouldNotBeNil)
		})

		Convey("Each per-query list respects topK", func() {
			out := eng.RecommendBatch(ctx, []string{"company-00", "company-01"}, 2, nil, nil)
			for _, recs := range out {
				So(len(recs), ShouldBeLessThanOrEqualTo, 2)
			}
		})
	})
}

func TestExplain(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over a universe", t, func() {
		provider := &stubProvider{companies: universe(3)}
		eng := engine.New(provider, &stubScorer{})

		Convey("Explain returns a full decomposition", func() {
			e, err := eng.Explain(ctx, "company-00", "company-01", 10)
			So(err, ShouldBeNil)
			So(e.QueryCompany, ShouldEqual, "company-00")
			So(e.PartnerCompany, ShouldEqual, "company-01")
			So(e.OverallMatchScore, ShouldEqual, 0.75)
			So(e.FeatureContributions, ShouldNotBeEmpty)
		})

		Convey("A missing side is ErrFeaturesNotFound", func() {
			_, err := eng.Explain(ctx, "ghost", "company-01", 10)
			So(err, ShouldWrap, engine.ErrFeaturesNotFound)

			_, err = eng.Explain(ctx, "company-00", "ghost", 10)
			So(err, ShouldWrap, engine.ErrFeaturesNotFound)
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given an engine over a universe", t, func() {
		eng := engine.New(&stubProvider{companies: universe(7)}, &stubScorer{},
			engine.WithThreshold(0.4), engine.WithTopKLimits(5, 50))

		Convey("Stats reflect configuration and universe size", func() {
			s := eng.Stats(context.Background())
			So(s.CompaniesIndexed, ShouldEqual, 7)
			So(s.SimilarityThreshold, ShouldEqual, 0.4)
			So(s.DefaultTopK, ShouldEqual, 5)
			So(s.MaxTopK, ShouldEqual, 50)
			So(s.Model.Loaded, ShouldBeTrue)
		})
	})
}
