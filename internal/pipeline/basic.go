package pipeline

import (
	"context"

	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/recommend"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/simulation"
	"github.com/spigell/ats-scorer/internal/utils"
	"github.com/spigell/ats-scorer/internal/verify"
	"go.uber.org/zap"
)

const (
	basicStage      = "basic"
	basicConfidence = 50
	basicSuffix     = "-basic"
)

// basic builds the degraded result from local computations only: parsing
// completeness and keyword coverage. It never fails; a panic inside yields
// an empty score.
func (e *Engine) basic(ctx context.Context, r *run, req Request, cause error) *Result {
	var result *Result
	err := r.stage(ctx, basicStage, func(context.Context, *StageReport) error {
		result = basicResult(req)
		return nil
	})
	if err != nil {
		r.logger.Error("basic analysis failed", zap.Error(err))
		result = basicResult(Request{})
	}

	e.metrics.Fallback("pipeline", basicStage)
	result.Metadata.Version = e.version + basicSuffix
	result.Metadata.Error = cause.Error()
	return result
}

func basicResult(req Request) *Result {
	c := req.CV
	if c == nil {
		c = &cv.ParsedCV{}
	}

	kw := keywords.LocalAnalysis(keywords.Request{
		CV:             c,
		TargetKeywords: req.TargetKeywords,
		TargetRole:     req.TargetRole,
		JobDescription: req.JobDescription,
		Industry:       req.Industry,
	})

	parsing := scoring.ParsingScore(c)
	coverage := kw.Coverage()
	overall := utils.Percent(0.6*parsing + 0.4*coverage*100)

	benchmark := competitor.BenchmarkFor(req.Industry)
	score := scoring.AdvancedATSScore{
		Overall: overall,
		Breakdown: scoring.Breakdown{
			Parsing:  utils.Percent(parsing),
			Keywords: utils.Percent(coverage * 100),
		},
		Recommendations:    []string{},
		CompetitorAnalysis: competitor.Analysis{SimilarProfiles: benchmark.CohortSize, SimilarRoles: benchmark.SimilarRoles},
		SemanticKeywords:   scoring.SemanticKeywords(kw),
		IndustryBenchmark:  benchmark.AverageScore,
		SimulationResults:  []simulation.Result{},
		Confidence:         basicConfidence,
	}

	return &Result{
		Overall:         overall,
		AdjustedOverall: overall,
		Breakdown:       score.Breakdown,
		Recommendations: recommend.Fallback(),
		Keywords:        summarize(kw),
		Verification:    verify.Fallback(),
		Score:           score,
		Metadata: Metadata{
			Confidence: basicConfidence,
			Mode:       ModeBasic,
			Degraded:   true,
		},
	}
}
