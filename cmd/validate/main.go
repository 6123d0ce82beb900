// Command validate performs end-to-end integrity checks over a generated
// fixture: it reassesses every record with the default rule set and
// verifies the engine's invariants — score boundedness, category and
// severity band consistency, rollup totals, and reproducible training.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/records_seed42.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
	"github.com/couchcryptid/disaster-risk-engine/internal/engine"
	"github.com/couchcryptid/disaster-risk-engine/internal/mockdata"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
)

const floatTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixturePath := flag.String("fixture", "", "path to a genmock fixture JSON")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixturePath); code != 0 {
		os.Exit(code)
	}
}

func run(fixturePath string) int {
	fixture, err := mockdata.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	fmt.Println("=== Risk Engine Integrity Validation ===")
	fmt.Println()

	cfg := domain.DefaultEngineConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: default engine config invalid: %v\n", err)
		return 1
	}

	assessments := assessAll(fixture, cfg)
	fmt.Printf("assessed %d records (%d observations, %d events)\n\n",
		len(assessments), len(fixture.Observations), len(fixture.Events))

	phases := []*phase{
		validateScores(assessments, cfg),
		validateRollups(assessments),
		validateTraining(assessments),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("     %s\n", e)
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("all %d phases passed\n", len(phases))
	return 0
}

func assessAll(f mockdata.Fixture, cfg domain.EngineConfig) []domain.RiskAssessment {
	assessments := make([]domain.RiskAssessment, 0, len(f.Observations)+len(f.Events))
	for _, o := range f.Observations {
		a, _ := domain.AssessObservation(o, cfg)
		assessments = append(assessments, a)
	}
	for _, e := range f.Events {
		a, _ := domain.AssessEvent(e, cfg)
		assessments = append(assessments, a)
	}
	return assessments
}

// validateScores checks boundedness, band consistency, and determinism of
// the rule pipeline over every assessed record.
func validateScores(assessments []domain.RiskAssessment, cfg domain.EngineConfig) *phase {
	p := &phase{name: "score and classification invariants"}

	for _, a := range assessments {
		if a.Score < 0 || a.Score > 100 {
			p.errorf("%s: score %v out of [0,100]", a.SourceID, a.Score)
		}
		if got := domain.Classify(a.Score, cfg); got != a.Category {
			p.errorf("%s: category %s inconsistent with score %v (want %s)",
				a.SourceID, a.Category, a.Score, got)
		}
		if a.Category == domain.CategoryDanger && a.Severity < domain.SeverityHigh {
			p.errorf("%s: Danger record alerted below High (%s)", a.SourceID, a.Severity)
		}
		if score := domain.Score(a.Features, cfg); math.Abs(score-a.Score) > floatTolerance {
			p.errorf("%s: rescoring features gave %v, assessment has %v",
				a.SourceID, score, a.Score)
		}
		for name, v := range a.Features {
			if v < 0 || v > 1 {
				p.errorf("%s: feature %s = %v out of [0,1]", a.SourceID, name, v)
			}
		}
	}
	return p
}

// validateRollups checks that region rollups account for every assessment
// exactly once.
func validateRollups(assessments []domain.RiskAssessment) *phase {
	p := &phase{name: "aggregation consistency"}

	rollups := domain.RollupByRegion(assessments)
	total := 0
	for region, r := range rollups {
		total += r.EventCount
		if r.MeanScore < 0 || r.MeanScore > 100 {
			p.errorf("region %s: mean score %v out of [0,100]", region, r.MeanScore)
		}
	}
	if total != len(assessments) {
		p.errorf("rollup event counts sum to %d, want %d", total, len(assessments))
	}
	return p
}

// validateTraining trains twice with the same seed and verifies the
// reported estimates are reproducible and internally consistent.
func validateTraining(assessments []domain.RiskAssessment) *phase {
	p := &phase{name: "reproducible training"}

	samples := engine.TrainingSet(assessments)
	cfg := model.DefaultConfig()

	first, err := model.Train(samples, cfg)
	if err != nil {
		p.errorf("training failed: %v", err)
		return p
	}
	second, err := model.Train(samples, cfg)
	if err != nil {
		p.errorf("second training failed: %v", err)
		return p
	}

	if first.Accuracy() != second.Accuracy() {
		p.errorf("accuracy not reproducible: %v vs %v", first.Accuracy(), second.Accuracy())
	}

	sum := 0.0
	for _, imp := range first.FeatureImportances() {
		sum += imp.Weight
	}
	if math.Abs(sum-1.0) > 1e-6 {
		p.errorf("feature importances sum to %v, want 1.0", sum)
	}

	if first.Accuracy() < 0.5 {
		p.errorf("holdout accuracy %v suspiciously low for rule-derived labels", first.Accuracy())
	}
	return p
}
