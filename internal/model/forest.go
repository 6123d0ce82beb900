// Package model trains and serves the supervised risk classifier: a
// bagged ensemble of decision trees fit on normalized feature vectors
// with the rule-derived category as ground truth. The ensemble is a
// learned approximation of the deterministic scorer, kept separate from
// it so the rule-based ground truth stays independently verifiable. Some
// residual error is expected and reported honestly: accuracy is measured
// on a holdout split, never on the training set.
//
// Training is reproducible: the same samples, config, and seed always
// produce the same fitted trees, importances, and accuracy estimate. A
// TrainedModel is immutable after Train returns; retraining yields a new
// value and never touches models callers already hold.
package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/couchcryptid/disaster-risk-engine/internal/domain"
)

// Config holds the ensemble hyperparameters and training controls.
type Config struct {
	Trees           int
	MaxDepth        int
	MinLeaf         int
	HoldoutFraction float64
	Seed            int64
	MinSamples      int
}

// DefaultConfig mirrors the upstream dashboard's forest settings where
// they translate (100 estimators, 80/20 split, fixed seed 42).
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MaxDepth:        10,
		MinLeaf:         2,
		HoldoutFraction: 0.2,
		Seed:            42,
		MinSamples:      40,
	}
}

// Sample is one labeled training record: a normalized feature vector and
// the rule-derived category acting as ground truth.
type Sample struct {
	Features map[string]float64
	Label    domain.Category
}

// Prediction is the classifier's answer for one feature vector.
type Prediction struct {
	Category      domain.Category             `json:"category"`
	Confidence    float64                     `json:"confidence"`
	Probabilities map[domain.Category]float64 `json:"per_class_probability"`
}

// Importance is one entry of the descending feature importance ranking.
type Importance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// TrainedModel is an immutable fitted classifier snapshot. All accessors
// return copies; nothing mutates a model after Train returns.
type TrainedModel struct {
	featureOrder   []string
	trees          []*treeNode
	importances    map[string]float64
	accuracy       float64
	classAccuracy  map[domain.Category]float64
	trainedSamples int
	holdoutSamples int
	seed           int64
}

// Train fits a new ensemble on the labeled samples. It returns an
// InsufficientDataError below cfg.MinSamples and a FeatureMismatchError
// if any sample lacks a feature of the first sample's vector, whose
// sorted keys fix the model's feature order.
func Train(samples []Sample, cfg Config) (*TrainedModel, error) {
	if len(samples) < cfg.MinSamples {
		return nil, &InsufficientDataError{Got: len(samples), Min: cfg.MinSamples}
	}

	featureOrder := make([]string, 0, len(samples[0].Features))
	for name := range samples[0].Features {
		featureOrder = append(featureOrder, name)
	}
	sort.Strings(featureOrder)

	rows := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		row, err := rowFor(s.Features, featureOrder)
		if err != nil {
			return nil, err
		}
		rows[i] = row
		labels[i] = int(s.Label)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Holdout split first, so the accuracy estimate never sees training rows.
	perm := rng.Perm(len(samples))
	holdoutN := int(math.Round(float64(len(samples)) * cfg.HoldoutFraction))
	if holdoutN < 1 {
		holdoutN = 1
	}
	if holdoutN > len(samples)/2 {
		holdoutN = len(samples) / 2
	}
	holdout := perm[:holdoutN]
	train := perm[holdoutN:]

	numClasses := len(domain.Categories)
	numFeatures := len(featureOrder)
	subFeatures := int(math.Sqrt(float64(numFeatures)) + 0.5)
	if subFeatures < 1 {
		subFeatures = 1
	}

	m := &TrainedModel{
		featureOrder:   featureOrder,
		trees:          make([]*treeNode, 0, cfg.Trees),
		trainedSamples: len(train),
		holdoutSamples: holdoutN,
		seed:           cfg.Seed,
	}

	rawImportances := make([]float64, numFeatures)
	for t := 0; t < cfg.Trees; t++ {
		builder := &treeBuilder{
			rows:        rows,
			labels:      labels,
			numClasses:  numClasses,
			maxDepth:    cfg.MaxDepth,
			minLeaf:     cfg.MinLeaf,
			subFeatures: subFeatures,
			rng:         rand.New(rand.NewSource(rng.Int63())),
			importances: make([]float64, numFeatures),
		}

		bootstrap := make([]int, len(train))
		for i := range bootstrap {
			bootstrap[i] = train[builder.rng.Intn(len(train))]
		}

		m.trees = append(m.trees, builder.build(bootstrap, 0))
		for f, imp := range builder.importances {
			rawImportances[f] += imp
		}
	}

	m.importances = normalizeImportances(featureOrder, rawImportances)
	m.accuracy, m.classAccuracy = m.evaluate(rows, labels, holdout)
	return m, nil
}

// Predict classifies one feature vector against this snapshot. A missing
// required feature yields a FeatureMismatchError and no prediction;
// unknown extra features are ignored.
func (m *TrainedModel) Predict(features map[string]float64) (Prediction, error) {
	row, err := rowFor(features, m.featureOrder)
	if err != nil {
		return Prediction{}, err
	}

	avg := m.vote(row)
	best := 0
	for class, p := range avg {
		if p > avg[best] {
			best = class
		}
	}

	probs := make(map[domain.Category]float64, len(avg))
	for class, p := range avg {
		probs[domain.Category(class)] = p
	}
	return Prediction{
		Category:      domain.Category(best),
		Confidence:    avg[best],
		Probabilities: probs,
	}, nil
}

// FeatureOrder returns the feature presentation order fixed at training
// time.
func (m *TrainedModel) FeatureOrder() []string {
	return append([]string(nil), m.featureOrder...)
}

// Accuracy is the holdout-set accuracy estimate, not training accuracy.
func (m *TrainedModel) Accuracy() float64 { return m.accuracy }

// ClassAccuracy breaks holdout accuracy down per category. Categories
// absent from the holdout split are omitted.
func (m *TrainedModel) ClassAccuracy() map[domain.Category]float64 {
	out := make(map[domain.Category]float64, len(m.classAccuracy))
	for c, a := range m.classAccuracy {
		out[c] = a
	}
	return out
}

// FeatureImportances returns the importance ranking, descending by
// weight with name as tiebreak. Weights sum to 1.
func (m *TrainedModel) FeatureImportances() []Importance {
	out := make([]Importance, 0, len(m.importances))
	for _, name := range m.featureOrder {
		out = append(out, Importance{Feature: name, Weight: m.importances[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// TrainedSamples reports how many samples the ensemble was fit on, after
// the holdout split.
func (m *TrainedModel) TrainedSamples() int { return m.trainedSamples }

// HoldoutSamples reports how many samples backed the accuracy estimate.
func (m *TrainedModel) HoldoutSamples() int { return m.holdoutSamples }

// Trees reports the ensemble size.
func (m *TrainedModel) Trees() int { return len(m.trees) }

// Seed reports the seed the ensemble was fit with, for reproducibility
// display.
func (m *TrainedModel) Seed() int64 { return m.seed }

func (m *TrainedModel) vote(row []float64) []float64 {
	avg := make([]float64, len(domain.Categories))
	for _, t := range m.trees {
		for class, p := range t.predictRow(row) {
			avg[class] += p
		}
	}
	for class := range avg {
		avg[class] /= float64(len(m.trees))
	}
	return avg
}

func (m *TrainedModel) evaluate(rows [][]float64, labels []int, holdout []int) (float64, map[domain.Category]float64) {
	correct := 0
	perClassTotal := make([]int, len(domain.Categories))
	perClassCorrect := make([]int, len(domain.Categories))

	for _, i := range holdout {
		avg := m.vote(rows[i])
		best := 0
		for class, p := range avg {
			if p > avg[best] {
				best = class
			}
		}
		perClassTotal[labels[i]]++
		if best == labels[i] {
			correct++
			perClassCorrect[labels[i]]++
		}
	}

	classAcc := make(map[domain.Category]float64)
	for class, total := range perClassTotal {
		if total > 0 {
			classAcc[domain.Category(class)] = float64(perClassCorrect[class]) / float64(total)
		}
	}
	return float64(correct) / float64(len(holdout)), classAcc
}

// rowFor projects a feature map onto the fixed feature order, erroring on
// the first missing feature.
func rowFor(features map[string]float64, order []string) ([]float64, error) {
	row := make([]float64, len(order))
	for i, name := range order {
		v, ok := features[name]
		if !ok {
			return nil, &FeatureMismatchError{Feature: name}
		}
		row[i] = v
	}
	return row, nil
}

// normalizeImportances rescales accumulated impurity decreases to sum to
// 1. A forest that never split (pure training data) falls back to a
// uniform ranking so the sum-to-1 invariant holds regardless.
func normalizeImportances(order []string, raw []float64) map[string]float64 {
	total := 0.0
	for _, v := range raw {
		total += v
	}

	out := make(map[string]float64, len(order))
	for i, name := range order {
		if total > 0 {
			out[name] = raw[i] / total
		} else {
			out[name] = 1 / float64(len(order))
		}
	}
	return out
}
