package probability

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"MarketSense/internal/domain/models"
	"MarketSense/internal/domain/repository"
	"MarketSense/pkg/logger"
)

const (
	enterThreshold      = 0.70
	confidenceThreshold = 0.55
	counterTrendFactor  = 0.8
	highWidthThreshold  = 0.03

	trainSeed    = 42
	testFraction = 0.2
	cvFolds      = 5
)

// Engine estimates win probabilities. It serves a trained logistic model
// when one is loaded and falls back to rule-based estimates otherwise.
type Engine struct {
	store repository.ModelStore
	log   *logger.Logger

	mu      sync.RWMutex
	bundle  *ModelBundle
	trained bool
}

// NewEngine builds the engine and loads the latest persisted model if any.
func NewEngine(store repository.ModelStore, log *logger.Logger) *Engine {
	e := &Engine{store: store, log: log}
	if store != nil {
		if version, payload, err := store.LoadLatest(context.Background()); err == nil && len(payload) > 0 {
			var bundle ModelBundle
			if err := json.Unmarshal(payload, &bundle); err != nil {
				log.Warn("stored probability model is unreadable", logger.Error(err))
			} else if err := bundle.Validate(); err != nil {
				log.Warn("stored probability model is invalid, serving rule based estimates",
					logger.String("version", version), logger.Error(err))
			} else {
				e.bundle = &bundle
				e.trained = true
				log.Info("probability model loaded", logger.String("version", version),
					logger.Int("samples", bundle.Metrics.TrainingSamples))
			}
		}
	}
	return e
}

// Predict estimates the win probability for a snapshot. direction, when set,
// discounts estimates that run against the aggregate bias.
func (e *Engine) Predict(_ context.Context, snap models.IndicatorSnapshot, direction models.TradeDirection) (est models.ProbabilityEstimate) {
	e.mu.RLock()
	bundle := e.bundle
	trained := e.trained
	e.mu.RUnlock()

	if !trained || bundle == nil {
		return ruleBasedEstimate(snap, direction)
	}

	// a malformed bundle must degrade to the rule based path, not crash the
	// caller's goroutine
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("model inference failed, serving rule based estimate",
				logger.String("version", bundle.Version), logger.Any("panic", r))
			est = ruleBasedEstimate(snap, direction)
		}
	}()

	scaled := bundle.Scaler.Transform(FeatureVector(snap))
	winProb := bundle.Model.PredictProba(scaled)

	if (direction == models.DirectionCall && snap.Bias.Direction == models.BiasBearish) ||
		(direction == models.DirectionPut && snap.Bias.Direction == models.BiasBullish) {
		winProb *= counterTrendFactor
	}

	return models.ProbabilityEstimate{
		Probability:     winProb * 100,
		Confidence:      bundle.Metrics.Accuracy * 100,
		Recommendation:  recommend(winProb, snap),
		RiskLevel:       riskLevel(winProb, snap),
		ModelVersion:    bundle.Version,
		TrainingSamples: bundle.Metrics.TrainingSamples,
	}
}

func ruleBasedEstimate(snap models.IndicatorSnapshot, direction models.TradeDirection) models.ProbabilityEstimate {
	bias := snap.Bias
	total := bias.TotalSignals
	if total == 0 {
		total = 5
	}

	var directional int
	switch direction {
	case models.DirectionCall:
		directional = bias.BullishSignals
	case models.DirectionPut:
		directional = bias.BearishSignals
	default:
		directional = bias.BullishSignals
		if bias.BearishSignals > directional {
			directional = bias.BearishSignals
		}
	}
	probability := float64(directional) / float64(total) * 100

	avgStrength := (snap.RSI.Strength + snap.EMA.Strength) / 2
	probability *= 0.5 + avgStrength*0.5
	probability = math.Min(math.Max(probability, 20), 80)

	return models.ProbabilityEstimate{
		Probability:    probability,
		Confidence:     50,
		Recommendation: recommend(probability/100, snap),
		RiskLevel:      riskLevel(probability/100, snap),
		ModelVersion:   models.RuleBasedModelVersion,
	}
}

// recommend applies the entry policy on a 0-1 probability. A trap-looking
// snapshot is an AVOID regardless of probability.
func recommend(probability float64, snap models.IndicatorSnapshot) models.TradeRecommendation {
	if snapshotLooksTrappy(snap) {
		return models.RecommendAvoid
	}
	switch {
	case probability >= enterThreshold:
		return models.RecommendEnter
	case probability >= confidenceThreshold:
		return models.RecommendWait
	default:
		return models.RecommendAvoid
	}
}

func snapshotLooksTrappy(snap models.IndicatorSnapshot) bool {
	total := snap.Bias.TotalSignals
	if total > 0 {
		aligned := snap.Bias.BullishSignals
		if snap.Bias.BearishSignals > aligned {
			aligned = snap.Bias.BearishSignals
		}
		if float64(aligned)/float64(total) >= 0.9 {
			return true
		}
	}
	pct := snap.Bollinger.Percent
	return pct > 0.7 || pct < 0.3
}

func riskLevel(probability float64, snap models.IndicatorSnapshot) models.RiskLevel {
	level := models.RiskHigh
	switch {
	case probability >= 0.7:
		level = models.RiskLow
	case probability >= 0.55:
		level = models.RiskMedium
	}

	// wide bands escalate one tier
	if snap.Bollinger.Width > highWidthThreshold {
		switch level {
		case models.RiskLow:
			level = models.RiskMedium
		case models.RiskMedium:
			level = models.RiskHigh
		}
	}
	return level
}

// Train fits a new model on labeled trades, evaluates it on a held-out split
// plus cross-validation, and persists the bundle. Runs are serialized.
func (e *Engine) Train(ctx context.Context, trades []*models.TradeRecord) (models.TrainResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var X [][]float64
	var y []int
	for _, t := range trades {
		if t == nil || t.Outcome == "" {
			continue
		}
		X = append(X, FeatureVector(t.Snapshot))
		if t.Outcome == models.OutcomeWin {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	if len(X) < models.MinTrainingSamples {
		return models.TrainResult{
			Success:        false,
			Message:        fmt.Sprintf("insufficient training data, need at least %d labeled trades", models.MinTrainingSamples),
			CurrentSamples: len(X),
		}, nil
	}

	var scaler StandardScaler
	if err := scaler.Fit(X); err != nil {
		return models.TrainResult{}, fmt.Errorf("fit scaler: %w", err)
	}
	scaled := scaler.TransformAll(X)

	trainX, trainY, testX, testY := split(scaled, y, testFraction, trainSeed)

	model := NewLogisticRegression()
	if err := model.Fit(trainX, trainY); err != nil {
		return models.TrainResult{}, fmt.Errorf("fit model: %w", err)
	}

	acc, prec, rec, f1 := evaluate(model, testX, testY)
	cvMean, cvStd := crossValidate(scaled, y, cvFolds, trainSeed)

	now := time.Now().UTC()
	bundle := &ModelBundle{
		Version:      now.Format("20060102T150405Z"),
		FeatureNames: FeatureNames,
		Scaler:       scaler,
		Model:        *model,
		Metrics: BundleMetrics{
			Accuracy:        acc,
			Precision:       prec,
			Recall:          rec,
			F1:              f1,
			CVMean:          cvMean,
			CVStd:           cvStd,
			TrainingSamples: len(X),
			TrainedAt:       now.Format(time.RFC3339),
		},
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return models.TrainResult{}, fmt.Errorf("marshal model: %w", err)
	}
	if e.store != nil {
		if err := e.store.Save(ctx, bundle.Version, payload); err != nil {
			return models.TrainResult{}, fmt.Errorf("persist model: %w", err)
		}
	}

	e.bundle = bundle
	e.trained = true
	e.log.Info("probability model trained",
		logger.String("version", bundle.Version),
		logger.Int("samples", len(X)),
		logger.Any("accuracy", acc))

	return models.TrainResult{
		Success:            true,
		ModelVersion:       bundle.Version,
		Samples:            len(X),
		Accuracy:           acc,
		Precision:          prec,
		Recall:             rec,
		F1:                 f1,
		CVAccuracy:         cvMean,
		CVStdDev:           cvStd,
		TrainedAt:          now,
		FeatureImportances: featureImportances(bundle),
	}, nil
}

// featureImportances maps each feature to the absolute weight the trained
// model assigned it.
func featureImportances(b *ModelBundle) map[string]float64 {
	if len(b.Model.Weights) != len(b.FeatureNames) {
		return nil
	}
	out := make(map[string]float64, len(b.FeatureNames))
	for i, name := range b.FeatureNames {
		out[name] = math.Abs(b.Model.Weights[i])
	}
	return out
}

// Status reports the currently loaded model.
func (e *Engine) Status() models.TrainResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.trained || e.bundle == nil {
		return models.TrainResult{
			Success: false,
			Message: "no trained model loaded, predictions are rule based",
		}
	}
	m := e.bundle.Metrics
	out := models.TrainResult{
		Success:            true,
		ModelVersion:       e.bundle.Version,
		Samples:            m.TrainingSamples,
		Accuracy:           m.Accuracy,
		Precision:          m.Precision,
		Recall:             m.Recall,
		F1:                 m.F1,
		CVAccuracy:         m.CVMean,
		CVStdDev:           m.CVStd,
		FeatureImportances: featureImportances(e.bundle),
	}
	if at, err := time.Parse(time.RFC3339, m.TrainedAt); err == nil {
		out.TrainedAt = at
	}
	return out
}

func split(X [][]float64, y []int, testFrac float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	idx := rand.New(rand.NewSource(seed)).Perm(len(X))
	testN := int(float64(len(X)) * testFrac)
	if testN < 1 {
		testN = 1
	}
	for i, j := range idx {
		if i < testN {
			testX = append(testX, X[j])
			testY = append(testY, y[j])
		} else {
			trainX = append(trainX, X[j])
			trainY = append(trainY, y[j])
		}
	}
	return
}

func evaluate(model *LogisticRegression, X [][]float64, y []int) (accuracy, precision, recall, f1 float64) {
	if len(X) == 0 {
		return
	}
	var tp, fp, fn, correct int
	for i, row := range X {
		pred := model.Predict(row)
		if pred == y[i] {
			correct++
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 1:
			fn++
		}
	}
	accuracy = float64(correct) / float64(len(X))
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

func crossValidate(X [][]float64, y []int, folds int, seed int64) (mean, std float64) {
	if folds < 2 || len(X) < folds {
		return
	}
	idx := rand.New(rand.NewSource(seed)).Perm(len(X))

	scores := make([]float64, 0, folds)
	foldSize := len(X) / folds
	for f := 0; f < folds; f++ {
		lo := f * foldSize
		hi := lo + foldSize
		if f == folds-1 {
			hi = len(X)
		}

		var trainX, testX [][]float64
		var trainY, testY []int
		for i, j := range idx {
			if i >= lo && i < hi {
				testX = append(testX, X[j])
				testY = append(testY, y[j])
			} else {
				trainX = append(trainX, X[j])
				trainY = append(trainY, y[j])
			}
		}

		model := NewLogisticRegression()
		if err := model.Fit(trainX, trainY); err != nil {
			continue
		}
		acc, _, _, _ := evaluate(model, testX, testY)
		scores = append(scores, acc)
	}
	if len(scores) == 0 {
		return
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		std += (s - mean) * (s - mean)
	}
	std = math.Sqrt(std / float64(len(scores)))
	return
}
