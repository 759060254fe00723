package probability

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"

	"MarketSense/internal/domain/models"
	"MarketSense/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type memModelStore struct {
	mu       sync.Mutex
	versions []string
	payloads map[string][]byte
}

func newMemModelStore() *memModelStore {
	return &memModelStore{payloads: make(map[string][]byte)}
}

func (s *memModelStore) Save(_ context.Context, version string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, version)
	s.payloads[version] = append([]byte(nil), payload...)
	return nil
}

func (s *memModelStore) Load(_ context.Context, version string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[version], nil
}

func (s *memModelStore) LoadLatest(_ context.Context) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.versions) == 0 {
		return "", nil, nil
	}
	v := s.versions[len(s.versions)-1]
	return v, s.payloads[v], nil
}

func TestPredictRuleBasedWithoutModel(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	snap := models.NeutralSnapshot()
	snap.Bias.BullishSignals = 3
	snap.Bias.BearishSignals = 2

	est := e.Predict(context.Background(), snap, models.DirectionCall)

	if est.ModelVersion != models.RuleBasedModelVersion {
		t.Errorf("ModelVersion = %q, want %q", est.ModelVersion, models.RuleBasedModelVersion)
	}
	if est.Confidence != 50 {
		t.Errorf("Confidence = %v, want 50", est.Confidence)
	}
	// 3 of 5 aligned at average strength 0.5.
	if want := 60 * 0.75; math.Abs(est.Probability-want) > 1e-9 {
		t.Errorf("Probability = %v, want %v", est.Probability, want)
	}
	if est.RiskLevel != models.RiskHigh {
		t.Errorf("RiskLevel = %v, want %v", est.RiskLevel, models.RiskHigh)
	}
}

func TestRuleBasedClampBounds(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	high := models.NeutralSnapshot()
	high.RSI.Strength = 1
	high.EMA.Strength = 1
	high.Bias.BullishSignals = 5

	if est := e.Predict(context.Background(), high, models.DirectionCall); est.Probability != 80 {
		t.Errorf("Probability = %v, want clamped to 80", est.Probability)
	}

	low := models.NeutralSnapshot()
	low.Bias.BullishSignals = 0
	low.Bias.BearishSignals = 0

	if est := e.Predict(context.Background(), low, models.DirectionCall); est.Probability != 20 {
		t.Errorf("Probability = %v, want clamped to 20", est.Probability)
	}
}

func TestRuleBasedUsesDirectionalSignals(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	snap := models.NeutralSnapshot()
	snap.Bias.BullishSignals = 1
	snap.Bias.BearishSignals = 4

	call := e.Predict(context.Background(), snap, models.DirectionCall)
	put := e.Predict(context.Background(), snap, models.DirectionPut)
	if call.Probability >= put.Probability {
		t.Fatalf("call %v should score below put %v for a bearish tally",
			call.Probability, put.Probability)
	}
}

func TestRecommendThresholds(t *testing.T) {
	snap := models.NeutralSnapshot()
	snap.Bias.BullishSignals = 3
	snap.Bias.BearishSignals = 2

	cases := []struct {
		probability float64
		want        models.TradeRecommendation
	}{
		{0.75, models.RecommendEnter},
		{0.70, models.RecommendEnter},
		{0.69, models.RecommendWait},
		{0.55, models.RecommendWait},
		{0.54, models.RecommendAvoid},
		{0.20, models.RecommendAvoid},
	}
	for _, tc := range cases {
		if got := recommend(tc.probability, snap); got != tc.want {
			t.Errorf("recommend(%v) = %v, want %v", tc.probability, got, tc.want)
		}
	}
}

func TestRecommendAvoidsTrappySnapshots(t *testing.T) {
	aligned := models.NeutralSnapshot()
	aligned.Bias.BullishSignals = 5
	if got := recommend(0.9, aligned); got != models.RecommendAvoid {
		t.Errorf("fully aligned snapshot: recommend = %v, want %v", got, models.RecommendAvoid)
	}

	stretched := models.NeutralSnapshot()
	stretched.Bias.BullishSignals = 3
	stretched.Bias.BearishSignals = 2
	stretched.Bollinger.Percent = 0.8
	if got := recommend(0.9, stretched); got != models.RecommendAvoid {
		t.Errorf("stretched snapshot: recommend = %v, want %v", got, models.RecommendAvoid)
	}
}

func TestRiskLevelEscalatesOnWideBands(t *testing.T) {
	narrow := models.NeutralSnapshot()
	wide := models.NeutralSnapshot()
	wide.Bollinger.Width = highWidthThreshold + 0.01

	cases := []struct {
		probability float64
		snap        models.IndicatorSnapshot
		want        models.RiskLevel
	}{
		{0.8, narrow, models.RiskLow},
		{0.6, narrow, models.RiskMedium},
		{0.4, narrow, models.RiskHigh},
		{0.8, wide, models.RiskMedium},
		{0.6, wide, models.RiskHigh},
		{0.4, wide, models.RiskHigh},
	}
	for _, tc := range cases {
		if got := riskLevel(tc.probability, tc.snap); got != tc.want {
			t.Errorf("riskLevel(%v, width %v) = %v, want %v",
				tc.probability, tc.snap.Bollinger.Width, got, tc.want)
		}
	}
}

func winSnapshot() models.IndicatorSnapshot {
	snap := models.NeutralSnapshot()
	snap.RSI = models.RSIState{Value: 65, Signal: models.SignalBullish, Strength: 0.3}
	snap.MACD = models.MACDState{Histogram: 0.4, Trend: models.SignalBullish, Strength: 0.6}
	snap.Bias = models.OverallBias{Direction: models.BiasBullish, Confidence: 0.9, BullishSignals: 4, BearishSignals: 1, TotalSignals: 5}
	return snap
}

func lossSnapshot() models.IndicatorSnapshot {
	snap := models.NeutralSnapshot()
	snap.RSI = models.RSIState{Value: 35, Signal: models.SignalBearish, Strength: 0.3}
	snap.MACD = models.MACDState{Histogram: -0.4, Trend: models.SignalBearish, Strength: 0.6}
	snap.Bias = models.OverallBias{Direction: models.BiasBearish, Confidence: 0.2, BullishSignals: 1, BearishSignals: 4, TotalSignals: 5}
	return snap
}

func labeledTrades(wins, losses int) []*models.TradeRecord {
	out := make([]*models.TradeRecord, 0, wins+losses)
	for i := 0; i < wins; i++ {
		out = append(out, &models.TradeRecord{Outcome: models.OutcomeWin, Snapshot: winSnapshot()})
	}
	for i := 0; i < losses; i++ {
		out = append(out, &models.TradeRecord{Outcome: models.OutcomeLoss, Snapshot: lossSnapshot()})
	}
	return out
}

func TestTrainRejectsThinSamples(t *testing.T) {
	e := NewEngine(newMemModelStore(), testLogger(t))

	res, err := e.Train(context.Background(), labeledTrades(30, 20))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Success {
		t.Fatal("training succeeded below the sample floor")
	}
	if res.CurrentSamples != 50 {
		t.Errorf("CurrentSamples = %d, want 50", res.CurrentSamples)
	}
	if !strings.Contains(res.Message, "insufficient") {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestTrainSkipsUnlabeledTrades(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	trades := labeledTrades(30, 20)
	for i := 0; i < 60; i++ {
		trades = append(trades, &models.TradeRecord{Snapshot: winSnapshot()})
	}
	res, err := e.Train(context.Background(), trades)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Success || res.CurrentSamples != 50 {
		t.Fatalf("unlabeled trades counted: %+v", res)
	}
}

func TestTrainAndPredict(t *testing.T) {
	store := newMemModelStore()
	e := NewEngine(store, testLogger(t))

	res, err := e.Train(context.Background(), labeledTrades(60, 60))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !res.Success {
		t.Fatalf("training failed: %+v", res)
	}
	if res.Samples != 120 {
		t.Errorf("Samples = %d, want 120", res.Samples)
	}
	if res.Accuracy < 0.9 {
		t.Errorf("Accuracy = %v, want near 1 on separable data", res.Accuracy)
	}
	if res.ModelVersion == "" {
		t.Error("missing model version")
	}
	if len(store.versions) != 1 {
		t.Fatalf("persisted %d bundles, want 1", len(store.versions))
	}

	est := e.Predict(context.Background(), winSnapshot(), models.DirectionCall)
	if est.ModelVersion != res.ModelVersion {
		t.Errorf("ModelVersion = %q, want %q", est.ModelVersion, res.ModelVersion)
	}
	if est.Probability <= 50 {
		t.Errorf("Probability = %v, want above 50 for a win-shaped snapshot", est.Probability)
	}
	if est.TrainingSamples != 120 {
		t.Errorf("TrainingSamples = %d, want 120", est.TrainingSamples)
	}
}

func TestPredictDiscountsCounterTrend(t *testing.T) {
	e := NewEngine(nil, testLogger(t))
	if _, err := e.Train(context.Background(), labeledTrades(60, 60)); err != nil {
		t.Fatalf("Train: %v", err)
	}

	snap := winSnapshot()
	call := e.Predict(context.Background(), snap, models.DirectionCall)
	put := e.Predict(context.Background(), snap, models.DirectionPut)

	if want := call.Probability * counterTrendFactor; math.Abs(put.Probability-want) > 1e-9 {
		t.Fatalf("counter-trend Probability = %v, want %v", put.Probability, want)
	}
}

func TestIgnoresUndersizedStoredModel(t *testing.T) {
	store := newMemModelStore()
	bad := ModelBundle{
		Version:      "bad",
		FeatureNames: []string{"a", "b"},
		Scaler:       StandardScaler{Mean: []float64{0, 0}, Std: []float64{1, 1}},
		Model:        LogisticRegression{Weights: []float64{0.1, 0.2}},
	}
	payload, err := json.Marshal(&bad)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Save(context.Background(), "bad", payload); err != nil {
		t.Fatalf("save: %v", err)
	}

	e := NewEngine(store, testLogger(t))
	if st := e.Status(); st.Success {
		t.Fatal("undersized bundle loaded as a trained model")
	}

	est := e.Predict(context.Background(), winSnapshot(), models.DirectionCall)
	if est.ModelVersion != models.RuleBasedModelVersion {
		t.Fatalf("ModelVersion = %q, want %q", est.ModelVersion, models.RuleBasedModelVersion)
	}
}

func TestPredictRecoversFromMalformedModel(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	// a bundle whose weights disagree with its own feature list, forced past
	// the load-time check
	e.bundle = &ModelBundle{
		Version:      "broken",
		FeatureNames: append([]string(nil), FeatureNames...),
		Scaler:       StandardScaler{Mean: []float64{0, 0}, Std: []float64{1, 1}},
		Model:        LogisticRegression{Weights: []float64{0.1, 0.2}},
	}
	e.trained = true

	est := e.Predict(context.Background(), winSnapshot(), models.DirectionCall)
	if est.ModelVersion != models.RuleBasedModelVersion {
		t.Fatalf("ModelVersion = %q, want rule based fallback", est.ModelVersion)
	}
	if est.Probability < 20 || est.Probability > 80 {
		t.Errorf("Probability = %v, outside rule based bounds", est.Probability)
	}
}

func TestTrainReportsFeatureImportances(t *testing.T) {
	e := NewEngine(nil, testLogger(t))

	res, err := e.Train(context.Background(), labeledTrades(60, 60))
	if err != nil || !res.Success {
		t.Fatalf("Train: %v %+v", err, res)
	}
	if len(res.FeatureImportances) != len(FeatureNames) {
		t.Fatalf("FeatureImportances has %d entries, want %d", len(res.FeatureImportances), len(FeatureNames))
	}
	for i, name := range FeatureNames {
		want := math.Abs(e.bundle.Model.Weights[i])
		if got := res.FeatureImportances[name]; got != want {
			t.Errorf("importance[%s] = %v, want %v", name, got, want)
		}
	}

	st := e.Status()
	if len(st.FeatureImportances) != len(FeatureNames) {
		t.Errorf("Status importances has %d entries, want %d", len(st.FeatureImportances), len(FeatureNames))
	}
}

func TestStatusAndReload(t *testing.T) {
	store := newMemModelStore()
	e := NewEngine(store, testLogger(t))

	if st := e.Status(); st.Success {
		t.Fatal("fresh engine reports a trained model")
	}

	res, err := e.Train(context.Background(), labeledTrades(60, 60))
	if err != nil || !res.Success {
		t.Fatalf("Train: %v %+v", err, res)
	}

	st := e.Status()
	if !st.Success || st.ModelVersion != res.ModelVersion {
		t.Fatalf("Status = %+v, want trained model %q", st, res.ModelVersion)
	}

	// A new engine over the same store picks up the persisted bundle.
	reloaded := NewEngine(store, testLogger(t))
	st = reloaded.Status()
	if !st.Success || st.ModelVersion != res.ModelVersion {
		t.Fatalf("reloaded Status = %+v, want model %q", st, res.ModelVersion)
	}
}
