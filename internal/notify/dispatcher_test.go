package notify_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/notify"
	"github.com/stockforumx/reputation-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type captureChannel struct {
	emits      []captured
	broadcasts []captured
}

type captured struct {
	userID  string
	event   string
	payload any
}

func (c *captureChannel) EmitToUser(userID, event string, payload any) {
	c.emits = append(c.emits, captured{userID: userID, event: event, payload: payload})
}

func (c *captureChannel) Broadcast(event string, payload any) {
	c.broadcasts = append(c.broadcasts, captured{event: event, payload: payload})
}

func evaluatedPricePrediction() *model.Prediction {
	return &model.Prediction{
		ID:             "p1",
		UserID:         "u1",
		StockID:        "s1",
		Kind:           model.KindPrice,
		InitialPrice:   d(90),
		TargetPrice:    d(100),
		ActualPrice:    d(104),
		IsEvaluated:    true,
		IsCorrect:      true,
		PrecisionLevel: model.PrecisionNormal,
	}
}

func TestPredictionEvaluated_EmitsAndPersists(t *testing.T) {
	ms := store.NewMemoryStore()
	ch := &captureChannel{}
	dispatcher := notify.NewDispatcher(ms, ch)

	dispatcher.PredictionEvaluated(context.Background(), evaluatedPricePrediction(), "AAPL")

	if len(ch.emits) != 1 {
		t.Fatalf("expected 1 emit, got %d", len(ch.emits))
	}
	e := ch.emits[0]
	if e.userID != "u1" {
		t.Errorf("event sent to %q, want u1", e.userID)
	}
	if e.event != notify.EventPredictionResult {
		t.Errorf("event = %q, want %q", e.event, notify.EventPredictionResult)
	}

	result := e.payload.(notify.PredictionResult)
	if result.Symbol != "AAPL" || result.PrecisionLevel != model.PrecisionNormal {
		t.Errorf("unexpected payload: %+v", result)
	}

	notifications := ms.Notifications()
	if len(notifications) != 1 {
		t.Fatalf("expected 1 persisted notification, got %d", len(notifications))
	}
	n := notifications[0]
	if n.Type != notify.EventPredictionResult || n.Link != "/predictions/p1" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if !strings.Contains(n.Message, "AAPL") {
		t.Errorf("message should name the symbol, got %q", n.Message)
	}
	if n.ID == "" || n.CreatedAt.IsZero() {
		t.Errorf("notification missing id or timestamp: %+v", n)
	}
}

func TestPredictionEvaluated_DirectionMessage(t *testing.T) {
	ms := store.NewMemoryStore()
	dispatcher := notify.NewDispatcher(ms, &captureChannel{})

	p := &model.Prediction{
		ID:           "p2",
		UserID:       "u1",
		StockID:      "s1",
		Kind:         model.KindDirection,
		Direction:    model.DirectionDown,
		InitialPrice: d(50),
		ActualPrice:  d(45),
		IsEvaluated:  true,
		IsCorrect:    true,
	}
	dispatcher.PredictionEvaluated(context.Background(), p, "TSLA")

	notifications := ms.Notifications()
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	msg := notifications[0].Message
	if !strings.Contains(msg, "down") || !strings.Contains(msg, "TSLA") {
		t.Errorf("direction message should name direction and symbol, got %q", msg)
	}
}

func TestPredictionEvaluated_NilChannel(t *testing.T) {
	ms := store.NewMemoryStore()
	dispatcher := notify.NewDispatcher(ms, nil)

	// Must not panic; persisted record still written.
	dispatcher.PredictionEvaluated(context.Background(), evaluatedPricePrediction(), "AAPL")
	if len(ms.Notifications()) != 1 {
		t.Error("notification should persist without a realtime channel")
	}
}

func TestReputationChanged_Broadcasts(t *testing.T) {
	ch := &captureChannel{}
	dispatcher := notify.NewDispatcher(store.NewMemoryStore(), ch)

	dispatcher.ReputationChanged("u1", 42.5)

	if len(ch.broadcasts) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(ch.broadcasts))
	}
	b := ch.broadcasts[0]
	if b.event != notify.EventReputationUpdate {
		t.Errorf("event = %q, want %q", b.event, notify.EventReputationUpdate)
	}
	update := b.payload.(notify.ReputationUpdate)
	if update.UserID != "u1" || update.Reputation != 42.5 {
		t.Errorf("unexpected payload: %+v", update)
	}
}
