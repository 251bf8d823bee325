package alert

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"risk_guard/internal/checks"
	"risk_guard/internal/core"
	"risk_guard/internal/market"
)

func vetoVerdict(kind checks.FailureKind, delta, safe int64) checks.Verdict {
	result := checks.Result{Kind: kind, Info: "veto"}
	if delta > 0 {
		result.Delta = decimal.NewFromInt(delta)
		result.SafeDistance = decimal.NewFromInt(safe)
	}
	return checks.Verdict{
		EvaluationID: "eval-1",
		OrderID:      "order-1",
		Outcomes:     []checks.CheckOutcome{{Check: "some_check", Result: result}},
	}
}

func vetoOrder() core.Order {
	return core.Order{
		ID:     "order-1",
		Symbol: market.Symbol{Name: "BTCUSDT", QuoteCoin: "USDT"},
		Side:   market.SideShort,
		Kind:   core.OrderKindBuy,
	}
}

func TestVetoNotifierIgnoresPassingVerdicts(t *testing.T) {
	am := NewAlertManager(&mockLogger{})
	ch := &mockAlertChannel{name: "mock"}
	am.AddChannel(ch)

	n := NewVetoNotifier(am)
	n.NotifyVerdict(context.Background(), vetoOrder(), checks.Verdict{EvaluationID: "eval-1", Passed: true})

	time.Sleep(50 * time.Millisecond)
	if len(ch.getSent()) != 0 {
		t.Error("Passing verdict must not produce an alert")
	}
}

func TestVetoNotifierSendsLiquidationAlertsAsCritical(t *testing.T) {
	am := NewAlertManager(&mockLogger{})
	ch := &mockAlertChannel{name: "mock"}
	am.AddChannel(ch)

	n := NewVetoNotifier(am)
	n.NotifyVerdict(context.Background(), vetoOrder(),
		vetoVerdict(checks.FailureFurtherPositionLiquidationAfterBuyIsTooClose, 4999, 5000))

	time.Sleep(100 * time.Millisecond)
	sent := ch.getSent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(sent))
	}

	payload := sent[0]
	if payload.Level != Critical {
		t.Errorf("Expected CRITICAL level for a liquidation veto, got %s", payload.Level)
	}
	if payload.Fields["evaluation_id"] != "eval-1" {
		t.Errorf("Expected evaluation id in fields, got %v", payload.Fields)
	}
	if payload.Fields["delta"] != "4999" || payload.Fields["safe_distance"] != "5000" {
		t.Errorf("Expected distance payload in fields, got %v", payload.Fields)
	}
}

func TestVetoNotifierNonLiquidationIsWarning(t *testing.T) {
	am := NewAlertManager(&mockLogger{})
	ch := &mockAlertChannel{name: "mock"}
	am.AddChannel(ch)

	n := NewVetoNotifier(am)
	n.NotifyVerdict(context.Background(), vetoOrder(), vetoVerdict(checks.FailureAveragePriceTooFar, 0, 0))

	time.Sleep(100 * time.Millisecond)
	sent := ch.getSent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(sent))
	}
	if sent[0].Level != Warning {
		t.Errorf("Expected WARNING level, got %s", sent[0].Level)
	}
	if _, ok := sent[0].Fields["delta"]; ok {
		t.Error("Non-liquidation veto must not carry a distance payload")
	}
}
