package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn, EntityID: "a"}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, EntityID: "b"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	if got := result.ForRecord("b"); len(got) != 1 || got[0].Rule != "block" {
		t.Fatalf("unexpected per-record violations %+v", got)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	view := CollectionView{Form: "f1", Records: []TestResult{NewTestResult("1")}}
	res, err := engine.Evaluate(context.Background(), view)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
	if names := engine.Rules(); len(names) != 1 || names[0] != "warn" {
		t.Fatalf("unexpected rule names %v", names)
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), CollectionView{}); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

func TestRulesEngineStopsOnCancelledContext(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Evaluate(ctx, CollectionView{}); err == nil {
		t.Fatalf("expected context error")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(_ context.Context, view RuleView) (Result, error) {
	var res Result
	for _, rec := range view.ListTestResults() {
		res.Violations = append(res.Violations, Violation{Rule: r.name, Severity: SeverityWarn, EntityID: rec.ID})
	}
	return res, nil
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}
