package domain

import "context"

// RuleView provides read-only access to a form's circuits for rule evaluation.
type RuleView interface {
	FormID() string
	ListTestResults() []TestResult
	FindTestResult(id string) (TestResult, bool)
}

// Rule defines a compliance check over a form's schedule of test results.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in registration order.
func (e *RulesEngine) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// CollectionView adapts an in-memory collection to RuleView.
type CollectionView struct {
	Form    string
	Records []TestResult
}

// FormID implements RuleView.
func (v CollectionView) FormID() string { return v.Form }

// ListTestResults implements RuleView.
func (v CollectionView) ListTestResults() []TestResult { return CloneCollection(v.Records) }

// FindTestResult implements RuleView.
func (v CollectionView) FindTestResult(id string) (TestResult, bool) {
	if i := IndexByID(v.Records, id); i >= 0 {
		return v.Records[i], true
	}
	return TestResult{}, false
}
