package core

import (
	"errors"
	"fmt"

	"eicrcore/pkg/domain"
)

type (
	TestResult  = domain.TestResult
	Result      = domain.Result
	Violation   = domain.Violation
	Severity    = domain.Severity
	EntityType  = domain.EntityType
	Rule        = domain.Rule
	RuleView    = domain.RuleView
	RulesEngine = domain.RulesEngine
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

var (
	// ErrServiceClosed is returned once Close has been called.
	ErrServiceClosed = errors.New("service closed")
	// ErrArchiveDisabled is returned by export when no archive is configured.
	ErrArchiveDisabled = errors.New("archive not configured")
	// ErrUnknownBulkOp is returned for bulk requests naming no known operation.
	ErrUnknownBulkOp = errors.New("unknown bulk operation")
)

// ErrNotFound is returned when a referenced entity does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
