package expression

import (
	"errors"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/rs/zerolog/log"
)

// NoMatchMessage is displayed when no branch of a conditional formula holds
// and the formula has no default.
const NoMatchMessage = "No condition met and no default value."

// ErrorPrefix starts the display string of every failed formula
const ErrorPrefix = "Error: "

// ErrNoMatch is returned by Resolve when no branch holds and there is no
// default. It is informational, not a failure.
var ErrNoMatch = errors.New(NoMatchMessage)

// Outcome classifies how a formula resolved
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeError   Outcome = "error"
	OutcomeNoMatch Outcome = "no_match"
)

// OutcomeOf maps the error returned by Resolve to an Outcome
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoMatch):
		return OutcomeNoMatch
	default:
		return OutcomeError
	}
}

// Display renders the result of Resolve as the text shown for a formula
func Display(val Value, err error) string {
	switch OutcomeOf(err) {
	case OutcomeOK:
		return Format(val)
	case OutcomeNoMatch:
		return NoMatchMessage
	default:
		return ErrorPrefix + err.Error()
	}
}

// Resolve computes the value of a formula. A simple formula evaluates its
// expression. A conditional formula evaluates its branches in order and
// returns the result of the first one whose condition is true, then falls
// back to the default, then to ErrNoMatch.
func (e *Evaluator) Resolve(formula *ast.Formula) (Value, error) {
	switch {
	case formula == nil:
		return nil, newError(ErrInvalidFormula, "invalid formula")
	case formula.IsSimple() && !formula.IsConditional():
		return e.Evaluate(formula.Expression)
	case formula.IsConditional() && !formula.IsSimple():
		return e.resolveConditional(formula)
	default:
		return nil, newError(ErrInvalidFormula, "invalid formula: no expression or conditions")
	}
}

func (e *Evaluator) resolveConditional(formula *ast.Formula) (Value, error) {
	for i := range formula.Conditions {
		branch := &formula.Conditions[i]

		cond, err := e.Evaluate(&branch.Condition)
		if err != nil {
			return nil, err
		}

		holds, ok := cond.(BoolValue)
		if !ok {
			return nil, newError(ErrConditionNotBoolean, "condition %d must evaluate to a boolean, got %s", i+1, cond.Kind())
		}

		if holds.Val {
			log.Debug().
				Str("formula", formula.ID).
				Int("branch", i).
				Msg("condition matched")
			return e.Evaluate(&branch.Result)
		}
	}

	if formula.Default != nil {
		return e.Evaluate(formula.Default)
	}

	return nil, ErrNoMatch
}

// EvaluateFormula returns the display string of a formula. It never fails:
// errors are rendered with ErrorPrefix.
func EvaluateFormula(formula *ast.Formula, inputs map[string]string, variables []ast.Variable) string {
	if formula == nil {
		return ErrorPrefix + "invalid formula"
	}
	evaluator := NewEvaluator(NewEnvironment(variables, inputs))
	val, err := evaluator.Resolve(formula)
	if err != nil && !errors.Is(err, ErrNoMatch) {
		log.Debug().
			Str("formula", formula.ID).
			Str("kind", string(KindOf(err))).
			Err(err).
			Msg("formula evaluation failed")
	}
	return Display(val, err)
}
