package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/expression"
	"github.com/Ergy12/caldeco/pkg/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FormulaResult is the outcome of one formula in a calculation
type FormulaResult struct {
	FormulaID string               `json:"formula_id" yaml:"formula_id"`
	Name      string               `json:"name" yaml:"name"`
	Display   string               `json:"display" yaml:"display"`
	Outcome   expression.Outcome   `json:"outcome" yaml:"outcome"`
	ErrorKind expression.ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	// Value is the typed result (float64, string or bool) when Outcome is ok.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// CalculationResult contains every formula result of one calculation run
type CalculationResult struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	CatalogFile string            `json:"catalog_file,omitempty" yaml:"catalog_file,omitempty"`
	StartTime   time.Time         `json:"start_time" yaml:"start_time"`
	Duration    time.Duration     `json:"duration" yaml:"duration"`
	Inputs      map[string]string `json:"inputs" yaml:"inputs"`
	Results     []FormulaResult   `json:"results" yaml:"results"`
}

// Result returns the result of a formula by ID
func (r *CalculationResult) Result(formulaID string) (*FormulaResult, bool) {
	for i := range r.Results {
		if r.Results[i].FormulaID == formulaID {
			return &r.Results[i], true
		}
	}
	return nil, false
}

// Calculator evaluates the formulas of a catalog in parallel
type Calculator struct {
	concurrency int
	listener    events.Listener
}

// CalculatorOption configures a Calculator
type CalculatorOption func(*Calculator)

// WithConcurrency limits how many formulas are evaluated at once. Values
// below one mean no limit.
func WithConcurrency(n int) CalculatorOption {
	return func(c *Calculator) {
		c.concurrency = n
	}
}

// WithListener sets the listener that receives calculation events
func WithListener(listener events.Listener) CalculatorOption {
	return func(c *Calculator) {
		c.listener = listener
	}
}

// NewCalculator creates a calculator. By default it evaluates up to
// GOMAXPROCS formulas at once and emits no events.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		concurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetListener updates the listener for calculation events
func (c *Calculator) SetListener(listener events.Listener) {
	c.listener = listener
}

// Calculate evaluates the selected formulas, or all of them when no IDs are
// given, against inputs. Inputs are keyed by variable ID and used as is; see
// ValidateInputs to merge user values over the catalog defaults. Results keep
// catalog order. One formula failing never affects another: failures are
// reported in that formula's result. Calculate itself only fails for an
// unknown formula ID or a cancelled context.
func (c *Calculator) Calculate(ctx context.Context, catalog *ast.Catalog, inputs map[string]string, formulaIDs ...string) (*CalculationResult, error) {
	formulas, err := selectFormulas(catalog, formulaIDs)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]string, len(inputs))
	for k, v := range inputs {
		snapshot[k] = v
	}

	result := &CalculationResult{
		RunID:       uuid.NewString(),
		CatalogFile: catalog.SourceFile,
		StartTime:   time.Now(),
		Inputs:      snapshot,
		Results:     make([]FormulaResult, len(formulas)),
	}

	eventChan := make(chan events.CalculationEvent, len(formulas)+2)
	if c.listener != nil {
		go c.listener.StartListening(eventChan)
	}
	defer func() {
		close(eventChan)
		if c.listener != nil {
			c.listener.StopListening()
		}
	}()

	eventChan <- events.CalculationEvent{
		Type:      events.EventCalculationStarted,
		Timestamp: result.StartTime,
		RunID:     result.RunID,
		Total:     len(formulas),
	}

	evaluator := expression.NewEvaluator(expression.NewEnvironment(catalog.Variables, snapshot))

	g, gctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for i, formula := range formulas {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			val, err := evaluator.Resolve(formula)
			result.Results[i] = newFormulaResult(formula, val, err)

			eventChan <- events.CalculationEvent{
				Type:         events.EventFormulaEvaluated,
				Timestamp:    time.Now(),
				RunID:        result.RunID,
				FormulaID:    formula.ID,
				FormulaIndex: i,
				Display:      result.Results[i].Display,
				Outcome:      string(result.Results[i].Outcome),
			}
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	result.Duration = time.Since(result.StartTime)

	if err != nil {
		eventChan <- events.CalculationEvent{
			Type:      events.EventCalculationFailed,
			Timestamp: time.Now(),
			RunID:     result.RunID,
			Duration:  result.Duration,
			Error:     err.Error(),
		}
		log.Debug().
			Err(err).
			Str("run_id", result.RunID).
			Msg("Calculation cancelled")
		return nil, fmt.Errorf("calculation cancelled: %w", err)
	}

	eventChan <- events.CalculationEvent{
		Type:      events.EventCalculationCompleted,
		Timestamp: time.Now(),
		RunID:     result.RunID,
		Total:     len(formulas),
		Duration:  result.Duration,
	}

	log.Debug().
		Str("run_id", result.RunID).
		Str("catalog", catalog.Name()).
		Int("formulas", len(formulas)).
		Dur("duration", result.Duration).
		Msg("Calculation completed")

	return result, nil
}

func selectFormulas(catalog *ast.Catalog, ids []string) ([]*ast.Formula, error) {
	if len(ids) == 0 {
		formulas := make([]*ast.Formula, len(catalog.Formulas))
		for i := range catalog.Formulas {
			formulas[i] = &catalog.Formulas[i]
		}
		return formulas, nil
	}

	formulas := make([]*ast.Formula, 0, len(ids))
	for _, id := range ids {
		formula, ok := catalog.GetFormula(id)
		if !ok {
			return nil, fmt.Errorf("unknown formula: %s", id)
		}
		formulas = append(formulas, formula)
	}
	return formulas, nil
}

func newFormulaResult(formula *ast.Formula, val expression.Value, err error) FormulaResult {
	result := FormulaResult{
		FormulaID: formula.ID,
		Name:      formula.Name,
		Display:   expression.Display(val, err),
		Outcome:   expression.OutcomeOf(err),
	}

	switch result.Outcome {
	case expression.OutcomeOK:
		result.Value = nativeValue(val)
	case expression.OutcomeError:
		result.ErrorKind = expression.KindOf(err)
	}

	return result
}

func nativeValue(val expression.Value) any {
	switch v := val.(type) {
	case expression.NumberValue:
		return v.Val
	case expression.TextValue:
		return v.Val
	case expression.BoolValue:
		return v.Val
	}
	return nil
}
