// Package engine provides a public API for evaluating caldeco catalogs
// programmatically. It allows other applications to load a catalog file and
// compute its formulas without going through the CLI or the HTTP server.
//
// The main functionality includes:
//   - Evaluating every formula of a catalog file against a set of inputs
//   - Restricting a calculation to some formulas
//   - Monitoring calculations through event listeners
//
// Example usage:
//
//	inputs := map[string]interface{}{
//		"weight": 12.5,
//		"zone":   "international",
//	}
//
//	results, err := engine.Calculate("shipping.calc.yaml", inputs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(results["base"])
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/Ergy12/caldeco/pkg/events"
)

// Option represents a functional option for configuring a calculation.
type Option func(*settings)

type settings struct {
	calculatorOpts []engine.CalculatorOption
	formulaIDs     []string
}

// WithListener creates an Option that registers a listener for calculation
// events. The listener receives a calculation_started event, one
// formula_evaluated event per formula and a final calculation_completed or
// calculation_failed event.
//
// Example:
//
//	collector := events.NewCollector()
//	results, err := engine.Calculate("shipping.calc.yaml", inputs, engine.WithListener(collector))
//	for _, event := range collector.Events() {
//		fmt.Println(event.Type, event.FormulaID)
//	}
func WithListener(listener events.Listener) Option {
	return func(s *settings) {
		s.calculatorOpts = append(s.calculatorOpts, engine.WithListener(listener))
	}
}

// WithConcurrency limits how many formulas are evaluated at once. Values
// below one remove the limit.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		s.calculatorOpts = append(s.calculatorOpts, engine.WithConcurrency(n))
	}
}

// WithFormulas restricts the calculation to the formulas with the given IDs.
func WithFormulas(ids ...string) Option {
	return func(s *settings) {
		s.formulaIDs = append(s.formulaIDs, ids...)
	}
}

// Calculate evaluates the formulas of a catalog file and returns the display
// string of each one, keyed by formula ID.
//
// Parameters:
//   - catalogFile: Path to the catalog file (.calc.yaml or .calc.yml)
//   - inputs: Values keyed by variable ID or input field ID. Values may be
//     strings, numbers or booleans. Variables that are not given keep the
//     initial value declared in the catalog.
//   - options: Functional options configuring the calculation
//
// Returns:
//   - map[string]string: The display string of every evaluated formula. A
//     formula that fails is displayed as "Error: " followed by the reason,
//     and a conditional formula without a matching branch or default shows
//     "No condition met and no default value."
//   - error: An error when the catalog cannot be loaded, an input is invalid
//     or an unknown formula ID is requested. Failing formulas are never
//     reported here.
func Calculate(catalogFile string, inputs map[string]interface{}, options ...Option) (map[string]string, error) {
	return CalculateContext(context.Background(), catalogFile, inputs, options...)
}

// CalculateContext is like Calculate but stops when ctx is cancelled.
func CalculateContext(ctx context.Context, catalogFile string, inputs map[string]interface{}, options ...Option) (map[string]string, error) {
	s := &settings{}
	for _, option := range options {
		option(s)
	}

	catalog, err := engine.LoadCatalog(catalogFile)
	if err != nil {
		return nil, err
	}

	provided := make(map[string]string, len(inputs))
	for key, value := range inputs {
		text, err := inputText(value)
		if err != nil {
			return nil, fmt.Errorf("input '%s': %w", key, err)
		}
		provided[key] = text
	}

	validation := engine.ValidateInputs(catalog, provided)
	if err := validation.ToError(); err != nil {
		return nil, err
	}

	result, err := engine.NewCalculator(s.calculatorOpts...).Calculate(ctx, catalog, validation.ProcessedInputs, s.formulaIDs...)
	if err != nil {
		return nil, err
	}

	displays := make(map[string]string, len(result.Results))
	for _, r := range result.Results {
		displays[r.FormulaID] = r.Display
	}
	return displays, nil
}

func inputText(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
