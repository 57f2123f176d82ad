package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Ergy12/caldeco/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	results, err := Calculate("testdata/shipping.calc.yaml", map[string]interface{}{
		"weight":     10,
		"zone-field": "international",
		"express":    true,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"base":      "40",
		"surcharge": "25",
		"heavy":     "No condition met and no default value.",
		"per-item":  "Error: division by zero",
	}, results)
}

func TestCalculate_Defaults(t *testing.T) {
	results, err := Calculate("testdata/shipping.calc.yaml", nil, WithFormulas("base", "surcharge"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"base": "10", "surcharge": "0"}, results)
}

func TestCalculate_WithListener(t *testing.T) {
	collector := events.NewCollector()

	_, err := Calculate("testdata/shipping.calc.yaml", map[string]interface{}{"weight": json.Number("1.5")},
		WithListener(collector), WithConcurrency(1))
	require.NoError(t, err)

	recorded := collector.Events()
	require.Len(t, recorded, 6)
	assert.Equal(t, events.EventCalculationStarted, recorded[0].Type)
	assert.Equal(t, events.EventCalculationCompleted, recorded[5].Type)
}

func TestCalculate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		inputs  map[string]interface{}
		options []Option
		err     string
	}{
		{
			name: "missing catalog",
			file: "testdata/missing.calc.yaml",
			err:  "failed to read file",
		},
		{
			name:   "unsupported input type",
			file:   "testdata/shipping.calc.yaml",
			inputs: map[string]interface{}{"weight": []int{1}},
			err:    "input 'weight': unsupported value type",
		},
		{
			name:   "choice outside options",
			file:   "testdata/shipping.calc.yaml",
			inputs: map[string]interface{}{"zone": "mars"},
			err:    "value must be one of",
		},
		{
			name:    "unknown formula",
			file:    "testdata/shipping.calc.yaml",
			options: []Option{WithFormulas("nope")},
			err:     "unknown formula: nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.file, tt.inputs, tt.options...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestCalculateContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CalculateContext(ctx, "testdata/shipping.calc.yaml", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
