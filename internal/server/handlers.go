package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// calculationRequest is the body of calculate and evaluate requests.
// Inputs may be keyed by variable ID or input field ID.
type calculationRequest struct {
	Inputs   map[string]any `json:"inputs"`
	Formulas []string       `json:"formulas,omitempty"`
}

// inputView describes an input field together with its variable
type inputView struct {
	Field    ast.InputField `json:"field"`
	Variable ast.Variable   `json:"variable"`
	Default  string         `json:"default"`
}

// getCatalog returns the current catalog snapshot
func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Get())
}

// reloadCatalog re-reads the catalog file. The old snapshot is kept when the
// file does not parse.
func (s *Server) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if s.config.CatalogFile == "" {
		http.Error(w, "Server was not started from a catalog file", http.StatusConflict)
		return
	}

	if err := s.store.Load(s.config.CatalogFile); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": err.Error(),
		})
		return
	}

	catalog := s.store.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog":  catalog.Name(),
		"formulas": len(catalog.Formulas),
	})
}

// listInputs returns every input field with its variable and default value
func (s *Server) listInputs(w http.ResponseWriter, r *http.Request) {
	catalog := s.store.Get()
	defaults := engine.DefaultInputs(catalog)

	inputs := make([]inputView, 0, len(catalog.InputFields))
	for _, field := range catalog.InputFields {
		variable, ok := catalog.GetVariable(field.VariableID)
		if !ok {
			continue
		}
		inputs = append(inputs, inputView{
			Field:    field,
			Variable: *variable,
			Default:  defaults[variable.ID],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"inputs": inputs,
	})
}

// calculate evaluates all (or the requested) formulas
func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	catalog := s.store.Get()

	req, err := decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, id := range req.Formulas {
		if _, ok := catalog.GetFormula(id); !ok {
			http.Error(w, fmt.Sprintf("Formula '%s' not found", id), http.StatusNotFound)
			return
		}
	}

	result, ok := s.runCalculation(r.Context(), w, catalog, req, req.Formulas...)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// evaluateFormula evaluates a single formula
func (s *Server) evaluateFormula(w http.ResponseWriter, r *http.Request) {
	catalog := s.store.Get()
	formulaID := mux.Vars(r)["id"]

	if _, ok := catalog.GetFormula(formulaID); !ok {
		http.Error(w, fmt.Sprintf("Formula '%s' not found", formulaID), http.StatusNotFound)
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, ok := s.runCalculation(r.Context(), w, catalog, req, formulaID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, result.Results[0])
}

// runCalculation validates the inputs and runs a calculation, writing an
// error response and returning false when it cannot
func (s *Server) runCalculation(ctx context.Context, w http.ResponseWriter, catalog *ast.Catalog, req *calculationRequest, formulaIDs ...string) (*engine.CalculationResult, bool) {
	inputs, err := inputStrings(req.Inputs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	validation := engine.ValidateInputs(catalog, inputs)
	if !validation.Valid {
		writeJSON(w, http.StatusBadRequest, formatValidationErrors(validation))
		return nil, false
	}

	if s.config.CalculationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CalculationTimeout)
		defer cancel()
	}

	result, err := s.newCalculator().Calculate(ctx, catalog, validation.ProcessedInputs, formulaIDs...)
	if err != nil {
		log.Error().Err(err).Msg("Calculation failed")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}

	s.metrics.ObserveCalculation(result)
	return result, true
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	catalog := s.store.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"catalog":   catalog.Name(),
		"formulas":  len(catalog.Formulas),
		"timestamp": time.Now(),
	})
}

func decodeRequest(r *http.Request) (*calculationRequest, error) {
	req := &calculationRequest{}
	if r.Body == nil {
		return req, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	return req, nil
}

// inputStrings converts JSON input values to the raw text formulas read.
// Numbers keep the text they were sent with.
func inputStrings(values map[string]any) (map[string]string, error) {
	inputs := make(map[string]string, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case string:
			inputs[key] = v
		case json.Number:
			inputs[key] = v.String()
		case bool:
			inputs[key] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("input '%s' must be a string, number or boolean", key)
		}
	}
	return inputs, nil
}

// decodeInputs reads a stream message into raw input text
func decodeInputs(message []byte) (map[string]string, error) {
	var req calculationRequest
	dec := json.NewDecoder(bytes.NewReader(message))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, errors.New("invalid JSON: " + err.Error())
	}
	return inputStrings(req.Inputs)
}

// formatValidationErrors formats validation errors for HTTP response
func formatValidationErrors(result *engine.InputValidationResult) map[string]any {
	details := make([]map[string]any, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = map[string]any{
			"field":   err.Field,
			"message": err.Message,
		}
		if err.Value != "" {
			details[i]["value"] = err.Value
		}
	}

	return map[string]any{
		"error":   "Input validation failed",
		"details": details,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
