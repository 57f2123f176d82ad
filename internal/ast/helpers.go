package ast

// GetVariable returns the first variable with the given ID
func (c *Catalog) GetVariable(id string) (*Variable, bool) {
	for i := range c.Variables {
		if c.Variables[i].ID == id {
			return &c.Variables[i], true
		}
	}
	return nil, false
}

// GetFormula returns the first formula with the given ID
func (c *Catalog) GetFormula(id string) (*Formula, bool) {
	for i := range c.Formulas {
		if c.Formulas[i].ID == id {
			return &c.Formulas[i], true
		}
	}
	return nil, false
}

// GetInputField returns the first input field with the given ID
func (c *Catalog) GetInputField(id string) (*InputField, bool) {
	for i := range c.InputFields {
		if c.InputFields[i].ID == id {
			return &c.InputFields[i], true
		}
	}
	return nil, false
}

// InputFieldFor returns the input field bound to the given variable
func (c *Catalog) InputFieldFor(variableID string) (*InputField, bool) {
	for i := range c.InputFields {
		if c.InputFields[i].VariableID == variableID {
			return &c.InputFields[i], true
		}
	}
	return nil, false
}

// ListFormulaIDs returns formula IDs in declaration order
func (c *Catalog) ListFormulaIDs() []string {
	ids := make([]string, len(c.Formulas))
	for i, f := range c.Formulas {
		ids[i] = f.ID
	}
	return ids
}

// Name returns the catalog name from its metadata, if any
func (c *Catalog) Name() string {
	if c.Metadata != nil {
		return c.Metadata.Name
	}
	return ""
}

// IsConditional reports whether the formula uses conditional branches
func (f *Formula) IsConditional() bool {
	return len(f.Conditions) > 0
}

// IsSimple reports whether the formula uses a single expression
func (f *Formula) IsSimple() bool {
	return f.Expression != nil
}

// Expressions returns every expression of the formula: the simple
// expression, each branch's condition and result, then the default.
func (f *Formula) Expressions() []*Expression {
	var exprs []*Expression
	if f.Expression != nil {
		exprs = append(exprs, f.Expression)
	}
	for i := range f.Conditions {
		exprs = append(exprs, &f.Conditions[i].Condition, &f.Conditions[i].Result)
	}
	if f.Default != nil {
		exprs = append(exprs, f.Default)
	}
	return exprs
}

// HasOption reports whether value is one of the variable's options
func (v *Variable) HasOption(value string) bool {
	return contains(v.Options, value)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
