package engine

import (
	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/parser"
)

// NewParser creates a YAML parser that validates catalogs with a
// CatalogValidator. Later options take precedence.
func NewParser(opts ...parser.ParserOption) (*parser.YAMLParser, error) {
	options := append([]parser.ParserOption{parser.WithCatalogValidator(NewCatalogValidator())}, opts...)
	return parser.NewYAMLParser(options...)
}

// LoadCatalog parses and validates a catalog file
func LoadCatalog(filename string, opts ...parser.ParserOption) (*ast.Catalog, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(filename)
}
