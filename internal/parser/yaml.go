package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/parser/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds the size of a catalog document
const MaxFileSize = 10 * 1024 * 1024

// Parser interface defines the contract for catalog parsing
type Parser interface {
	ParseFile(filename string) (*ast.Catalog, error)
	ParseBytes(data []byte) (*ast.Catalog, error)
	ParseReader(r io.Reader) (*ast.Catalog, error)
}

// CatalogValidator checks a decoded catalog. *ast.Validator is the default.
type CatalogValidator interface {
	ValidateCatalog(c *ast.Catalog) *ast.ValidationResult
}

// YAMLParser implements the Parser interface using go-yaml/v3
type YAMLParser struct {
	schema    *schema.Validator
	validator CatalogValidator
	strict    bool
}

// ParserOption configures the YAML parser
type ParserOption func(*YAMLParser)

// WithStrict enables strict parsing mode. Strict mode rejects unknown
// fields and validates the document against the catalog schema.
func WithStrict(strict bool) ParserOption {
	return func(p *YAMLParser) {
		p.strict = strict
	}
}

// WithValidator sets a custom schema validator
func WithValidator(validator *schema.Validator) ParserOption {
	return func(p *YAMLParser) {
		p.schema = validator
	}
}

// WithCatalogValidator replaces the validator run on every decoded catalog
func WithCatalogValidator(validator CatalogValidator) ParserOption {
	return func(p *YAMLParser) {
		p.validator = validator
	}
}

// NewYAMLParser creates a new YAML parser with the given options
func NewYAMLParser(opts ...ParserOption) (*YAMLParser, error) {
	parser := &YAMLParser{
		validator: ast.NewValidator(),
		strict:    true,
	}

	for _, opt := range opts {
		opt(parser)
	}

	if parser.strict && parser.schema == nil {
		validator, err := schema.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("failed to create schema validator: %w", err)
		}
		parser.schema = validator
	}

	return parser, nil
}

// ParseFile parses a catalog file
func (p *YAMLParser) ParseFile(filename string) (*ast.Catalog, error) {
	if !IsCatalogFile(filename) {
		return nil, fmt.Errorf("invalid file extension: expected %s, got %s",
			strings.Join(GetSupportedExtensions(), " or "), filepath.Base(filename))
	}

	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max 10MB)", info.Size())
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	catalog, err := p.parse(data, filename)
	if err != nil {
		return nil, err
	}

	catalog.SourceFile = filename
	catalog.Position.File = filename

	return catalog, nil
}

// ParseBytes parses catalog data from bytes
func (p *YAMLParser) ParseBytes(data []byte) (*ast.Catalog, error) {
	return p.parse(data, "")
}

// ParseReader parses catalog data from a reader
func (p *YAMLParser) ParseReader(r io.Reader) (*ast.Catalog, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("document too large (max 10MB)")
	}

	return p.ParseBytes(data)
}

func (p *YAMLParser) parse(data []byte, filename string) (*ast.Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{
			Message:    "empty catalog file",
			Position:   ast.Position{Line: 1, Column: 1, File: filename},
			Suggestion: "Add a catalog with at least a version field",
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, WrapYAMLError(err, data, filename)
	}

	if p.strict && p.schema != nil {
		if err := p.validateSchema(data, &root, filename); err != nil {
			return nil, err
		}
	}

	var catalog ast.Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.strict)
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{
				Message:  "catalog contains no document",
				Position: ast.Position{Line: 1, Column: 1, File: filename},
			}
		}
		return nil, WrapYAMLError(err, data, filename)
	}

	if doc := documentRoot(&root); doc != nil {
		catalog.Position = ast.Position{Line: doc.Line, Column: doc.Column, File: filename}
	}

	assignIDs(&catalog)

	if err := p.validateStructure(&catalog, data, &root, filename); err != nil {
		return nil, err
	}

	log.Debug().
		Str("file", filename).
		Str("catalog", catalog.Name()).
		Int("variables", len(catalog.Variables)).
		Int("formulas", len(catalog.Formulas)).
		Msg("Parsed catalog")

	return &catalog, nil
}

// validateSchema checks the raw document against the JSON Schema
func (p *YAMLParser) validateSchema(data []byte, root *yaml.Node, filename string) error {
	result, err := p.schema.ValidateBytes(data)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if result.Valid {
		return nil
	}

	var multiErr MultiError
	for _, validationErr := range result.Errors {
		position := positionAt(root, pointerSegments(validationErr.Path))
		position.File = filename
		multiErr.Add(&ParseError{
			Message:    validationErr.Message,
			Path:       validationErr.Path,
			Position:   position,
			Context:    ast.ExtractContext(data, position, 2),
			Suggestion: generateSuggestion(validationErr.Message),
		})
	}

	return multiErr.ToError()
}

// validateStructure runs the catalog validator and attaches source positions
func (p *YAMLParser) validateStructure(catalog *ast.Catalog, data []byte, root *yaml.Node, filename string) error {
	result := p.validator.ValidateCatalog(catalog)
	if !result.HasErrors() {
		return nil
	}

	var multiErr MultiError
	for _, validationErr := range result.Errors {
		segments := pathSegments(validationErr.Path)
		if validationErr.Field != "" {
			segments = append(segments, validationErr.Field)
		}

		position := positionAt(root, segments)
		position.File = filename
		multiErr.Add(&ParseError{
			Message:    validationErr.Error(),
			Path:       validationErr.Path,
			Position:   position,
			Context:    ast.ExtractContext(data, position, 2),
			Suggestion: generateSuggestion(validationErr.Message),
		})
	}

	return multiErr.ToError()
}

// assignIDs gives every entity without an ID a random one
func assignIDs(catalog *ast.Catalog) {
	for i := range catalog.Variables {
		if catalog.Variables[i].ID == "" {
			catalog.Variables[i].ID = uuid.NewString()
		}
	}
	for i := range catalog.InputFields {
		if catalog.InputFields[i].ID == "" {
			catalog.InputFields[i].ID = uuid.NewString()
		}
	}
	for i := range catalog.Formulas {
		if catalog.Formulas[i].ID == "" {
			catalog.Formulas[i].ID = uuid.NewString()
		}
	}
}

func documentRoot(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return node.Content[0]
	}
	return node
}

// positionAt walks the document along segments and returns the position of
// the deepest node it reaches. Mapping keys are reported at the key.
func positionAt(root *yaml.Node, segments []string) ast.Position {
	node := documentRoot(root)
	if node == nil {
		return ast.Position{Line: 1, Column: 1}
	}

	target := node
	for _, segment := range segments {
		next, at := child(node, segment)
		if next == nil {
			break
		}
		node, target = next, at
	}

	return ast.Position{Line: target.Line, Column: target.Column}
}

// child returns the node under segment and the node to report it at
func child(node *yaml.Node, segment string) (*yaml.Node, *yaml.Node) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == segment {
				return node.Content[i+1], node.Content[i]
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(segment)
		if err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx], node.Content[idx]
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			return child(node.Alias, segment)
		}
	}
	return nil, nil
}

// pointerSegments splits a JSON pointer such as /formulas/0/name
func pointerSegments(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}

	segments := strings.Split(pointer, "/")
	for i, s := range segments {
		segments[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
	}
	return segments
}

// pathSegments splits a validation path such as formulas[0].conditions[1].when
func pathSegments(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)

	var segments []string
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// IsCatalogFile reports whether filename has a catalog extension
func IsCatalogFile(filename string) bool {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	return (ext == ".yaml" || ext == ".yml") && strings.HasSuffix(base, ".calc")
}

// GetSupportedExtensions returns the list of supported file extensions
func GetSupportedExtensions() []string {
	return []string{".calc.yaml", ".calc.yml"}
}

// IsParseError reports whether err contains a ParseError
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
