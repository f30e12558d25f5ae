// Package gqlreq parses a slice's GraphQL request text into the argument
// descriptors and return type name a resolver needs.
package gqlreq

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/matthewbaird/flowgen/internal/naming"
)

// ErrNoOperation is returned when the request holds no operation or the
// operation selects no field.
var ErrNoOperation = errors.New("request has no operation")

// Arg is one variable definition of the request.
type Arg struct {
	Name     string
	GQLType  string // as written, e.g. "[String!]!"
	Named    string // innermost named type
	List     bool
	Nullable bool
	TSType   string
}

// Request is the parse result of one operation.
type Request struct {
	Operation  string // "query" or "mutation"
	Name       string // operation name, may be empty
	Field      string // root selection field
	ReturnType string // Pascal(Field)
	Args       []Arg
}

// Parse parses query text. Only the first operation is considered.
func Parse(query string) (*Request, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if len(doc.Operations) == 0 {
		return nil, ErrNoOperation
	}
	op := doc.Operations[0]

	var field string
	for _, sel := range op.SelectionSet {
		if f, ok := sel.(*ast.Field); ok {
			field = f.Name
			break
		}
	}
	if field == "" {
		return nil, ErrNoOperation
	}

	req := &Request{
		Operation:  string(op.Operation),
		Name:       op.Name,
		Field:      field,
		ReturnType: naming.Pascal(field),
	}
	for _, v := range op.VariableDefinitions {
		req.Args = append(req.Args, newArg(v.Variable, v.Type))
	}
	return req, nil
}

func newArg(name string, t *ast.Type) Arg {
	a := Arg{Name: name, GQLType: t.String(), Nullable: !t.NonNull}
	inner := t
	if t.Elem != nil {
		a.List = true
		inner = t.Elem
	}
	for inner.Elem != nil {
		inner = inner.Elem
	}
	a.Named = inner.NamedType
	a.TSType = scalarTS(a.Named)
	if a.List {
		a.TSType += "[]"
	}
	return a
}

func scalarTS(named string) string {
	switch named {
	case "String", "ID":
		return "string"
	case "Int", "Float":
		return "number"
	case "Boolean":
		return "boolean"
	case "Date", "DateTime", "DateTimeISO":
		return "Date"
	case "JSON", "JSONObject":
		return "unknown"
	}
	return named
}
