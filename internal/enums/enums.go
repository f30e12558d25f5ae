// Package enums turns string-literal union field types into named,
// deduplicated enums shared by every generated file.
package enums

import (
	"strconv"

	"github.com/matthewbaird/flowgen/internal/model"
	"github.com/matthewbaird/flowgen/internal/naming"
	"github.com/matthewbaird/flowgen/internal/typeexpr"
)

// Definition is one synthesized enum.
type Definition struct {
	Name      string
	Values    []string // literal values in first-seen order
	Signature string   // sorted, quoted union; the deduplication key
}

// Member is one enum member as rendered.
type Member struct {
	Key   string
	Value string
}

// Members derives member keys from the literal values: UPPER_SNAKE, a "_"
// prefix when the key would start with a digit or be empty, and a numeric
// suffix on collision.
func (d Definition) Members() []Member {
	seen := make(map[string]int, len(d.Values))
	members := make([]Member, 0, len(d.Values))
	for _, v := range d.Values {
		key := naming.Constant(v)
		if key == "" || (key[0] >= '0' && key[0] <= '9') {
			key = "_" + key
		}
		if n := seen[key]; n > 0 {
			seen[key] = n + 1
			key += strconv.Itoa(n + 1)
		} else {
			seen[key] = 1
		}
		members = append(members, Member{Key: key, Value: v})
	}
	return members
}

// MemberFor returns the member key holding value.
func (d Definition) MemberFor(value string) (string, bool) {
	for _, m := range d.Members() {
		if m.Value == value {
			return m.Key, true
		}
	}
	return "", false
}

// Registry maps union signatures to enum definitions. It is built once per
// run before any file renders and is read-only afterwards.
type Registry struct {
	classifier *typeexpr.Classifier
	defs       []Definition
	bySig      map[string]int
	byName     map[string]int
}

// Derive scans every field of every message and synthesizes one enum per
// distinct literal-union signature.
func Derive(msgs []model.Message, classifier *typeexpr.Classifier) *Registry {
	r := &Registry{
		classifier: classifier,
		bySig:      make(map[string]int),
		byName:     make(map[string]int),
	}
	for _, m := range msgs {
		for _, f := range m.Fields {
			r.collect(m.Name, f.Name, classifier.Classify(f.Type))
		}
	}
	return r
}

// collect registers e's union if it is one. Array elements and inline-object
// members are walked too so nested unions get names as well.
func (r *Registry) collect(owner, field string, e *typeexpr.Expr) {
	switch e.Category {
	case typeexpr.LiteralUnion:
		r.register(owner, field, e)
	case typeexpr.Array:
		r.collect(owner, field, e.Elem)
	case typeexpr.InlineObject:
		for _, m := range e.Members {
			r.collect(owner+naming.Pascal(field), m.Name, m.Type)
		}
	}
}

func (r *Registry) register(owner, field string, e *typeexpr.Expr) {
	sig := e.Signature()
	if _, ok := r.bySig[sig]; ok {
		return
	}
	base := naming.Pascal(owner + naming.Pascal(field))
	name := base
	for n := 2; ; n++ {
		if _, taken := r.byName[name]; !taken {
			break
		}
		name = base + strconv.Itoa(n)
	}
	r.bySig[sig] = len(r.defs)
	r.byName[name] = len(r.defs)
	r.defs = append(r.defs, Definition{
		Name:      name,
		Values:    append([]string(nil), e.Values...),
		Signature: sig,
	})
}

// Enums returns every definition in synthesis order.
func (r *Registry) Enums() []Definition { return r.defs }

// BySignature returns the enum registered for a union signature.
func (r *Registry) BySignature(sig string) (Definition, bool) {
	i, ok := r.bySig[sig]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// ForExpr returns the enum a classified expression renders as, if it is a
// literal union with a registered signature.
func (r *Registry) ForExpr(e *typeexpr.Expr) (Definition, bool) {
	if e == nil || e.Category != typeexpr.LiteralUnion {
		return Definition{}, false
	}
	return r.BySignature(e.Signature())
}

// Classifier returns the classifier the registry was derived with.
func (r *Registry) Classifier() *typeexpr.Classifier { return r.classifier }
