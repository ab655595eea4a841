package dao

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// systemFields are managed by the DAO layer and may not be patched
// directly. Keys never change for the lifetime of an item; versions and
// timestamps are stamped on every write.
var systemFields = map[string]struct{}{
	"PK":         {},
	"SK":         {},
	"entityType": {},
	"version":    {},
	"createdAt":  {},
	"updatedAt":  {},
}

type patchOpKind int

const (
	patchSet patchOpKind = iota
	patchRemove
	patchIncrement
	patchAppend
)

type patchOp struct {
	kind   patchOpKind
	path   string
	value  any
	delta  float64
	values []any
}

// Patch accumulates typed field changes for a partial update. Invalid
// operations are recorded and surfaced when the patch is applied, so
// call sites can stay fluent.
type Patch struct {
	ops []patchOp
	err error
}

// NewPatch returns an empty patch.
func NewPatch() *Patch { return &Patch{} }

func (p *Patch) reject(path, reason string) *Patch {
	if p.err == nil {
		p.err = fmt.Errorf("dao: cannot patch %q: %s", path, reason)
	}
	return p
}

func (p *Patch) checkPath(path string) bool {
	if path == "" {
		p.reject(path, "empty field path")
		return false
	}
	root := path
	if i := strings.IndexByte(path, '.'); i >= 0 {
		root = path[:i]
	}
	if _, reserved := systemFields[root]; reserved {
		p.reject(path, "field is managed by the data-access layer")
		return false
	}
	return true
}

// Set assigns a value to a field. Dotted paths address nested fields.
func (p *Patch) Set(path string, value any) *Patch {
	if p.checkPath(path) {
		p.ops = append(p.ops, patchOp{kind: patchSet, path: path, value: value})
	}
	return p
}

// Remove deletes a field from the item.
func (p *Patch) Remove(path string) *Patch {
	if p.checkPath(path) {
		p.ops = append(p.ops, patchOp{kind: patchRemove, path: path})
	}
	return p
}

// Increment adds delta to a numeric field, treating an absent field as
// zero.
func (p *Patch) Increment(path string, delta float64) *Patch {
	if p.checkPath(path) {
		p.ops = append(p.ops, patchOp{kind: patchIncrement, path: path, delta: delta})
	}
	return p
}

// Append appends values to a list field, creating the list when absent.
func (p *Patch) Append(path string, values ...any) *Patch {
	if len(values) == 0 {
		return p.reject(path, "append requires at least one value")
	}
	if p.checkPath(path) {
		p.ops = append(p.ops, patchOp{kind: patchAppend, path: path, values: values})
	}
	return p
}

// Len reports the number of accepted operations.
func (p *Patch) Len() int { return len(p.ops) }

// Err returns the first recorded builder error, if any.
func (p *Patch) Err() error { return p.err }

// build folds the patch into an update expression builder.
func (p *Patch) build(upd expression.UpdateBuilder) (expression.UpdateBuilder, error) {
	if p.err != nil {
		return upd, p.err
	}
	if len(p.ops) == 0 {
		return upd, fmt.Errorf("dao: empty patch")
	}
	for _, op := range p.ops {
		name := expression.Name(op.path)
		switch op.kind {
		case patchSet:
			upd = upd.Set(name, expression.Value(op.value))
		case patchRemove:
			upd = upd.Remove(name)
		case patchIncrement:
			upd = upd.Set(name, expression.Plus(
				expression.IfNotExists(name, expression.Value(0)),
				expression.Value(op.delta),
			))
		case patchAppend:
			upd = upd.Set(name, expression.ListAppend(
				expression.IfNotExists(name, expression.Value([]any{})),
				expression.Value(op.values),
			))
		}
	}
	return upd, nil
}

// applyToDoc previews the patch against a document copy so the merged
// item can be validated before anything is written.
func (p *Patch) applyToDoc(doc map[string]any) {
	for _, op := range p.ops {
		switch op.kind {
		case patchSet:
			setDocPath(doc, op.path, op.value)
		case patchRemove:
			removeDocPath(doc, op.path)
		case patchIncrement:
			cur, _ := docNumber(doc, op.path)
			setDocPath(doc, op.path, cur+op.delta)
		case patchAppend:
			list, _ := getDocPath(doc, op.path).([]any)
			setDocPath(doc, op.path, append(list, op.values...))
		}
	}
}

func getDocPath(doc map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func docNumber(doc map[string]any, path string) (float64, bool) {
	switch n := getDocPath(doc, path).(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func setDocPath(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, isMap := cur[part].(map[string]any)
		if !isMap {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func removeDocPath(doc map[string]any, path string) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, isMap := cur[part].(map[string]any)
		if !isMap {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}
