package baf

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Setter computes one field's input at build time. Returning an error that
// carries a pending signal (from Ref.Size, Ref.Offset, or ForceDependency)
// defers the field to the next pass; any other error aborts the build.
type Setter func(ctx *BuildContext) (SetterResult, error)

// SetterResult is what a setter hands back to the scheduler. Exactly one of
// the shapes applies: a concrete Value, an absence marker, an alternate
// Model with a Value, a prebuilt Datum, or per-element array Entries.
type SetterResult struct {
	// Value is the input the field's model builds from.
	Value cty.Value
	// Model, when set, replaces the declared field model. The declared
	// model acts as a type bound; see AnyBlock.
	Model Model
	// Datum, when set, is inserted into the field's slot as-is; the
	// scheduler re-parents it and recomputes offsets lazily.
	Datum Datum
	// Entries carries per-element results for Array fields.
	Entries []SetterResult

	absent bool
}

// Val returns a result carrying a concrete input value.
func Val(v cty.Value) SetterResult { return SetterResult{Value: v} }

// Absent marks the field as having no input. Only Optional fields build
// from it; everything else fails with TypeMismatch.
func Absent() SetterResult { return SetterResult{absent: true} }

// WithModel resolves a polymorphic field to a concrete model and input.
func WithModel(m Model, v cty.Value) SetterResult { return SetterResult{Model: m, Value: v} }

// Prebuilt inserts an already-assembled datum into the field's slot.
func Prebuilt(d Datum) SetterResult { return SetterResult{Datum: d} }

// Entries builds an Array field from per-element results, each of which may
// carry its own model or prebuilt datum.
func Entries(entries ...SetterResult) SetterResult {
	if entries == nil {
		entries = []SetterResult{}
	}
	return SetterResult{Entries: entries}
}

// BuildContext is the view a setter gets of the build in progress. Setters
// observe datum state through it but never mutate the tree themselves.
type BuildContext struct {
	b     *build
	block *blockDatum
}

// Context returns the context the build was started with; it carries the
// build's logger.
func (c *BuildContext) Context() context.Context { return c.b.ctx }

// RootPath is the directory relative File paths resolve against.
func (c *BuildContext) RootPath() string { return c.b.rootPath }

// Input is the full input mapping handed to the enclosing block.
func (c *BuildContext) Input() cty.Value { return c.block.src }

// Sibling looks up a declared field of the enclosing block by name.
func (c *BuildContext) Sibling(name string) *Ref {
	for _, f := range c.block.fields {
		if f.decl.Name == name {
			return &Ref{d: f.datum}
		}
	}
	return &Ref{err: newError(MissingField, "block %s has no field %q",
		c.block.model.TypeName(), name)}
}

// Root returns a reference to the root datum, for cousin lookups.
func (c *BuildContext) Root() *Ref {
	var d Datum = c.block
	for d.Parent() != nil {
		d = d.Parent()
	}
	return &Ref{d: d}
}

// ForceDependency defers the current field until the named sibling
// completes, even if the setter never reads it. A forced dependency behaves
// like a naturally discovered one for cycle detection.
func (c *BuildContext) ForceDependency(name string) error {
	ref := c.Sibling(name)
	if ref.err != nil {
		return ref.err
	}
	if ref.d.State() != Complete {
		return pendingOn(datumPath(ref.d))
	}
	return nil
}

// Assemble instantiates model detached from the tree and builds it with val
// in the current build's configuration. The result can be returned from a
// setter via Prebuilt; the scheduler re-parents it on insertion.
func (c *BuildContext) Assemble(m Model, val cty.Value) (Datum, error) {
	d := m.instantiate(c.b, nil, "")
	if err := d.build(input{val: val, hasVal: true}); err != nil {
		return nil, err
	}
	return d, nil
}

// Ref is a read-only handle on another datum in the tree. Its accessors
// return a pending signal while the target is unresolved; returning that
// error from a setter defers the field.
type Ref struct {
	d   Datum
	err error
}

// Datum exposes the underlying datum.
func (r *Ref) Datum() (Datum, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.d, nil
}

// Size reports the target's encoded size. It defers until the target is
// Complete: what a setter observes is the stable built size, never a static
// assumption that an in-flight build could still contradict.
func (r *Ref) Size() (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.d.State() != Complete {
		return 0, pendingOn(datumPath(r.d))
	}
	return r.d.Size()
}

// Offset reports the target's offset relative to the root.
func (r *Ref) Offset() (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.d.Offset()
}

// Bytes returns the target's encoded output once it is complete.
func (r *Ref) Bytes() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.d.Bytes()
}

// Int decodes the target scalar's built value.
func (r *Ref) Int() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	sd, ok := r.d.(*scalarDatum)
	if !ok {
		return 0, newError(TypeMismatch, "%s is not a scalar field", datumPath(r.d))
	}
	if sd.State() != Complete {
		return 0, pendingOn(datumPath(r.d))
	}
	return sd.value.Int64(), nil
}

// Len reports an array target's element count.
func (r *Ref) Len() (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	ad, ok := r.d.(*arrayDatum)
	if !ok {
		return 0, newError(TypeMismatch, "%s is not an array field", datumPath(r.d))
	}
	return ad.Len()
}

// Field navigates into a block target's declared child.
func (r *Ref) Field(name string) *Ref {
	if r.err != nil {
		return r
	}
	bd, ok := r.d.(*blockDatum)
	if !ok {
		return &Ref{err: newError(TypeMismatch, "%s is not a block", datumPath(r.d))}
	}
	for _, f := range bd.fields {
		if f.decl.Name == name {
			return &Ref{d: f.datum}
		}
	}
	return &Ref{err: newError(MissingField, "block %s has no field %q",
		bd.model.TypeName(), name)}
}

// Element navigates into an array target's element. It defers until the
// array's input has been derived.
func (r *Ref) Element(i int) *Ref {
	if r.err != nil {
		return r
	}
	ad, ok := r.d.(*arrayDatum)
	if !ok {
		return &Ref{err: newError(TypeMismatch, "%s is not an array field", datumPath(r.d))}
	}
	if !ad.started {
		return &Ref{err: pendingOn(datumPath(ad.self))}
	}
	if i < 0 || i >= len(ad.elems) {
		return &Ref{err: newError(MissingField, "%s has no element %d", datumPath(ad.self), i)}
	}
	return &Ref{d: ad.elems[i]}
}
