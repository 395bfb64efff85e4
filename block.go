package baf

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Field declares one named child of a Block.
type Field struct {
	Name  string
	Model Model

	// Default supplies the input when the mapping omits the field and no
	// setter is registered for it.
	Default *cty.Value

	// Preprocess transforms the derived input before the field builds.
	// Errors it returns surface as ValidationError.
	Preprocess func(cty.Value) (cty.Value, error)
}

// BlockModel is an ordered, named grouping of child fields. Its bytes are the
// concatenation of its children's bytes in declaration order.
type BlockModel struct {
	typeName string
	fields   []Field
	setters  map[string]Setter
}

// NewBlock declares a block model. Schema misuse (unnamed fields, missing
// models, duplicate names) is a definition-time bug and panics.
func NewBlock(typeName string, fields ...Field) *BlockModel {
	if typeName == "" {
		panic("baf: block needs a type name")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			panic(fmt.Sprintf("baf: block %s has a field with no name", typeName))
		}
		if f.Model == nil {
			panic(fmt.Sprintf("baf: field %s.%s has no model", typeName, f.Name))
		}
		if seen[f.Name] {
			panic(fmt.Sprintf("baf: duplicate field %q in block %s", f.Name, typeName))
		}
		seen[f.Name] = true
	}
	return &BlockModel{
		typeName: typeName,
		fields:   fields,
		setters:  make(map[string]Setter),
	}
}

// OnBuild registers a setter for the named field. When a setter exists, the
// scheduler calls it instead of reading the field from the input mapping.
// Registering for an unknown field, or twice for the same field, panics.
func (m *BlockModel) OnBuild(field string, fn Setter) *BlockModel {
	if fn == nil {
		panic(fmt.Sprintf("baf: nil setter for %s.%s", m.typeName, field))
	}
	if !m.hasField(field) {
		panic(fmt.Sprintf("baf: block %s has no field %q", m.typeName, field))
	}
	if _, dup := m.setters[field]; dup {
		panic(fmt.Sprintf("baf: setter for %s.%s already registered", m.typeName, field))
	}
	m.setters[field] = fn
	return m
}

func (m *BlockModel) hasField(name string) bool {
	for _, f := range m.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (m *BlockModel) TypeName() string { return m.typeName }

func (m *BlockModel) StaticSize() (int, bool) {
	total := 0
	for _, f := range m.fields {
		n, ok := f.Model.StaticSize()
		if !ok {
			return 0, false
		}
		total += n
	}
	return total, true
}

func (m *BlockModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &blockDatum{}
	d.init(b, m, parent, name, d)
	// Children are instantiated eagerly so sibling size and offset lookups
	// in setters resolve against real datums from the first pass on.
	d.fields = make([]*fieldState, len(m.fields))
	for i, f := range m.fields {
		d.fields[i] = &fieldState{decl: f, datum: f.Model.instantiate(b, d, f.Name)}
	}
	return d
}

// fieldState tracks one declared child through the passes: whether its input
// has been derived (setter run, mapping read, or default taken) and whether
// its datum has completed.
type fieldState struct {
	decl    Field
	datum   Datum
	in      input
	derived bool
	done    bool
}

type blockDatum struct {
	base
	fields  []*fieldState
	src     cty.Value
	checked bool
}

func (d *blockDatum) items() []Datum {
	out := make([]Datum, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.datum
	}
	return out
}

// Size of an incomplete block sums whatever its children already know:
// complete children report their encoded length, unstarted ones their static
// size. Any unresolved child defers the caller.
func (d *blockDatum) Size() (int, error) {
	if d.state == Complete {
		return len(d.data), nil
	}
	total := 0
	for _, f := range d.fields {
		n, err := f.datum.Size()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (d *blockDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	m := d.model.(*BlockModel)
	if !d.checked {
		if !in.hasVal || in.val.IsNull() || !isMapping(in.val) {
			return newError(TypeMismatch, "%s expects a mapping, received %s", m.typeName, inputKind(in))
		}
		d.src = in.val
		d.checked = true
	}
	d.state = Running
	stalled := false
	for _, f := range d.fields {
		if f.done {
			continue
		}
		seg := func() string {
			return fmt.Sprintf("%s -> %s: %s", m.typeName, f.decl.Name, f.datum.Model().TypeName())
		}
		if !f.derived {
			if err := d.deriveInput(f); err != nil {
				if isPending(err) {
					d.b.stall(f.datum, err)
					stalled = true
					continue
				}
				return trace(err, seg())
			}
		}
		if err := f.datum.build(f.in); err != nil {
			if isPending(err) {
				if !isChildrenPending(err) {
					d.b.stall(f.datum, err)
				}
				stalled = true
				continue
			}
			return trace(err, seg())
		}
		f.done = true
	}
	if stalled {
		d.state = Pending
		return childrenPending(datumPath(d.self))
	}
	var buf []byte
	for _, f := range d.fields {
		data, err := f.datum.Bytes()
		if err != nil {
			return err
		}
		buf = append(buf, data...)
	}
	d.b.complete(&d.base, buf)
	return nil
}

// deriveInput resolves what the field builds from: the setter result if one
// is registered, else the mapping entry by name, else the declared default.
// Generator datatypes (Align) take no input at all.
func (d *blockDatum) deriveInput(f *fieldState) error {
	if _, isGen := f.decl.Model.(*alignModel); isGen {
		f.in = input{}
		f.derived = true
		return nil
	}
	m := d.model.(*BlockModel)
	if setter, ok := m.setters[f.decl.Name]; ok {
		res, err := setter(&BuildContext{b: d.b, block: d})
		if err != nil {
			if isPending(err) {
				return err
			}
			var be *Error
			if errors.As(err, &be) {
				return be
			}
			return &Error{Kind: SetterError, Message: err.Error(), Cause: err}
		}
		return d.applySetterResult(f, res)
	}
	if v, ok := attr(d.src, f.decl.Name); ok {
		f.in = input{val: v, hasVal: true}
	} else if f.decl.Default != nil {
		f.in = input{val: *f.decl.Default, hasVal: true}
	} else if _, isOpt := f.decl.Model.(*optionalModel); isOpt {
		f.in = input{}
	} else {
		return newError(MissingField, "no input, setter, or default for field %q", f.decl.Name)
	}
	f.derived = true
	return d.preprocess(f)
}

// applySetterResult maps the five setter return shapes onto the field slot:
// a concrete value, an absence marker, an alternate model with a value, an
// already-built datum, or per-element array entries.
func (d *blockDatum) applySetterResult(f *fieldState, res SetterResult) error {
	switch {
	case res.Datum != nil:
		res.Datum.setParent(d.self, f.decl.Name)
		f.datum = res.Datum
		f.in = input{}
		f.derived = true
		return nil
	case res.Entries != nil:
		f.in = input{entries: res.Entries}
		f.derived = true
		return nil
	case res.Model != nil:
		if err := checkAlternate(f.decl.Model, res.Model); err != nil {
			return err
		}
		f.datum = res.Model.instantiate(d.b, d.self, f.decl.Name)
		f.in = input{val: res.Value, hasVal: true}
		f.derived = true
		return d.preprocess(f)
	case res.absent || res.Value.IsNull():
		f.in = input{}
		f.derived = true
		return nil
	default:
		f.in = input{val: res.Value, hasVal: true}
		f.derived = true
		return d.preprocess(f)
	}
}

func (d *blockDatum) preprocess(f *fieldState) error {
	if f.decl.Preprocess == nil || !f.in.hasVal {
		return nil
	}
	v, err := f.decl.Preprocess(f.in.val)
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return be
		}
		return &Error{Kind: ValidationError, Message: err.Error(), Cause: err}
	}
	f.in.val = v
	return nil
}
