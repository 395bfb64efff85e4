package baf

import (
	"fmt"
	"strconv"
)

// Array returns a model for a variable-length sequence of elem. Any length,
// including zero, is accepted.
func Array(elem Model) Model {
	if elem == nil {
		panic("baf: Array needs an element model")
	}
	return &arrayModel{elem: elem, count: -1}
}

// ArrayN returns an Array model with a fixed element count. Input of any
// other length fails with ArrayLengthMismatch.
func ArrayN(elem Model, count int) Model {
	if elem == nil {
		panic("baf: ArrayN needs an element model")
	}
	if count < 0 {
		panic("baf: ArrayN count must not be negative")
	}
	return &arrayModel{elem: elem, count: count}
}

type arrayModel struct {
	elem  Model
	count int // -1 when variable
}

func (m *arrayModel) TypeName() string { return "Array[" + m.elem.TypeName() + "]" }

func (m *arrayModel) StaticSize() (int, bool) {
	if m.count < 0 {
		return 0, false
	}
	n, ok := m.elem.StaticSize()
	if !ok {
		return 0, false
	}
	return m.count * n, true
}

func (m *arrayModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &arrayDatum{}
	d.init(b, m, parent, name, d)
	return d
}

type arrayDatum struct {
	base
	started bool
	elems   []Datum
	inputs  []input
}

func (d *arrayDatum) items() []Datum { return d.elems }

func (d *arrayDatum) Size() (int, error) {
	if d.state == Complete {
		return len(d.data), nil
	}
	m := d.model.(*arrayModel)
	if d.started {
		total := 0
		for _, e := range d.elems {
			n, err := e.Size()
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}
	if n, ok := m.StaticSize(); ok {
		return n, nil
	}
	return 0, pendingOn(datumPath(d.self))
}

// Len reports the element count once input has been derived.
func (d *arrayDatum) Len() (int, error) {
	m := d.model.(*arrayModel)
	if d.started {
		return len(d.elems), nil
	}
	if m.count >= 0 {
		return m.count, nil
	}
	return 0, pendingOn(datumPath(d.self))
}

func (d *arrayDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	m := d.model.(*arrayModel)
	if !d.started {
		if err := d.begin(m, in); err != nil {
			return err
		}
	}
	d.state = Running
	stalled := false
	for i, elem := range d.elems {
		if elem.State() == Complete {
			continue
		}
		err := elem.build(d.inputs[i])
		if err == nil {
			continue
		}
		if isPending(err) {
			if !isChildrenPending(err) {
				d.b.stall(elem, err)
			}
			stalled = true
			continue
		}
		return trace(err, fmt.Sprintf("%s -> (element %d)", m.TypeName(), i))
	}
	if stalled {
		d.state = Pending
		return childrenPending(datumPath(d.self))
	}
	var buf []byte
	for _, elem := range d.elems {
		data, err := elem.Bytes()
		if err != nil {
			return err
		}
		buf = append(buf, data...)
	}
	d.b.complete(&d.base, buf)
	return nil
}

// begin derives the per-element inputs and instantiates one child datum per
// element. Entries from a setter may carry per-element models or prebuilt
// datums; plain sequence input uses the declared element model throughout.
func (d *arrayDatum) begin(m *arrayModel, in input) error {
	var entries []SetterResult
	switch {
	case in.entries != nil:
		entries = in.entries
	case in.hasVal && !in.val.IsNull() && isSequence(in.val):
		for _, ev := range elements(in.val) {
			entries = append(entries, Val(ev))
		}
	default:
		return newError(TypeMismatch, "%s expects a sequence, received %s", m.TypeName(), inputKind(in))
	}
	if m.count >= 0 && len(entries) != m.count {
		return newError(ArrayLengthMismatch, "expected %d items, received %d", m.count, len(entries))
	}
	for i, entry := range entries {
		name := strconv.Itoa(i)
		switch {
		case entry.Datum != nil:
			entry.Datum.setParent(d.self, name)
			d.elems = append(d.elems, entry.Datum)
			d.inputs = append(d.inputs, input{})
		case entry.absent:
			return trace(newError(ValidationError, "array element cannot be absent"),
				fmt.Sprintf("%s -> (element %d)", m.TypeName(), i))
		default:
			elemModel := m.elem
			if entry.Model != nil {
				if err := checkAlternate(m.elem, entry.Model); err != nil {
					return trace(err, fmt.Sprintf("%s -> (element %d)", m.TypeName(), i))
				}
				elemModel = entry.Model
			}
			d.elems = append(d.elems, elemModel.instantiate(d.b, d.self, name))
			d.inputs = append(d.inputs, input{val: entry.Value, hasVal: true})
		}
	}
	d.started = true
	return nil
}

// Optional wraps inner so that a null or absent input builds to zero bytes
// instead of failing.
func Optional(inner Model) Model {
	if inner == nil {
		panic("baf: Optional needs an inner model")
	}
	return &optionalModel{inner: inner}
}

type optionalModel struct {
	inner Model
}

func (m *optionalModel) TypeName() string        { return "Optional[" + m.inner.TypeName() + "]" }
func (m *optionalModel) StaticSize() (int, bool) { return 0, false }

func (m *optionalModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &optionalDatum{}
	d.init(b, m, parent, name, d)
	return d
}

type optionalDatum struct {
	base
	item Datum
}

func (d *optionalDatum) items() []Datum {
	if d.item == nil {
		return nil
	}
	return []Datum{d.item}
}

func (d *optionalDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	m := d.model.(*optionalModel)
	if in.entries == nil && (!in.hasVal || in.val.IsNull()) {
		d.b.complete(&d.base, []byte{})
		return nil
	}
	if d.item == nil {
		d.item = m.inner.instantiate(d.b, d.self, d.name)
	}
	if err := d.item.build(in); err != nil {
		if isPending(err) {
			d.state = Pending
			if !isChildrenPending(err) {
				d.b.stall(d.item, err)
			}
			return childrenPending(datumPath(d.self))
		}
		return err
	}
	data, err := d.item.Bytes()
	if err != nil {
		return err
	}
	d.b.complete(&d.base, data)
	return nil
}

// Align returns a model that emits zero bytes up to the next multiple of
// multiple. It takes no input; its size resolves once its own offset does.
func Align(multiple int) Model {
	if multiple < 1 {
		panic("baf: Align multiple must be at least 1")
	}
	return &alignModel{multiple: multiple}
}

type alignModel struct {
	multiple int
}

func (m *alignModel) TypeName() string { return "Align" }

func (m *alignModel) StaticSize() (int, bool) {
	if m.multiple == 1 {
		return 0, true
	}
	return 0, false
}

func (m *alignModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &alignDatum{}
	d.init(b, m, parent, name, d)
	return d
}

type alignDatum struct {
	base
}

func (d *alignDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	off, err := d.Offset()
	if err != nil {
		d.state = Pending
		return err
	}
	m := d.model.(*alignModel)
	pad := (m.multiple - off%m.multiple) % m.multiple
	d.b.complete(&d.base, make([]byte, pad))
	return nil
}

// AnyBlock is the type bound for polymorphic fields: the field's concrete
// block model is chosen at build time by a setter returning WithModel, or by
// per-element array entries.
var AnyBlock Model = anyBlockModel{}

type anyBlockModel struct{}

func (anyBlockModel) TypeName() string        { return "Block" }
func (anyBlockModel) StaticSize() (int, bool) { return 0, false }

func (m anyBlockModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &abstractDatum{}
	d.init(b, m, parent, name, d)
	return d
}

// abstractDatum is the placeholder behind an unresolved AnyBlock slot. It
// only exists so sibling walks stay well-formed; building it directly means
// no setter resolved a concrete model.
type abstractDatum struct {
	base
}

func (d *abstractDatum) build(in input) error {
	return newError(TypeMismatch, "abstract Block field %q needs a setter resolving a concrete model", d.name)
}

// checkAlternate validates a dynamically-resolved model against the declared
// field model, which acts purely as a type bound.
func checkAlternate(declared, alt Model) error {
	if alt == declared {
		return nil
	}
	if _, ok := declared.(anyBlockModel); ok {
		if _, isBlock := alt.(*BlockModel); !isBlock {
			return newError(TypeMismatch, "dynamically-resolved model %s is not a Block", alt.TypeName())
		}
		return nil
	}
	return newError(TypeMismatch, "field declared as %s cannot resolve to %s", declared.TypeName(), alt.TypeName())
}
