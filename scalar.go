package baf

import (
	"encoding/binary"
	"math/big"
)

// Fixed-width integer models. Scalars have static size, accept exact
// integers within their range, and encode as two's-complement in the build's
// byte order.
var (
	U8  Model = &scalarModel{name: "U8", width: 1}
	U16 Model = &scalarModel{name: "U16", width: 2}
	U32 Model = &scalarModel{name: "U32", width: 4}
	U64 Model = &scalarModel{name: "U64", width: 8}
	S8  Model = &scalarModel{name: "S8", width: 1, signed: true}
	S16 Model = &scalarModel{name: "S16", width: 2, signed: true}
	S32 Model = &scalarModel{name: "S32", width: 4, signed: true}
	S64 Model = &scalarModel{name: "S64", width: 8, signed: true}
)

type scalarModel struct {
	name   string
	width  int
	signed bool
}

func (m *scalarModel) TypeName() string        { return m.name }
func (m *scalarModel) StaticSize() (int, bool) { return m.width, true }

func (m *scalarModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &scalarDatum{}
	d.init(b, m, parent, name, d)
	return d
}

// bounds returns the inclusive value range of this codec.
func (m *scalarModel) bounds() (*big.Int, *big.Int) {
	bits := uint(m.width * 8)
	one := big.NewInt(1)
	if m.signed {
		max := new(big.Int).Lsh(one, bits-1)
		min := new(big.Int).Neg(max)
		return min, max.Sub(max, one)
	}
	max := new(big.Int).Lsh(one, bits)
	return new(big.Int), max.Sub(max, one)
}

type scalarDatum struct {
	base
	value *big.Int
}

func (d *scalarDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	m := d.model.(*scalarModel)
	if !in.hasVal {
		return newError(TypeMismatch, "%s expects an integer, received no input", m.name)
	}
	v, err := integerValue(in.val, m.name)
	if err != nil {
		return err
	}
	min, max := m.bounds()
	if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
		return newError(TypeMismatch, "value %s outside of %s range, must be %s to %s", v, m.name, min, max)
	}
	d.value = v
	d.b.complete(&d.base, encodeInt(v, m.width, d.b.order))
	return nil
}

// encodeInt packs v as a fixed-width two's-complement integer. The range
// check above guarantees v fits in width bytes.
func encodeInt(v *big.Int, width int, order binary.ByteOrder) []byte {
	var u uint64
	if v.Sign() < 0 {
		u = uint64(v.Int64())
	} else {
		u = v.Uint64()
	}
	buf := make([]byte, width)
	switch width {
	case 1:
		buf[0] = byte(u)
	case 2:
		order.PutUint16(buf, uint16(u))
	case 4:
		order.PutUint32(buf, uint32(u))
	case 8:
		order.PutUint64(buf, u)
	}
	return buf
}
