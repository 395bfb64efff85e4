package baf

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
)

// Bytes returns a model for a raw byte payload of any length. It accepts
// byte values (see Raw) and strings, which encode as UTF-8.
func Bytes() Model { return &bytesModel{size: -1} }

// BytesN returns a Bytes model that requires exactly n bytes of payload.
func BytesN(n int) Model {
	if n < 0 {
		panic("baf: BytesN size must not be negative")
	}
	return &bytesModel{size: n}
}

type bytesModel struct {
	size int // -1 when dynamic
}

func (m *bytesModel) TypeName() string { return "Bytes" }

func (m *bytesModel) StaticSize() (int, bool) {
	if m.size >= 0 {
		return m.size, true
	}
	return 0, false
}

func (m *bytesModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &bytesDatum{}
	d.init(b, m, parent, name, d)
	return d
}

type bytesDatum struct {
	base
}

func (d *bytesDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	m := d.model.(*bytesModel)
	if !in.hasVal || in.val.IsNull() {
		return newError(TypeMismatch, "Bytes expects bytes or string, received %s", inputKind(in))
	}
	var payload []byte
	switch {
	case isBytes(in.val):
		payload = append([]byte(nil), rawBytes(in.val)...)
	case in.val.Type() == cty.String:
		payload = []byte(in.val.AsString())
	default:
		return newError(TypeMismatch, "Bytes expects bytes or string, received %s", friendlyType(in.val))
	}
	if m.size >= 0 && len(payload) != m.size {
		return newError(ValidationError, "expected %d bytes but data is %d bytes", m.size, len(payload))
	}
	d.b.complete(&d.base, payload)
	return nil
}

// File returns a model that reads an external file verbatim; its bytes are
// the file's contents. Relative paths resolve against the build's root path.
func File() Model { return fileModel{} }

type fileModel struct{}

func (fileModel) TypeName() string        { return "File" }
func (fileModel) StaticSize() (int, bool) { return 0, false }

func (m fileModel) instantiate(b *build, parent Datum, name string) Datum {
	d := &fileDatum{}
	d.init(b, m, parent, name, d)
	return d
}

type fileDatum struct {
	base
}

func (d *fileDatum) build(in input) error {
	if d.state == Complete {
		return nil
	}
	if !in.hasVal || in.val.IsNull() || in.val.Type() != cty.String {
		return newError(TypeMismatch, "File expects a path string, received %s", inputKind(in))
	}
	path := in.val.AsString()
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.b.rootPath, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newError(FileNotFound, "file does not exist: %s", path)
		}
		return &Error{Kind: IOError, Message: err.Error(), Cause: err}
	}
	d.b.complete(&d.base, data)
	return nil
}

func inputKind(in input) string {
	if !in.hasVal {
		return "no input"
	}
	return friendlyType(in.val)
}
