package baf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildTOML(t *testing.T) {
	t.Run("flat scalars", func(t *testing.T) {
		path := writeSource(t, "level.toml", `
world_num = 2
level_num = 1
setting = 0
bgm_id = 7
`)
		d, err := BuildTOML(context.Background(), settingsModel(), path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x07}, data)
	})

	t.Run("nested tables and arrays", func(t *testing.T) {
		model := NewBlock("Save",
			Field{Name: "meta", Model: NewBlock("Meta", Field{Name: "slot", Model: U8})},
			Field{Name: "checkpoints", Model: Array(U16)},
		)
		path := writeSource(t, "save.toml", `
checkpoints = [60, 180, 320, 400]

[meta]
slot = 3
`)
		d, err := BuildTOML(context.Background(), model, path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x03, 0x3c, 0x00, 0xb4, 0x00, 0x40, 0x01, 0x90, 0x01}, data)
	})

	t.Run("malformed source", func(t *testing.T) {
		path := writeSource(t, "broken.toml", `world_num = = 2`)
		_, err := BuildTOML(context.Background(), settingsModel(), path)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, ParseError, be.Kind)
	})

	t.Run("root path defaults to source directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0xaa}, 0o644))
		path := filepath.Join(dir, "input.toml")
		require.NoError(t, os.WriteFile(path, []byte(`blob = "blob.bin"`+"\n"), 0o644))

		model := NewBlock("WithFile", Field{Name: "blob", Model: File()})
		d, err := BuildTOML(context.Background(), model, path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa}, data)
	})
}

func TestBuildJSON(t *testing.T) {
	t.Run("flat scalars", func(t *testing.T) {
		path := writeSource(t, "level.json", `{"world_num":2,"level_num":1,"setting":0,"bgm_id":7}`)
		d, err := BuildJSON(context.Background(), settingsModel(), path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x07}, data)
	})

	t.Run("null means absent for optional", func(t *testing.T) {
		model := NewBlock("WithOpt",
			Field{Name: "x", Model: U8},
			Field{Name: "y", Model: Optional(U16)},
		)
		path := writeSource(t, "opt.json", `{"x":1,"y":null}`)
		d, err := BuildJSON(context.Background(), model, path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01}, data)
	})

	t.Run("fractional number rejected by integer codec", func(t *testing.T) {
		path := writeSource(t, "frac.json", `{"world_num":2.5,"level_num":1,"setting":0,"bgm_id":7}`)
		_, err := BuildJSON(context.Background(), settingsModel(), path)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, TypeMismatch, be.Kind)
	})

	t.Run("malformed source", func(t *testing.T) {
		path := writeSource(t, "broken.json", `{"world_num": }`)
		_, err := BuildJSON(context.Background(), settingsModel(), path)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, ParseError, be.Kind)
	})
}

func TestBuildHCL(t *testing.T) {
	t.Run("attributes form the input mapping", func(t *testing.T) {
		path := writeSource(t, "level.hcl", `
world_num = 2
level_num = 1
setting   = 0
bgm_id    = 7
`)
		d, err := BuildHCL(context.Background(), settingsModel(), path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x07}, data)
	})

	t.Run("object and list expressions", func(t *testing.T) {
		model := NewBlock("Save",
			Field{Name: "meta", Model: NewBlock("Meta", Field{Name: "slot", Model: U8})},
			Field{Name: "checkpoints", Model: Array(U16)},
		)
		path := writeSource(t, "save.hcl", `
meta        = { slot = 3 }
checkpoints = [60, 180, 320, 400]
`)
		d, err := BuildHCL(context.Background(), model, path)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x03, 0x3c, 0x00, 0xb4, 0x00, 0x40, 0x01, 0x90, 0x01}, data)
	})

	t.Run("malformed source", func(t *testing.T) {
		path := writeSource(t, "broken.hcl", `world_num = `)
		_, err := BuildHCL(context.Background(), settingsModel(), path)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, ParseError, be.Kind)
	})
}
