package baf

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func settingsModel() *BlockModel {
	return NewBlock("LevelSettings",
		Field{Name: "world_num", Model: U8},
		Field{Name: "level_num", Model: U8},
		Field{Name: "setting", Model: U8},
		Field{Name: "bgm_id", Model: U8},
	)
}

func settingsInput() cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"world_num": cty.NumberIntVal(2),
		"level_num": cty.NumberIntVal(1),
		"setting":   cty.NumberIntVal(0),
		"bgm_id":    cty.NumberIntVal(7),
	})
}

func TestBlockFlatScalars(t *testing.T) {
	d, err := Build(context.Background(), settingsModel(), settingsInput())
	require.NoError(t, err)

	data, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x00, 0x07}, data)

	size, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, 4, size)
}

func TestBlockMissingField(t *testing.T) {
	model := NewBlock("Pair",
		Field{Name: "a", Model: U8},
		Field{Name: "b", Model: U8},
	)
	in := cty.ObjectVal(map[string]cty.Value{"a": cty.NumberIntVal(1)})

	_, err := Build(context.Background(), model, in)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, MissingField, be.Kind)
	assert.Equal(t, []string{"Pair -> b: U8"}, be.Trail)
}

func TestBlockDefault(t *testing.T) {
	magic := Raw([]byte("LV01"))
	model := NewBlock("Header",
		Field{Name: "magic", Model: BytesN(4), Default: &magic},
		Field{Name: "flags", Model: U8},
	)
	in := cty.ObjectVal(map[string]cty.Value{"flags": cty.NumberIntVal(3)})

	d, err := Build(context.Background(), model, in)
	require.NoError(t, err)
	data, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{'L', 'V', '0', '1', 0x03}, data)
}

func TestBlockExplicitInputBeatsDefault(t *testing.T) {
	magic := Raw([]byte("LV01"))
	model := NewBlock("Header",
		Field{Name: "magic", Model: BytesN(4), Default: &magic},
	)
	in := cty.ObjectVal(map[string]cty.Value{"magic": cty.StringVal("LV02")})

	d, err := Build(context.Background(), model, in)
	require.NoError(t, err)
	data, err := d.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("LV02"), data)
}

func TestBlockPreprocess(t *testing.T) {
	t.Run("transforms the input", func(t *testing.T) {
		model := NewBlock("Doubler",
			Field{
				Name:  "n",
				Model: U8,
				Preprocess: func(v cty.Value) (cty.Value, error) {
					n, _ := v.AsBigFloat().Int64()
					return cty.NumberIntVal(n * 2), nil
				},
			},
		)
		in := cty.ObjectVal(map[string]cty.Value{"n": cty.NumberIntVal(21)})
		d, err := Build(context.Background(), model, in)
		require.NoError(t, err)
		data, err := d.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{42}, data)
	})

	t.Run("rejection surfaces as ValidationError", func(t *testing.T) {
		model := NewBlock("Checked",
			Field{
				Name:  "n",
				Model: U8,
				Preprocess: func(v cty.Value) (cty.Value, error) {
					return cty.NilVal, fmt.Errorf("value not allowed")
				},
			},
		)
		in := cty.ObjectVal(map[string]cty.Value{"n": cty.NumberIntVal(1)})
		_, err := Build(context.Background(), model, in)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, ValidationError, be.Kind)
		assert.Equal(t, []string{"Checked -> n: U8"}, be.Trail)
	})
}

func TestBlockRejectsNonMapping(t *testing.T) {
	_, err := Build(context.Background(), settingsModel(), cty.NumberIntVal(5))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, TypeMismatch, be.Kind)
}

func TestNestedBlockBreadcrumb(t *testing.T) {
	inner := NewBlock("Inner", Field{Name: "n", Model: U8})
	outer := NewBlock("Outer", Field{Name: "inner", Model: inner})
	in := cty.ObjectVal(map[string]cty.Value{
		"inner": cty.ObjectVal(map[string]cty.Value{"n": cty.StringVal("x")}),
	})

	_, err := Build(context.Background(), outer, in)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, TypeMismatch, be.Kind)
	assert.Equal(t, []string{"Outer -> inner: Inner", "Inner -> n: U8"}, be.Trail)
}

func TestBlockDefinitionPanics(t *testing.T) {
	t.Run("duplicate field name", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBlock("Dup", Field{Name: "a", Model: U8}, Field{Name: "a", Model: U8})
		})
	})

	t.Run("field without model", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBlock("NoModel", Field{Name: "a"})
		})
	})

	t.Run("setter for unknown field", func(t *testing.T) {
		model := NewBlock("Known", Field{Name: "a", Model: U8})
		assert.Panics(t, func() {
			model.OnBuild("missing", func(*BuildContext) (SetterResult, error) {
				return Val(Int(0)), nil
			})
		})
	})

	t.Run("duplicate setter", func(t *testing.T) {
		model := NewBlock("Known", Field{Name: "a", Model: U8})
		setter := func(*BuildContext) (SetterResult, error) { return Val(Int(0)), nil }
		model.OnBuild("a", setter)
		assert.Panics(t, func() { model.OnBuild("a", setter) })
	})
}

func TestSetterErrorWrapsCause(t *testing.T) {
	boom := fmt.Errorf("boom")
	model := NewBlock("Fails", Field{Name: "a", Model: U8}).
		OnBuild("a", func(*BuildContext) (SetterResult, error) {
			return SetterResult{}, boom
		})

	_, err := Build(context.Background(), model, cty.EmptyObjectVal)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, SetterError, be.Kind)
	assert.ErrorIs(t, err, boom)
}
