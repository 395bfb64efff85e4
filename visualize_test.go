package baf

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestVisualize(t *testing.T) {
	t.Run("nested blocks", func(t *testing.T) {
		d, err := Build(context.Background(), levelFileModel(), levelFileInput())
		require.NoError(t, err)

		want := "" +
			"0x0 (0x20) LevelFile\n" +
			"  0x0 (0x4) version: Bytes\n" +
			"  0x4 (0x2) data_offset: U16\n" +
			"  0x6 (0x12) header: LevelHeader\n" +
			"    0x6 (0x1) world_num: U8\n" +
			"    0x7 (0x1) level_num: U8\n" +
			"    0x8 (0x1) setting: U8\n" +
			"    0x9 (0x1) bgm_id: U8\n" +
			"    0xa (0x1) name_length: U8\n" +
			"    0xb (0xd) name: Bytes\n" +
			"  0x18 (0x8) data: LevelData\n" +
			"    0x18 (0x2) width: U16\n" +
			"    0x1a (0x2) height: U16\n" +
			"    0x1c (0x2) spawn_x: U16\n" +
			"    0x1e (0x2) spawn_y: U16\n"

		got := Visualize(d)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("tree mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scalar array collapses to one line", func(t *testing.T) {
		model := NewBlock("Save",
			Field{Name: "slot", Model: U8},
			Field{Name: "checkpoints", Model: Array(U16)},
		)
		in := cty.ObjectVal(map[string]cty.Value{
			"slot":        cty.NumberIntVal(3),
			"checkpoints": numList(60, 180, 320, 400),
		})
		d, err := Build(context.Background(), model, in)
		require.NoError(t, err)

		want := "" +
			"0x0 (0x9) Save\n" +
			"  0x0 (0x1) slot: U8\n" +
			"  0x1 (0x8) checkpoints: Array[U16] (4)\n" +
			"    0x1 ...\n"
		got := Visualize(d)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("tree mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty optional is omitted", func(t *testing.T) {
		model := NewBlock("WithOpt",
			Field{Name: "x", Model: U8},
			Field{Name: "y", Model: Optional(U16)},
		)
		in := cty.ObjectVal(map[string]cty.Value{"x": cty.NumberIntVal(1)})
		d, err := Build(context.Background(), model, in)
		require.NoError(t, err)

		got := Visualize(d)
		assert.NotContains(t, got, "y:")
		assert.Contains(t, got, "x: U8")
	})
}
