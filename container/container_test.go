package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollOrderAndOverwrite(t *testing.T) {
	f := NewFile()
	blk := f.CreateBlock("b", "recording")

	blk.CreateDataArray("a", "timeseries", nil)
	blk.CreateDataArray("b", "timeseries", nil)
	blk.CreateDataArray("c", "timeseries", nil)
	assert.Equal(t, []string{"a", "b", "c"}, blk.DataArrays().Names())

	// Same name replaces in place, keeping the position.
	blk.CreateDataArray("b", "spiketrain", nil)
	assert.Equal(t, []string{"a", "b", "c"}, blk.DataArrays().Names())
	da, _ := blk.DataArrays().Get("b")
	assert.Equal(t, "spiketrain", da.Type)

	// Delete preserves the order of the rest.
	assert.True(t, blk.DataArrays().Delete("b"))
	assert.False(t, blk.DataArrays().Delete("b"))
	assert.Equal(t, []string{"a", "c"}, blk.DataArrays().Names())
}

func TestTagReferences(t *testing.T) {
	f := NewFile()
	blk := f.CreateBlock("b", "recording")
	da1 := blk.CreateDataArray("one", "timeseries", nil)
	da2 := blk.CreateDataArray("two", "timeseries", nil)

	tag := blk.CreateTag("t", "segment", []float64{0})
	tag.AddReference(da1)
	tag.AddReference(da2)
	tag.AddReference(da1) // no duplicate

	require.Len(t, tag.References(), 2)
	assert.True(t, tag.HasReference("one"))

	assert.True(t, tag.RemoveReference("one"))
	assert.False(t, tag.RemoveReference("one"))
	require.Len(t, tag.References(), 1)
	assert.Equal(t, "two", tag.References()[0].Name)
}

func TestDataArraySourceLinks(t *testing.T) {
	f := NewFile()
	blk := f.CreateBlock("b", "recording")
	src := blk.CreateSource("s", "channelgroup")
	da := blk.CreateDataArray("d", "timeseries", nil)

	da.AddSource(src)
	da.AddSource(src) // no duplicate
	require.Len(t, da.Sources(), 1)
	assert.True(t, da.HasSource("s"))

	assert.True(t, da.RemoveSource("s"))
	assert.False(t, da.RemoveSource("s"))
	assert.Empty(t, da.Sources())
}

func TestSourceNesting(t *testing.T) {
	f := NewFile()
	blk := f.CreateBlock("b", "recording")
	cg := blk.CreateSource("group", "channelgroup")
	cg.CreateSource("unit-1", "unit")
	cg.CreateSource("unit-2", "unit")

	assert.Equal(t, []string{"unit-1", "unit-2"}, cg.Sources().Names())
	_, ok := cg.Sources().Get("unit-1")
	assert.True(t, ok)
}

func TestSectionTree(t *testing.T) {
	f := NewFile()

	sec := f.GetOrCreateSection("root", "recording")
	assert.Same(t, sec, f.GetOrCreateSection("root", "recording"))

	child := sec.GetOrCreateSection("child", "segments")
	assert.Same(t, child, sec.GetOrCreateSection("child", "segments"))

	sec.SetProp("p", []Value{IntValue(1)})
	p, ok := sec.Prop("p")
	require.True(t, ok)
	assert.Equal(t, int64(1), p.Values[0].I)

	// SetProp replaces.
	sec.SetProp("p", []Value{IntValue(2)})
	p, _ = sec.Prop("p")
	assert.Equal(t, int64(2), p.Values[0].I)
	assert.Equal(t, 1, sec.Props().Len())
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, "x", StringValue("x").Any())
	assert.Equal(t, int64(7), IntValue(7).Any())
	assert.Equal(t, 1.5, FloatValue(1.5).Any())
	assert.Equal(t, true, BoolValue(true).Any())
	assert.Nil(t, Value{}.Any())
}

func TestValuesEqual(t *testing.T) {
	a := []Value{StringValue("x"), IntValue(1)}
	assert.True(t, ValuesEqual(a, []Value{StringValue("x"), IntValue(1)}))
	assert.False(t, ValuesEqual(a, []Value{StringValue("x")}))
	assert.False(t, ValuesEqual(a, []Value{StringValue("x"), IntValue(2)}))
}
