package port

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort_ZeroValue(t *testing.T) {
	var p Port[int]
	assert.Equal(t, 0, p.Value())
	assert.False(t, p.Linked())
	assert.Nil(t, p.Source())

	p.SetValue(4)
	assert.Equal(t, 4, p.Value())
	assert.Equal(t, reflect.TypeFor[int](), p.ValueType())
}

func TestPort_LinkReadsSourceLazily(t *testing.T) {
	a := New(1)
	b := New(0)

	require.NoError(t, a.Link(b))
	assert.True(t, b.Linked())
	assert.Equal(t, 1, b.Value())

	a.SetValue(7)
	assert.Equal(t, 7, b.Value(), "linked port must observe source writes made after linking")
}

func TestPort_WriteToLinkedPortKeepsReadingSource(t *testing.T) {
	a := New(3)
	b := New(0)
	require.NoError(t, a.Link(b))

	b.SetValue(99)
	assert.Equal(t, 3, b.Value())
	assert.Equal(t, 99, b.Default())

	b.Unlink()
	assert.Equal(t, 99, b.Value())
}

func TestPort_LastLinkWins(t *testing.T) {
	a := New(1)
	c := New(2)
	b := New(0)

	require.NoError(t, a.Link(b))
	require.NoError(t, c.Link(b))

	assert.Equal(t, 2, b.Value())
	a.SetValue(10)
	assert.Equal(t, 2, b.Value())
	assert.Same(t, c, b.Source())
}

func TestPort_ChainResolvesRecursively(t *testing.T) {
	a := New("x")
	b := New("")
	c := New("")
	require.NoError(t, a.Link(b))
	require.NoError(t, b.Link(c))

	a.SetValue("y")
	assert.Equal(t, "y", c.Value())
}

func TestPort_LinkErrors(t *testing.T) {
	a := New(1)
	assert.Error(t, a.Link(nil))
	assert.Error(t, a.Link(a))

	type opaque struct{ v int }
	src := New(opaque{v: 1})
	dst := New(0)
	err := src.Link(dst)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, reflect.TypeFor[opaque](), convErr.From)
	assert.Equal(t, reflect.TypeFor[int](), convErr.To)
	assert.False(t, dst.Linked())
}

func TestPort_CrossTypeLinks(t *testing.T) {
	t.Run("float to int truncates", func(t *testing.T) {
		src := New(2.9)
		dst := New(0)
		require.NoError(t, src.Link(dst))
		assert.Equal(t, 2, dst.Value())

		src.SetValue(-1.5)
		assert.Equal(t, -1, dst.Value())
	})

	t.Run("int to string", func(t *testing.T) {
		src := New(42)
		dst := New("")
		require.NoError(t, src.Link(dst))
		assert.Equal(t, "42", dst.Value())
	})

	t.Run("string to float", func(t *testing.T) {
		src := New("2.5")
		dst := New(0.0)
		require.NoError(t, src.Link(dst))
		assert.Equal(t, 2.5, dst.Value())

		src.SetValue("not a number")
		assert.Equal(t, 0.0, dst.Value())
	})

	t.Run("boxing into any", func(t *testing.T) {
		src := New(5)
		dst := New[any](nil)
		require.NoError(t, src.Link(dst))
		assert.Equal(t, 5, dst.Value())
	})

	t.Run("unboxing from any", func(t *testing.T) {
		src := New[any](3)
		dst := New(0.0)
		require.NoError(t, src.Link(dst))
		assert.Equal(t, 3.0, dst.Value())

		src.SetValue(1.25)
		assert.Equal(t, 1.25, dst.Value())

		src.SetValue(struct{}{})
		assert.Equal(t, 0.0, dst.Value())
	})
}

func TestPort_Set(t *testing.T) {
	p := New(0)
	require.NoError(t, p.Set(3.7))
	assert.Equal(t, 3, p.Value())

	require.NoError(t, p.Set(nil))
	assert.Equal(t, 0, p.Value())

	assert.Error(t, p.Set([]string{"nope"}))
}

func TestMakeArray(t *testing.T) {
	ports := MakeArray[int](3)
	require.Len(t, ports, 3)
	for i, p := range ports {
		p.SetValue(i + 1)
	}
	assert.Equal(t, []int{1, 2, 3}, Values(ports))

	handles := Handles(ports)
	require.Len(t, handles, 3)
	assert.Equal(t, 2, handles[1].Get())
}
