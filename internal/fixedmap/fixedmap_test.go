package fixedmap

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type name string

func (n name) String() string { return string(n) }

func TestIndexMapInsertAndGet(t *testing.T) {
	m := New[name, int](4, StringHash[name])

	for i, k := range []name{"a", "b", "c"} {
		idx, err := m.Insert(k, i*10)
		require.NoError(t, err)
		assert.Equal(t, i, idx, "indices follow insertion order")
	}

	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = m.Get("z")
	assert.False(t, ok)
	assert.Nil(t, m.Ptr("z"))
	assert.False(t, m.Contains("z"))

	k, p := m.At(2)
	assert.Equal(t, name("c"), k)
	assert.Equal(t, 20, *p)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 4, m.Cap())
}

func TestIndexMapReplace(t *testing.T) {
	m := New[name, string](1, StringHash[name])

	_, err := m.Insert("a", "first")
	require.NoError(t, err)
	idx, err := m.Insert("a", "second")
	require.NoError(t, err, "replacing a key never needs room")
	assert.Equal(t, 0, idx)

	v, _ := m.Get("a")
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, m.Len())
}

func TestIndexMapFull(t *testing.T) {
	m := New[name, int](2, StringHash[name])
	_, err := m.Insert("a", 1)
	require.NoError(t, err)
	_, err = m.Insert("b", 2)
	require.NoError(t, err)

	_, err = m.Insert("c", 3)
	assert.ErrorIs(t, err, ErrFull)
	assert.False(t, m.Contains("c"))
	assert.Equal(t, 2, m.Len())
}

func TestIndexMapCollisions(t *testing.T) {
	constant := func(name) uint64 { return 7 }
	m := New[name, int](16, constant)

	for i := 0; i < 16; i++ {
		_, err := m.Insert(name(strconv.Itoa(i)), i)
		require.NoError(t, err)
	}
	for i := 0; i < 16; i++ {
		v, ok := m.Get(name(strconv.Itoa(i)))
		require.True(t, ok, "key %d", i)
		assert.Equal(t, i, v)
	}
	assert.False(t, m.Contains("16"))
}

func TestIndexMapPtrIsStable(t *testing.T) {
	m := New[name, []int](3, StringHash[name])
	_, err := m.Insert("a", nil)
	require.NoError(t, err)

	p := m.Ptr("a")
	_, err = m.Insert("b", nil)
	require.NoError(t, err)
	_, err = m.Insert("c", nil)
	require.NoError(t, err)

	*p = append(*p, 1)
	v, _ := m.Get("a")
	assert.Equal(t, []int{1}, v)
}

func TestIndexMapZeroCapacity(t *testing.T) {
	m := New[name, int](0, StringHash[name])
	_, err := m.Insert("a", 1)
	assert.ErrorIs(t, err, ErrFull)
	assert.False(t, m.Contains("a"))
}

func TestVec(t *testing.T) {
	v := NewVec(make([]int, 2))
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, 2, v.Cap())

	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	assert.ErrorIs(t, v.Push(3), ErrFull)
	assert.Equal(t, []int{1, 2}, v.Items())

	var zero Vec[int]
	assert.ErrorIs(t, zero.Push(1), ErrFull)
}

func TestPoolDoesNotOverlap(t *testing.T) {
	vecs := Pool[int](3, 2)
	require.Len(t, vecs, 3)

	for i := range vecs {
		require.NoError(t, vecs[i].Push(i))
		require.NoError(t, vecs[i].Push(i*10))
		assert.ErrorIs(t, vecs[i].Push(-1), ErrFull)
	}
	assert.Equal(t, []int{0, 0}, vecs[0].Items())
	assert.Equal(t, []int{1, 10}, vecs[1].Items())
	assert.Equal(t, []int{2, 20}, vecs[2].Items())

	empty := Pool[int](2, 0)
	assert.ErrorIs(t, empty[0].Push(1), ErrFull)
}

func TestStringHashStable(t *testing.T) {
	assert.Equal(t, StringHash(name("idle")), StringHash(name("idle")))
	assert.NotEqual(t, StringHash(name("idle")), StringHash(name("done")))
}
