package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarAccessors(t *testing.T) {
	require.Equal(t, "hi", mustStr(t, NewStr("hi")))
	n, ok := NewInt(42).Int()
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	b, ok := NewBool(true).Bool()
	require.True(t, ok)
	require.True(t, b)

	_, ok = NewStr("x").Int()
	require.False(t, ok, "Int() must fail on a non-int Value")
}

func mustStr(t *testing.T, v Value) string {
	t.Helper()
	s, ok := v.Str()
	require.True(t, ok)
	return s
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(NewStr("a"), NewStr("a")))
	require.False(t, Equal(NewStr("a"), NewStr("b")))
	require.False(t, Equal(NewStr("a"), NewInt(1)))

	l1 := NewList([]Value{NewInt(1), NewInt(2)})
	l2 := NewList([]Value{NewInt(1), NewInt(2)})
	l3 := NewList([]Value{NewInt(1), NewInt(3)})
	require.True(t, Equal(l1, l2))
	require.False(t, Equal(l1, l3))
}

func TestListImmutability(t *testing.T) {
	items := []Value{NewInt(1), NewInt(2)}
	l := NewList(items)
	items[0] = NewInt(99)

	got, ok := l.List()
	require.True(t, ok)
	n, _ := got[0].Int()
	require.Equal(t, int64(1), n, "NewList must copy its backing slice")
}

func TestListify(t *testing.T) {
	nested, err := Listify(NewList([]Value{NewInt(1), NewList([]Value{NewInt(2), NewInt(3)})}))
	require.NoError(t, err)
	require.Len(t, nested, 2, "a list is returned as given; nested lists are not flattened")

	split, err := Listify(NewStr("a,b"))
	require.NoError(t, err)
	require.Len(t, split, 2)

	_, err = Listify(NewInt(5))
	require.Error(t, err, "a value that is neither a list nor a string is rejected")
}

func TestToNative(t *testing.T) {
	require.Equal(t, "true", NewBool(true).ToNative())
	require.Equal(t, "7", NewInt(7).ToNative())
	require.Equal(t, "x", NewStr("x").ToNative())
}
