package di

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerBuilder_Contains(t *testing.T) {
	b := Builder()
	AddTransient[int](b, func() int { return 1 })

	if !b.Contains(IdentityOf[int]()) {
		t.Error("assertion failed")
	}

	if b.Contains(IdentityOf[*int]()) {
		t.Error("assertion failed")
	}

	if b.Contains(IdentityOf[string]()) {
		t.Error("assertion failed")
	}
}

func TestContainerBuilder_Remove(t *testing.T) {
	b := Builder()
	AddTransient[int](b, func() int { return 1 })
	AddTransient[int](b, func() int { return 2 })
	AddTransient[string](b, func() string { return "a" })

	if !b.Contains(IdentityOf[int]()) {
		t.Error("assertion failed")
	}

	b.Remove(IdentityOf[int]())

	if b.Contains(IdentityOf[int]()) {
		t.Error("assertion failed")
	}

	if !b.Contains(IdentityOf[string]()) {
		t.Error("assertion failed")
	}

	c := b.Build()

	if _, err := TryGet[int](c); err == nil {
		t.Error("assertion failed")
	}

	if _, err := TryGet[string](c); err != nil {
		t.Error("assertion failed")
	}
}

func TestContainerBuilder_KeyedIdentities(t *testing.T) {
	b := Builder()
	AddKeyedTransient[int](b, "a", func() int { return 1 })
	AddKeyedTransient[int](b, struct{}{}, func() int { return 2 })
	AddTransient[int](b, func() int { return 3 })

	require.True(t, b.Contains(KeyedIdentityOf[int]("a")))
	require.True(t, b.Contains(KeyedIdentityOf[int](struct{}{})))
	require.True(t, b.Contains(IdentityOf[int]()))
	require.False(t, b.Contains(KeyedIdentityOf[int]("")))

	require.Equal(t, []int{1}, b.IndicesOf(KeyedIdentityOf[int](struct{}{})))
}

func TestContainerBuilder_TryAddAndSet(t *testing.T) {
	b := Builder()
	first := Transient[int](func() int { return 1 })
	second := Transient[int](func() int { return 2 })

	require.True(t, b.TryAdd(first))
	require.False(t, b.TryAdd(second))
	require.Equal(t, 1, b.Len())

	b.Set(0, second)
	require.Same(t, second, b.At(0))
	require.Equal(t, 2, Get[int](b.Build()))
}

func TestContainerBuilder_DescriptorsIsACopy(t *testing.T) {
	b := Builder()
	AddTransient[int](b, func() int { return 1 })

	ds := b.Descriptors()
	ds[0] = Transient[string](func() string { return "" })

	require.Equal(t, IdentityOf[int](), b.At(0).Identity())
}
