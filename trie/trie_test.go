package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrie_BasicPutGetRemove(t *testing.T) {
	t0 := New()
	t1 := t0.Put("ab", 1)
	t2 := t1.Put("abc", 2)
	t3 := t2.Remove("ab")

	v, ok := Get[int](t1, "ab")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = Get[int](t2, "ab")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = Get[int](t2, "abc")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = Get[int](t3, "ab")
	assert.False(t, ok)

	v, ok = Get[int](t3, "abc")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = Get[int](t1, "abc")
	assert.False(t, ok)
}

func TestTrie_EmptyKey(t *testing.T) {
	t0 := New()
	t1 := t0.Put("", "root-value")
	t2 := t1.Put("a", "child")

	v, ok := Get[string](t1, "")
	assert.True(t, ok)
	assert.Equal(t, "root-value", v)

	v, ok = Get[string](t2, "")
	assert.True(t, ok)
	assert.Equal(t, "root-value", v, "put at a child key must not disturb the root value")

	v, ok = Get[string](t2, "a")
	assert.True(t, ok)
	assert.Equal(t, "child", v)
}

func TestTrie_TypeMismatchIsAMiss(t *testing.T) {
	t1 := New().Put("k", 42)

	_, ok := Get[string](t1, "k")
	assert.False(t, ok, "a type mismatch is a miss, not a panic or error")

	v, ok := Get[int](t1, "k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTrie_GetOnEmptyTrie(t *testing.T) {
	_, ok := Get[int](New(), "anything")
	assert.False(t, ok)
}

func TestTrie_PutDoesNotDisturbUnrelatedKeys(t *testing.T) {
	t1 := New().Put("cat", 1).Put("car", 2).Put("dog", 3)
	t2 := t1.Put("cat", 99)

	v, _ := Get[int](t2, "cat")
	assert.Equal(t, 99, v)
	v, _ = Get[int](t2, "car")
	assert.Equal(t, 2, v)
	v, _ = Get[int](t2, "dog")
	assert.Equal(t, 3, v)
}

func TestTrie_RemoveNonexistentKeyIsANoop(t *testing.T) {
	t1 := New().Put("a", 1)
	t2 := t1.Remove("zzz")

	v, ok := Get[int](t2, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTrie_RemoveDeletesChildlessInternalNodes(t *testing.T) {
	t1 := New().Put("abc", 1)
	t2 := t1.Remove("abc")

	_, ok := Get[int](t2, "abc")
	assert.False(t, ok)

	// the whole path should have collapsed; re-inserting a sibling at the
	// first byte must not find any leftover structure.
	t3 := t2.Put("xyz", 2)
	_, ok = Get[int](t3, "ab")
	assert.False(t, ok)
}

func TestTrie_RemoveKeepsInternalNodeWithRemainingChildren(t *testing.T) {
	t1 := New().Put("ab", 1).Put("abc", 2)
	t2 := t1.Remove("ab")

	_, ok := Get[int](t2, "ab")
	assert.False(t, ok)
	v, ok := Get[int](t2, "abc")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTrie_StructuralSharing(t *testing.T) {
	t1 := New().Put("x", "v1")
	t2 := t1.Put("y", "v2")

	childX1 := t1.root.children['x']
	childX2 := t2.root.children['x']
	assert.Same(t, childX1, childX2, "the unmodified subtree must be shared by reference")
}

func TestTrie_OldSnapshotImmutableAcrossMutations(t *testing.T) {
	t0 := New().Put("a", 1).Put("b", 2)

	t1 := t0.Put("a", 100)
	t2 := t1.Remove("b")

	va, _ := Get[int](t0, "a")
	vb, _ := Get[int](t0, "b")
	assert.Equal(t, 1, va)
	assert.Equal(t, 2, vb)

	_ = t2
}
