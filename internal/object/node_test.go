package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/pkg/value"
)

func TestAddChildDuplicateNameRejected(t *testing.T) {
	root := NewNode("root", access.Normal)
	require.NoError(t, root.AddChild(NewNode("a", access.Normal)))

	err := root.AddChild(NewManagedReadOnly("a", access.Normal, value.Integer(0)))
	assert.Error(t, err)

	assert.Equal(t, []string{"a"}, root.ChildNames(), "a rejected duplicate must not replace the existing child")
}

func TestAddChildReparents(t *testing.T) {
	oldParent := NewNode("old", access.Normal)
	newParent := NewNode("new", access.Normal)
	child := NewNode("c", access.Normal)

	require.NoError(t, oldParent.AddChild(child))
	require.NoError(t, newParent.AddChild(child))

	assert.Empty(t, oldParent.ChildNames(), "moving a child must detach it from its prior parent")
	assert.Equal(t, []string{"c"}, newParent.ChildNames())
	assert.Equal(t, "new:c", child.FQN())
}

func TestNodeChildOrderIsInsertionOrder(t *testing.T) {
	root := NewNode("root", access.Normal)
	require.NoError(t, root.AddChild(NewNode("z", access.Normal)))
	require.NoError(t, root.AddChild(NewNode("a", access.Normal)))
	require.NoError(t, root.AddChild(NewNode("m", access.Normal)))

	assert.Equal(t, []string{"z", "a", "m"}, root.ChildNames())
}

func TestRemoveChildDetaches(t *testing.T) {
	root := NewNode("root", access.Normal)
	child := NewNode("c", access.Normal)
	require.NoError(t, root.AddChild(child))

	removed, ok := root.RemoveChild("c")
	require.True(t, ok)
	assert.Same(t, child, removed)
	assert.Empty(t, root.ChildNames())

	_, ok = root.RemoveChild("c")
	assert.False(t, ok, "removing an already-removed child reports not found")
}

func TestNodeFQNReflectsCurrentParentChain(t *testing.T) {
	root := NewNode("root", access.Normal)
	mid := NewNode("mid", access.Normal)
	leaf := NewNode("leaf", access.Normal)

	require.NoError(t, root.AddChild(mid))
	require.NoError(t, mid.AddChild(leaf))
	assert.Equal(t, "root:mid:leaf", leaf.FQN())
}
