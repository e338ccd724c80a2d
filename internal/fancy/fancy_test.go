package fancy_test

import (
	"testing"

	"github.com/harborline/flowgate/internal/fancy"
	"github.com/stretchr/testify/assert"
)

func TestTree(t *testing.T) {
	tree := fancy.Tree()
	assert.NotNil(t, tree)

	tree.Root("Root Node")
	child := tree.Child("Child Node")
	child.Child("Grandchild")

	treeString := tree.String()
	assert.Contains(t, treeString, "Root Node")
	assert.Contains(t, treeString, "Child Node")
	assert.Contains(t, treeString, "Grandchild")
}

func TestBranchNode(t *testing.T) {
	branchNode := fancy.BranchNode("Tools", "(5)")
	assert.NotNil(t, branchNode)

	treeString := branchNode.String()
	assert.Contains(t, treeString, "Tools")
	assert.Contains(t, treeString, "(5)")
}

func TestTruncateString(t *testing.T) {
	t.Run("shorter than maxLength", func(t *testing.T) {
		assert.Equal(t, "short", fancy.TruncateString("short", 20))
	})

	t.Run("longer than maxLength", func(t *testing.T) {
		result := fancy.TruncateString("This is a very long string that should be truncated", 15)
		assert.Equal(t, "This is a ve...", result)
		assert.Len(t, result, 15)
	})

	t.Run("empty string", func(t *testing.T) {
		assert.Equal(t, "", fancy.TruncateString("", 10))
	})
}

func TestComponentTree(t *testing.T) {
	compTree := fancy.NewComponentTree("Root")
	assert.NotNil(t, compTree)

	branch := compTree.AddBranch("Branch 1")
	branch.Child("Child 1.1")
	compTree.AddChild("Child 2")

	treeString := compTree.Tree().String()
	assert.Contains(t, treeString, "Root")
	assert.Contains(t, treeString, "Branch 1")
	assert.Contains(t, treeString, "Child 1.1")
	assert.Contains(t, treeString, "Child 2")
}

func TestServerTree(t *testing.T) {
	serverTree := fancy.ServerTree("awsdac")
	assert.NotNil(t, serverTree)
	assert.Contains(t, serverTree.Tree().String(), "awsdac")
}

func TestToolTree(t *testing.T) {
	toolTree := fancy.ToolTree("deploy_stack")
	assert.NotNil(t, toolTree)
	assert.Contains(t, toolTree.Tree().String(), "deploy_stack")
}

func TestStyleHelpers(t *testing.T) {
	sample := "Test Text"

	assert.Contains(t, fancy.ToolText(sample), sample)
	assert.Contains(t, fancy.ServerText(sample), sample)
	assert.Contains(t, fancy.ValidText(sample), sample)
	assert.Contains(t, fancy.ErrorText(sample), sample)
	assert.Contains(t, fancy.PathText(sample), sample)
	assert.Contains(t, fancy.CountText(sample), sample)

	assert.Empty(t, fancy.ToolText(""))
	assert.Empty(t, fancy.ServerText(""))
}
