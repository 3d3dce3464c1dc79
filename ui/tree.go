// Package ui holds console drawing helpers shared by the result formatters.
package ui

// Tree hierarchy symbols using box drawing characters
const (
	TreeBranch     = "├── " // Branch connector
	TreeLastBranch = "└── " // Connector of the last child
	TreeContinue   = "│   " // Parent has more siblings below
	TreeIndent     = "    " // Parent was the last child
)

// TreePrefixBuilder builds the prefixes of nodes in a drawn suite tree
type TreePrefixBuilder struct{}

// BuildPrefix returns the prefix of a node at depth. parentIsLast holds, for
// each ancestor below the root, whether it was the last child of its parent.
func (TreePrefixBuilder) BuildPrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth == 0 {
		return ""
	}

	var prefix string
	for i := 0; i < depth-1; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			prefix += TreeIndent
		} else {
			prefix += TreeContinue
		}
	}

	if isLast {
		prefix += TreeLastBranch
	} else {
		prefix += TreeBranch
	}
	return prefix
}

// BuildTreePrefix is BuildPrefix on a zero TreePrefixBuilder
func BuildTreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	return TreePrefixBuilder{}.BuildPrefix(depth, isLast, parentIsLast)
}
