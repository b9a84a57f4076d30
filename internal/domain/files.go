package domain

import "strings"

// NodeType distinguishes files from folders in the tree
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// FileNode is a recursive file-tree entry
type FileNode struct {
	Children []*FileNode `json:"children,omitempty"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     NodeType    `json:"type"`
}

// IsDir reports whether the node is a folder
func (n *FileNode) IsDir() bool {
	return n != nil && n.Type == NodeFolder
}

// Clone returns a deep copy of the tree
func (n *FileNode) Clone() *FileNode {
	if n == nil {
		return nil
	}
	c := &FileNode{Name: n.Name, Path: n.Path, Type: n.Type}
	if len(n.Children) > 0 {
		c.Children = make([]*FileNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// FlatNode is a tree node with its depth, used for list rendering
type FlatNode struct {
	Depth int
	Node  *FileNode
}

// Flatten walks the tree depth-first. Folders listed in collapsed are not descended into.
func (n *FileNode) Flatten(collapsed map[string]bool) []FlatNode {
	if n == nil {
		return nil
	}
	var out []FlatNode
	var walk func(node *FileNode, depth int)
	walk = func(node *FileNode, depth int) {
		for _, child := range node.Children {
			out = append(out, FlatNode{Depth: depth, Node: child})
			if child.IsDir() && !collapsed[child.Path] {
				walk(child, depth+1)
			}
		}
	}
	walk(n, 0)
	return out
}

// Find returns the node with the given path, or nil
func (n *FileNode) Find(path string) *FileNode {
	if n == nil {
		return nil
	}
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// FileExtension returns the lowercase extension without the dot, used for highlighting
func FileExtension(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 || strings.Contains(path[idx:], "/") {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}
