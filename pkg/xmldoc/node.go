// Package xmldoc builds a small in-memory element tree from the event rule and
// data structure template documents produced by the extraction layer.
package xmldoc

// Node is an XML element. Character data directly under the element is
// concatenated into Text; comments and processing instructions are dropped.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string
	Parent   *Node
}

// Attr returns the value of the first listed attribute that is present and
// non-empty.
func (n *Node) Attr(names ...string) string {
	if n == nil {
		return ""
	}
	for _, name := range names {
		if v, ok := n.Attrs[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, even if empty.
func (n *Node) HasAttr(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.Attrs[name]
	return ok
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first child element, or nil.
func (n *Node) FirstChild() *Node {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Find returns the first descendant (depth-first, document order) with the
// given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(d *Node) bool {
		if found != nil {
			return false
		}
		if d != n && d.Name == name {
			found = d
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant with the given name in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		if d != n && d.Name == name {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
