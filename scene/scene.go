// Package scene holds in-memory representation of X-Plane object:
// transform node tree, renderable objects and level of detail groups.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Handle addresses node inside Scene arena. Handles are never reused.
type Handle int32

const NoHandle Handle = -1

// DefaultLODFar is used for lod created implicitly (import without ATTR_LOD, gltf without lod extras)
const DefaultLODFar = 10000

type Scene struct {
	Texture       string
	TextureLit    string
	TextureNormal string

	Tilted     bool
	BlendGlass bool
	NoShadow   bool
	CockpitLit bool

	LODs   []*LODGroup
	Draped *LODGroup

	nodes  []*Node
	owners map[Object]Handle
}

func New() *Scene {
	return &Scene{
		nodes:  make([]*Node, 0, 32),
		owners: make(map[Object]Handle),
	}
}

func (sc *Scene) NewNode(name string) Handle {
	h := Handle(len(sc.nodes))
	sc.nodes = append(sc.nodes, &Node{
		Name:   name,
		Matrix: mgl32.Ident4(),
		handle: h,
		parent: NoHandle,
	})
	return h
}

// Node returns nil for destroyed or unknown handle
func (sc *Scene) Node(h Handle) *Node {
	if h < 0 || int(h) >= len(sc.nodes) {
		return nil
	}
	return sc.nodes[h]
}

func (sc *Scene) mustNode(h Handle) (*Node, error) {
	n := sc.Node(h)
	if n == nil {
		return nil, errors.Errorf("Invalid node handle %d", h)
	}
	return n, nil
}

func (sc *Scene) Parent(h Handle) Handle {
	if n := sc.Node(h); n != nil {
		return n.parent
	}
	return NoHandle
}

func (sc *Scene) Children(h Handle) []Handle {
	if n := sc.Node(h); n != nil {
		return n.children
	}
	return nil
}

// NodeCount returns count of alive nodes
func (sc *Scene) NodeCount() int {
	count := 0
	for _, n := range sc.nodes {
		if n != nil {
			count++
		}
	}
	return count
}

func (sc *Scene) AddChild(parent, child Handle) error {
	p, err := sc.mustNode(parent)
	if err != nil {
		return err
	}
	c, err := sc.mustNode(child)
	if err != nil {
		return err
	}
	if c.parent != NoHandle {
		return errors.Errorf("Node %q already has parent %q", c.Name, sc.nodes[c.parent].Name)
	}
	for a := parent; a != NoHandle; a = sc.nodes[a].parent {
		if a == child {
			return errors.Errorf("Node %q can't be child of own descendant %q", c.Name, p.Name)
		}
	}
	c.parent = parent
	p.children = append(p.children, child)
	return nil
}

// RemoveChild detaches child from parent, child subtree stays alive
func (sc *Scene) RemoveChild(parent, child Handle) bool {
	p := sc.Node(parent)
	c := sc.Node(child)
	if p == nil || c == nil || c.parent != parent {
		return false
	}
	for i, h := range p.children {
		if h == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	c.parent = NoHandle
	return true
}

// Destroy removes node, its subtree and owned objects
func (sc *Scene) Destroy(h Handle) {
	n := sc.Node(h)
	if n == nil {
		return
	}
	if n.parent != NoHandle {
		sc.RemoveChild(n.parent, h)
	}

	stack := []Handle{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := sc.nodes[cur]
		stack = append(stack, node.children...)
		for _, o := range node.Objects {
			delete(sc.owners, o)
		}
		sc.nodes[cur] = nil
	}
}

// AddObject transfers object ownership to node
func (sc *Scene) AddObject(h Handle, o Object) error {
	n, err := sc.mustNode(h)
	if err != nil {
		return err
	}
	if owner, ok := sc.owners[o]; ok {
		return errors.Errorf("Object %q already owned by node %q", o.ObjectName(), sc.nodes[owner].Name)
	}
	sc.owners[o] = h
	n.Objects = append(n.Objects, o)
	return nil
}

func (sc *Scene) RemoveObject(h Handle, o Object) bool {
	n := sc.Node(h)
	if n == nil {
		return false
	}
	for i, obj := range n.Objects {
		if obj == o {
			n.Objects = append(n.Objects[:i], n.Objects[i+1:]...)
			delete(sc.owners, o)
			return true
		}
	}
	return false
}

// Owner of object or NoHandle
func (sc *Scene) Owner(o Object) Handle {
	if h, ok := sc.owners[o]; ok {
		return h
	}
	return NoHandle
}

// Walk visits subtree in pre-order (parent before children).
// Returning error from fn stops walk.
func (sc *Scene) Walk(h Handle, fn func(h Handle, n *Node, depth int) error) error {
	n := sc.Node(h)
	if n == nil {
		return nil
	}
	return sc.walk(n, 0, fn)
}

func (sc *Scene) walk(n *Node, depth int, fn func(h Handle, n *Node, depth int) error) error {
	if err := fn(n.handle, n, depth); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := sc.walk(sc.nodes[c], depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// World returns product of static matrices from tree root down to node
func (sc *Scene) World(h Handle) mgl32.Mat4 {
	m := mgl32.Ident4()
	for n := sc.Node(h); n != nil; n = sc.Node(n.parent) {
		m = n.Matrix.Mul4(m)
	}
	return m
}

// Path returns slash separated names from root, used in error messages
func (sc *Scene) Path(h Handle) string {
	path := ""
	for n := sc.Node(h); n != nil; n = sc.Node(n.parent) {
		if path == "" {
			path = n.Name
		} else {
			path = n.Name + "/" + path
		}
	}
	return path
}

// HasObjects reports whether any node of subtree owns renderable object
func (sc *Scene) HasObjects(h Handle) bool {
	found := errors.New("found")
	return sc.Walk(h, func(_ Handle, n *Node, _ int) error {
		if len(n.Objects) != 0 {
			return found
		}
		return nil
	}) == found
}
