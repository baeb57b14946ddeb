package scene

import (
	"fmt"
)

// LODGroup is subtree visible in half-open distance range [Near, Far)
type LODGroup struct {
	Name string
	Near float32
	Far  float32
	Root Handle
}

func (g *LODGroup) String() string {
	return fmt.Sprintf("lod %q [%v, %v)", g.Name, g.Near, g.Far)
}

// AddLOD creates group with new root node
func (sc *Scene) AddLOD(name string, near, far float32) *LODGroup {
	g := &LODGroup{
		Name: name,
		Near: near,
		Far:  far,
		Root: sc.NewNode(name),
	}
	sc.LODs = append(sc.LODs, g)
	return g
}

// SetDraped creates draped group, previous draped group is destroyed
func (sc *Scene) SetDraped(name string) *LODGroup {
	if sc.Draped != nil {
		sc.Destroy(sc.Draped.Root)
	}
	sc.Draped = &LODGroup{Name: name, Root: sc.NewNode(name)}
	return sc.Draped
}

// RemoveLOD destroys group subtree
func (sc *Scene) RemoveLOD(g *LODGroup) bool {
	for i, lod := range sc.LODs {
		if lod == g {
			sc.Destroy(g.Root)
			sc.LODs = append(sc.LODs[:i], sc.LODs[i+1:]...)
			return true
		}
	}
	if sc.Draped == g {
		sc.Destroy(g.Root)
		sc.Draped = nil
		return true
	}
	return false
}
