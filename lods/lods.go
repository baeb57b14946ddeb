// Package lods orders and validates level of detail groups of scene.
package lods

import (
	"context"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/mogaika/xobjconv/scene"
)

// near distances closer than this to 0 or to previous far are snapped
const driftThreshold = 1e-3

func nearlyEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < driftThreshold
}

// RemoveEmpty drops groups without any renderable object in subtree.
// Returns names of removed groups.
func RemoveEmpty(sc *scene.Scene, logger *log.Logger) []string {
	removed := make([]string, 0)
	for _, g := range append([]*scene.LODGroup(nil), sc.LODs...) {
		if !sc.HasObjects(g.Root) {
			sc.RemoveLOD(g)
			removed = append(removed, g.Name)
		}
	}
	if sc.Draped != nil && !sc.HasObjects(sc.Draped.Root) {
		removed = append(removed, sc.Draped.Name)
		sc.RemoveLOD(sc.Draped)
	}
	if logger != nil {
		for _, name := range removed {
			logger.Info("Empty lod group removed", "lod", name)
		}
	}
	return removed
}

func checkRange(g *scene.LODGroup) error {
	if g.Near == g.Far {
		return scene.Structuralf(g.String(), "near is equal to far")
	}
	if g.Far < g.Near {
		return scene.Structuralf(g.String(), "far is less than near")
	}
	return nil
}

// Sort returns groups ordered into chain [0, f0) [f0, f1) ...
// Input slice is not modified, groups near values may be snapped.
func Sort(ctx context.Context, groups []*scene.LODGroup) ([]*scene.LODGroup, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	if len(groups) == 1 {
		g := groups[0]
		if g.Near != 0 && nearlyEqual(g.Near, 0) {
			g.Near = 0
		}
		if g.Near != 0 {
			return nil, scene.Structuralf(g.String(), "doesn't start at 0.0")
		}
		if err := checkRange(g); err != nil {
			return nil, err
		}
		return []*scene.LODGroup{g}, nil
	}

	for _, g := range groups {
		if err := scene.Interrupted(ctx); err != nil {
			return nil, err
		}
		if err := checkRange(g); err != nil {
			return nil, err
		}
	}

	rest := append([]*scene.LODGroup(nil), groups...)
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Near < rest[j].Near })
	if !nearlyEqual(rest[0].Near, 0) {
		return nil, scene.Structuralf(rest[0].String(), "doesn't start at 0.0, no group starts at 0.0")
	}

	result := make([]*scene.LODGroup, 0, len(groups))
	frontier := float32(0)
	for len(rest) != 0 {
		if err := scene.Interrupted(ctx); err != nil {
			return nil, err
		}

		next := make([]*scene.LODGroup, 0, len(rest))
		var far float32
		found := false
		for _, g := range rest {
			if nearlyEqual(g.Near, frontier) {
				if found && g.Far != far {
					return nil, scene.Structuralf(g.String(), "overlaps group ending at %v", far)
				}
				g.Near = frontier
				far = g.Far
				found = true
				result = append(result, g)
			} else {
				next = append(next, g)
			}
		}
		if !found {
			return nil, scene.Structuralf(next[0].String(), "chain is broken, no group starts at %v", frontier)
		}
		frontier = far
		rest = next
	}
	return result, nil
}

// Validate checks sorted groups of scene and draped group
func Validate(ctx context.Context, sc *scene.Scene) error {
	seen := make(map[scene.LODGroup]bool)
	for i, g := range sc.LODs {
		if err := scene.Interrupted(ctx); err != nil {
			return err
		}

		key := scene.LODGroup{Name: g.Name, Near: g.Near, Far: g.Far}
		if seen[key] {
			return scene.Structuralf(g.String(), "duplicated lod group")
		}
		seen[key] = true

		if i == 0 && g.Near != 0 {
			return scene.Structuralf(g.String(), "doesn't start at 0.0")
		}
		if i != 0 && g.Near != sc.LODs[i-1].Far {
			return scene.Structuralf(g.String(), "doesn't continue previous group ending at %v", sc.LODs[i-1].Far)
		}
		if err := checkRange(g); err != nil {
			return err
		}

		root := sc.Node(g.Root)
		if root == nil {
			return scene.Structuralf(g.String(), "has no root node")
		}
		if root.HasAnimation() {
			return scene.Structuralf(g.String(), "lod transform must be static, root %q is animated", root.Name)
		}

		if i != 0 {
			err := sc.Walk(g.Root, func(h scene.Handle, n *scene.Node, _ int) error {
				if err := scene.Interrupted(ctx); err != nil {
					return err
				}
				for _, o := range n.Objects {
					if m, ok := o.(*scene.Mesh); ok && m.Attr.Hard != nil {
						return scene.Structuralf(g.String(),
							"mesh %q has hard surface, hard surfaces are allowed only in first lod", m.Name)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	if sc.Draped != nil {
		g := sc.Draped
		return sc.Walk(g.Root, func(h scene.Handle, n *scene.Node, _ int) error {
			if err := scene.Interrupted(ctx); err != nil {
				return err
			}
			if n.HasAnimation() {
				return scene.Structuralf("draped group "+g.Name, "node %q is animated", n.Name)
			}
			for _, o := range n.Objects {
				if o.Kind() != scene.KindMesh {
					return scene.Structuralf("draped group "+g.Name, "%s %q is not allowed, only meshes", o.Kind(), o.ObjectName())
				}
			}
			return nil
		})
	}
	return nil
}

// FoldStatic folds single key channels of every group node into matrices,
// one key channel is static offset and not animation
func FoldStatic(ctx context.Context, sc *scene.Scene) error {
	groups := append([]*scene.LODGroup(nil), sc.LODs...)
	if sc.Draped != nil {
		groups = append(groups, sc.Draped)
	}
	for _, g := range groups {
		err := sc.Walk(g.Root, func(_ scene.Handle, n *scene.Node, _ int) error {
			if err := scene.Interrupted(ctx); err != nil {
				return err
			}
			n.FoldStaticChannels()
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Prepare runs empty group removal, static channel folding, sort and validation.
// Scene groups are replaced by sorted ones.
func Prepare(ctx context.Context, sc *scene.Scene, logger *log.Logger) error {
	RemoveEmpty(sc, logger)
	if err := FoldStatic(ctx, sc); err != nil {
		return err
	}
	sorted, err := Sort(ctx, sc.LODs)
	if err != nil {
		return err
	}
	sc.LODs = sorted
	return Validate(ctx, sc)
}
