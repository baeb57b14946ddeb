package xobj

import (
	"github.com/mogaika/xobjconv/scene"
)

type LODSummary struct {
	Name     string         `json:"name"`
	Near     float32        `json:"near"`
	Far      float32        `json:"far"`
	Draped   bool           `json:"draped,omitempty"`
	Nodes    int            `json:"nodes"`
	Animated int            `json:"animated"`
	Objects  map[string]int `json:"objects"`
}

type Summary struct {
	Texture       string       `json:"texture,omitempty"`
	TextureLit    string       `json:"texture_lit,omitempty"`
	TextureNormal string       `json:"texture_normal,omitempty"`
	LODs          []LODSummary `json:"lods"`
}

// Summarize counts nodes and objects per lod group
func Summarize(sc *scene.Scene) *Summary {
	s := &Summary{
		Texture:       sc.Texture,
		TextureLit:    sc.TextureLit,
		TextureNormal: sc.TextureNormal,
		LODs:          make([]LODSummary, 0, len(sc.LODs)+1),
	}
	for _, g := range groups(sc) {
		ls := LODSummary{
			Name:    g.Name,
			Near:    g.Near,
			Far:     g.Far,
			Draped:  g == sc.Draped,
			Objects: make(map[string]int),
		}
		sc.Walk(g.Root, func(_ scene.Handle, n *scene.Node, _ int) error {
			ls.Nodes++
			if n.HasAnimation() {
				ls.Animated++
			}
			for _, o := range n.Objects {
				ls.Objects[o.Kind().String()]++
			}
			return nil
		})
		s.LODs = append(s.LODs, ls)
	}
	return s
}
