package obj8

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

// span addresses record data inside pool
type span struct {
	Offset int
	Count  int
}

// Pools accumulate geometry of whole file. Vertices are already
// transformed into frame of animation block which owns the object.
type Pools struct {
	Vertices      []scene.MeshVertex
	LineVertices  []scene.LineVertex
	LightVertices []scene.LightPoint
	Indices       []uint32
}

// AddMesh returns span inside index pool
func (p *Pools) AddMesh(m *scene.Mesh, mat mgl32.Mat4) span {
	base := uint32(len(p.Vertices))
	for _, v := range m.Vertices {
		p.Vertices = append(p.Vertices, scene.MeshVertex{
			Position: utils.TransformPoint(mat, v.Position),
			Normal:   utils.TransformNormal(mat, v.Normal),
			UV:       v.UV,
		})
	}

	// mirrored matrix turns faces inside out
	mirrored := mat.Mat3().Det() < 0

	s := span{Offset: len(p.Indices), Count: len(m.Faces) * 3}
	for _, f := range m.Faces {
		if mirrored {
			f[1], f[2] = f[2], f[1]
		}
		p.Indices = append(p.Indices, base+f[0], base+f[1], base+f[2])
	}
	return s
}

// AddLine returns span inside index pool, indices address line vertex pool
func (p *Pools) AddLine(l *scene.Line, mat mgl32.Mat4) span {
	base := uint32(len(p.LineVertices))
	for _, v := range l.Vertices {
		p.LineVertices = append(p.LineVertices, scene.LineVertex{
			Position: utils.TransformPoint(mat, v.Position),
			Color:    v.Color,
		})
	}
	s := span{Offset: len(p.Indices), Count: len(l.Indices) &^ 1}
	for _, i := range l.Indices[:s.Count] {
		p.Indices = append(p.Indices, base+i)
	}
	return s
}

// AddLight returns span inside light vertex pool
func (p *Pools) AddLight(l *scene.LightPoint, mat mgl32.Mat4) span {
	s := span{Offset: len(p.LightVertices), Count: 1}
	lc := *l
	lc.Position = utils.TransformPoint(mat, l.Position)
	p.LightVertices = append(p.LightVertices, lc)
	return s
}

func (p *Pools) WriteCounts(out *LineWriter) {
	out.Line("POINT_COUNTS", len(p.Vertices), len(p.LineVertices), len(p.LightVertices), len(p.Indices))
}

// Write writes vertex pools and index pool
func (p *Pools) Write(out *LineWriter) {
	for _, v := range p.Vertices {
		out.Line("VT", v.Position, v.Normal, v.UV)
	}
	for _, v := range p.LineVertices {
		out.Line("VLINE", v.Position, v.Color)
	}
	for _, v := range p.LightVertices {
		out.Line("VLIGHT", v.Position, v.Color)
	}

	full := len(p.Indices) / idxPerLine * idxPerLine
	fields := make([]interface{}, 0, idxPerLine+1)
	for i := 0; i < full; i += idxPerLine {
		fields = append(fields[:0], "IDX10")
		for _, idx := range p.Indices[i : i+idxPerLine] {
			fields = append(fields, idx)
		}
		out.Line(fields...)
	}
	for _, idx := range p.Indices[full:] {
		out.Line("IDX", idx)
	}
}
