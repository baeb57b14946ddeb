package xobj

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

func box(name string, size float32) *scene.Mesh {
	m := scene.NewMesh(name)
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {size, 0, 0}, {size, size, 0}, {0, size, size}} {
		m.Vertices = append(m.Vertices, scene.MeshVertex{Position: p, Normal: mgl32.Vec3{0, 0, 1}})
	}
	m.Faces = []scene.Face{{0, 1, 2}, {0, 2, 3}}
	return m
}

func attach(t *testing.T, sc *scene.Scene, parent scene.Handle, name string, m mgl32.Mat4) scene.Handle {
	h := sc.NewNode(name)
	require.NoError(t, sc.AddChild(parent, h))
	sc.Node(h).Matrix = m
	return h
}

// aircraftScene has static rotations at every level and nested animation
func aircraftScene(t *testing.T) *scene.Scene {
	sc := scene.New()
	sc.Texture = "plane.png"

	near := sc.AddLOD("near", 0, 200)
	body := attach(t, sc, near.Root, "body", mgl32.Translate3D(0, 1, 0).Mul4(mgl32.HomogRotate3DZ(0.2)))
	require.NoError(t, sc.AddObject(body, box("fuselage", 4)))

	gear := attach(t, sc, body, "gear", mgl32.Translate3D(1, -1, 0).Mul4(mgl32.HomogRotate3DY(0.5)))
	sc.Node(gear).AddChannel(scene.NewTranslation("sim/gear/deploy",
		scene.TranslateKey(0, mgl32.Vec3{}), scene.TranslateKey(1, mgl32.Vec3{0, -0.5, 0})))
	sc.Node(gear).AddChannel(scene.NewRotation("sim/gear/swing", mgl32.Vec3{1, 0, 0},
		scene.RotateKey(0, 0), scene.RotateKey(1, 80)))
	require.NoError(t, sc.AddObject(gear, box("strut", 1)))

	wheel := attach(t, sc, gear, "wheel", mgl32.Translate3D(0, -1, 0.3).Mul4(mgl32.HomogRotate3DX(1.1)))
	sc.Node(wheel).AddChannel(scene.NewRotation("sim/gear/spin", mgl32.Vec3{0, 0, 1},
		scene.RotateKey(0, 0), scene.RotateKey(1, 360)))
	require.NoError(t, sc.AddObject(wheel, box("tire", 0.5)))

	hub := attach(t, sc, wheel, "hub", mgl32.Translate3D(0.1, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)))
	require.NoError(t, sc.AddObject(hub, box("cap", 0.1)))

	door := attach(t, sc, near.Root, "door", mgl32.Translate3D(-2, 0, 1))
	sc.Node(door).Visibility = &scene.VisibilityChannel{}
	sc.Node(door).Visibility.Add(false, 0, 0.5, "sim/door/hidden")
	require.NoError(t, sc.AddObject(door, box("panel", 1)))

	far := sc.AddLOD("far", 200, 2000)
	require.NoError(t, sc.AddObject(far.Root, box("lowpoly", 4)))
	return sc
}

// worldVertices maps mesh name to world positions of its vertices
func worldVertices(sc *scene.Scene) map[string][]mgl32.Vec3 {
	res := make(map[string][]mgl32.Vec3)
	for _, g := range sc.LODs {
		sc.Walk(g.Root, func(h scene.Handle, n *scene.Node, _ int) error {
			w := sc.World(h)
			for _, o := range n.Objects {
				if m, ok := o.(*scene.Mesh); ok {
					for _, v := range m.Vertices {
						res[m.Name] = append(res[m.Name], utils.TransformPoint(w, v.Position))
					}
				}
			}
			return nil
		})
	}
	return res
}

func markAll() config.Options {
	var o config.Options
	o.Enable(config.OptMarkMesh)
	o.Enable(config.OptMarkTransform)
	o.Enable(config.OptMarkLOD)
	return o
}

func TestRoundTripPositions(t *testing.T) {
	for name, root := range map[string]mgl32.Mat4{
		"identity": mgl32.Ident4(),
		"y up":     mgl32.HomogRotate3DX(mgl32.DegToRad(-90)),
		"shifted":  mgl32.Translate3D(5, 0, -3).Mul4(mgl32.HomogRotate3DZ(0.7)),
	} {
		t.Run(name, func(t *testing.T) {
			sc := aircraftScene(t)
			before := worldVertices(sc)

			var buf bytes.Buffer
			stats, err := ExportTo(context.Background(), sc, &buf, ExportParams{
				Root: root, Options: markAll(), Logger: utils.DiscardLogger(),
			})
			require.NoError(t, err)
			assert.Equal(t, 6, stats.Meshes)
			assert.Equal(t, 2, stats.LODs)
			assert.Equal(t, 2, stats.TranslationAnims, "rotation-only wheel gets pivot translation")

			imported, istats, err := ImportFrom(context.Background(), &buf, ImportParams{Root: root, Logger: utils.DiscardLogger()})
			require.NoError(t, err)
			assert.Equal(t, stats.Meshes, istats.Meshes)

			after := worldVertices(imported)
			require.Len(t, after, len(before))
			for mesh, points := range before {
				require.Len(t, after[mesh], len(points), mesh)
				for i := range points {
					assert.True(t, points[i].ApproxEqualThreshold(after[mesh][i], 1e-3),
						"%s vertex %d: %v != %v", mesh, i, points[i], after[mesh][i])
				}
			}
		})
	}
}

func TestExportFileAndImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plane.obj")

	stats, err := Export(context.Background(), aircraftScene(t), path, ExportParams{Options: markAll(), Logger: utils.DiscardLogger()})
	require.NoError(t, err)
	assert.NotZero(t, stats.LinesWritten)

	sc, _, err := Import(context.Background(), path, ImportParams{Logger: utils.DiscardLogger()})
	require.NoError(t, err)
	assert.Equal(t, "plane.png", sc.Texture)
	require.Len(t, sc.LODs, 2)
	assert.Equal(t, "near", sc.LODs[0].Name)
}

func TestExportInvalidCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.obj")
	sc := scene.New()
	g := sc.AddLOD("lonely", 10, 20)
	require.NoError(t, sc.AddObject(g.Root, box("m", 1)))

	_, err := Export(context.Background(), sc, path, ExportParams{Logger: utils.DiscardLogger()})
	require.Error(t, err)
	assert.True(t, scene.IsStructural(err))
	assert.Contains(t, err.Error(), "doesn't start at 0.0")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportEmptyGroupRemoved(t *testing.T) {
	sc := scene.New()
	g := sc.AddLOD("real", 0, 100)
	require.NoError(t, sc.AddObject(g.Root, box("m", 1)))
	empty := sc.AddLOD("empty", 500, 500)
	attach(t, sc, empty.Root, "nothing here", mgl32.Ident4())

	var buf bytes.Buffer
	stats, err := ExportTo(context.Background(), sc, &buf, ExportParams{Logger: utils.DiscardLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LODs)
	assert.NotContains(t, buf.String(), "ATTR_LOD 500")
}

func TestIOErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "x.obj")
	_, err := Export(context.Background(), aircraftScene(t), missing, ExportParams{Logger: utils.DiscardLogger()})
	assert.True(t, scene.IsIO(err))

	_, _, err = Import(context.Background(), missing, ImportParams{Logger: utils.DiscardLogger()})
	assert.True(t, scene.IsIO(err))
	assert.False(t, scene.IsStructural(err))
}

func TestExportInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_, err := ExportTo(ctx, aircraftScene(t), &buf, ExportParams{Logger: utils.DiscardLogger()})
	assert.True(t, scene.IsInterrupted(err))
	assert.Zero(t, buf.Len())
}

func TestSummarize(t *testing.T) {
	s := Summarize(aircraftScene(t))
	assert.Equal(t, "plane.png", s.Texture)
	require.Len(t, s.LODs, 2)
	assert.Equal(t, "near", s.LODs[0].Name)
	assert.Equal(t, 5, s.LODs[0].Objects["mesh"])
	assert.Equal(t, 3, s.LODs[0].Animated)
	assert.Equal(t, 1, s.LODs[1].Nodes)
}

func TestExportSingleKeyLODRoot(t *testing.T) {
	sc := scene.New()
	near := sc.AddLOD("near", 0, 100)
	sc.Node(near.Root).AddChannel(scene.NewTranslation("sim/x", scene.TranslateKey(0, mgl32.Vec3{1, 0, 0})))
	require.NoError(t, sc.AddObject(near.Root, box("m", 1)))

	var buf bytes.Buffer
	stats, err := ExportTo(context.Background(), sc, &buf, ExportParams{Logger: utils.DiscardLogger()})
	require.NoError(t, err)
	assert.Zero(t, stats.TranslationAnims)
	assert.NotContains(t, buf.String(), "ANIM_begin")
	assert.Contains(t, buf.String(), "VT 1 0 0")
}
