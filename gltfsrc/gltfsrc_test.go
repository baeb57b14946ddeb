package gltfsrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

func addTriangle(doc *gltf.Document, name string, material *uint32) uint32 {
	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		"NORMAL":     modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}),
		"TEXCOORD_0": modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 0.25}}),
	}
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    &indices,
			Attributes: attributes,
			Material:   material,
		}},
	})
	return uint32(len(doc.Meshes) - 1)
}

func addNode(doc *gltf.Document, node *gltf.Node) uint32 {
	doc.Nodes = append(doc.Nodes, node)
	return uint32(len(doc.Nodes) - 1)
}

func testDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Images = append(doc.Images, &gltf.Image{Name: "skin", URI: "textures/skin.png"})
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(0)})
	doc.Materials = append(doc.Materials,
		&gltf.Material{
			Name:        "glass",
			DoubleSided: true,
			AlphaMode:   gltf.AlphaMask,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
			},
		})

	body := addTriangle(doc, "body", nil)
	window := addTriangle(doc, "window", gltf.Index(0))
	far := addTriangle(doc, "far", nil)

	rot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	child := addNode(doc, &gltf.Node{
		Name:        "canopy",
		Mesh:        gltf.Index(window),
		Translation: [3]float32{0, 0, 5},
		Rotation:    [4]float32{rot.V[0], rot.V[1], rot.V[2], rot.W},
	})
	top := addNode(doc, &gltf.Node{Name: "fuselage", Mesh: gltf.Index(body), Children: []uint32{child}})
	lowpoly := addNode(doc, &gltf.Node{
		Name:   "lod far",
		Mesh:   gltf.Index(far),
		Extras: map[string]interface{}{"lod": []float32{300, 1000}},
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, top, lowpoly)
	return doc
}

func findMesh(t *testing.T, sc *scene.Scene, name string) (*scene.Mesh, scene.Handle) {
	t.Helper()
	var found *scene.Mesh
	owner := scene.NoHandle
	for _, g := range sc.LODs {
		sc.Walk(g.Root, func(h scene.Handle, n *scene.Node, _ int) error {
			for _, o := range n.Objects {
				if m, ok := o.(*scene.Mesh); ok && m.Name == name {
					found, owner = m, h
				}
			}
			return nil
		})
	}
	require.NotNil(t, found, name)
	return found, owner
}

func TestLoad(t *testing.T) {
	sc, err := Load(testDocument(), utils.DiscardLogger())
	require.NoError(t, err)

	assert.Equal(t, "textures/skin.png", sc.Texture)
	require.Len(t, sc.LODs, 2)
	assert.Equal(t, "default", sc.LODs[0].Name)
	assert.Equal(t, float32(0), sc.LODs[0].Near)
	assert.Equal(t, float32(scene.DefaultLODFar), sc.LODs[0].Far)
	assert.Equal(t, "lod far", sc.LODs[1].Name)
	assert.Equal(t, float32(300), sc.LODs[1].Near)
	assert.Equal(t, float32(1000), sc.LODs[1].Far)

	window, h := findMesh(t, sc, "window")
	assert.Equal(t, "default/fuselage/canopy", sc.Path(h))
	assert.True(t, window.Attr.TwoSided)
	assert.Equal(t, scene.Blend{Mode: scene.BlendNoBlend, Ratio: 0.5}, window.Attr.Blend)
	require.Len(t, window.Faces, 1)
	assert.Equal(t, scene.Face{0, 1, 2}, window.Faces[0])
	assert.Equal(t, mgl32.Vec2{0, 0.75}, window.Vertices[2].UV)

	p := utils.TransformPoint(sc.World(h), window.Vertices[1].Position)
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{0, 1, 5}, 1e-5), "%v", p)

	body, _ := findMesh(t, sc, "body")
	assert.False(t, body.Attr.TwoSided)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, body.Vertices[0].Normal)

	_, farOwner := findMesh(t, sc, "far")
	assert.Equal(t, sc.LODs[1].Root, farOwner, "lod node becomes group root")
}

func TestLoadDraped(t *testing.T) {
	doc := gltf.NewDocument()
	decal := addTriangle(doc, "decal", nil)
	n := addNode(doc, &gltf.Node{Name: "ground", Mesh: gltf.Index(decal), Extras: map[string]interface{}{"draped": true}})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, n)

	sc, err := Load(doc, utils.DiscardLogger())
	require.NoError(t, err)
	assert.Empty(t, sc.LODs)
	require.NotNil(t, sc.Draped)
	assert.True(t, sc.HasObjects(sc.Draped.Root))
}

func TestLoadErrors(t *testing.T) {
	doc := gltf.NewDocument()
	a := addNode(doc, &gltf.Node{Name: "a"})
	doc.Nodes[a].Children = []uint32{a}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, a)
	_, err := Load(doc, utils.DiscardLogger())
	assert.True(t, scene.IsStructural(err))

	doc = gltf.NewDocument()
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 42)
	_, err = Load(doc, utils.DiscardLogger())
	assert.True(t, scene.IsStructural(err))

	_, err = Open(filepath.Join(t.TempDir(), "missing.gltf"), utils.DiscardLogger())
	assert.True(t, scene.IsIO(err))

	garbage := filepath.Join(t.TempDir(), "garbage.gltf")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0644))
	_, err = Open(garbage, utils.DiscardLogger())
	require.Error(t, err)
	assert.False(t, scene.IsIO(err))
	assert.True(t, scene.IsStructural(err))
}

func TestNodeMatrix(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), nodeMatrix(&gltf.Node{}))

	m := mgl32.Translate3D(1, 2, 3)
	assert.Equal(t, m, nodeMatrix(&gltf.Node{Matrix: [16]float32(m)}))

	trs := nodeMatrix(&gltf.Node{Translation: [3]float32{1, 2, 3}, Scale: [3]float32{2, 2, 2}})
	assert.True(t, trs.ApproxEqual(m.Mul4(mgl32.Scale3D(2, 2, 2))))
}
