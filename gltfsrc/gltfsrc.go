// Package gltfsrc builds scene from glTF documents
package gltfsrc

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

// Extras recognized on top-level nodes
type nodeExtras struct {
	LOD    []float32 `json:"lod"`
	Draped bool      `json:"draped"`
}

func parseExtras(extras interface{}) (nodeExtras, error) {
	var e nodeExtras
	if extras == nil {
		return e, nil
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return e, err
	}
	if string(raw) == "null" || !strings.HasPrefix(string(raw), "{") {
		return e, nil
	}
	err = json.Unmarshal(raw, &e)
	return e, err
}

type loader struct {
	doc     *gltf.Document
	sc      *scene.Scene
	logger  *log.Logger
	visited map[uint32]bool

	defaultLOD *scene.LODGroup
}

// Open loads .gltf or .glb file. File system failures are IOError,
// malformed documents are StructuralError.
func Open(path string, logger *log.Logger) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, &scene.IOError{Op: "open", Path: path, Err: err}
		}
		return nil, scene.Structuralf(path, "failed to decode gltf: %v", err)
	}
	return Load(doc, logger)
}

// Load converts default scene of doc. Top-level nodes with extras
// {"lod": [near, far]} become lod groups, {"draped": true} becomes draped group,
// rest goes into group [0, DefaultLODFar).
func Load(doc *gltf.Document, logger *log.Logger) (*scene.Scene, error) {
	l := &loader{
		doc:     doc,
		sc:      scene.New(),
		logger:  utils.LoggerOr(logger).With("pass", "gltf"),
		visited: make(map[uint32]bool),
	}

	if len(doc.Scenes) == 0 {
		return nil, scene.Structuralf("gltf", "document has no scenes")
	}
	sceneIndex := uint32(0)
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if int(sceneIndex) >= len(doc.Scenes) {
		return nil, scene.Structuralf("gltf", "default scene %d out of range", sceneIndex)
	}

	l.sc.Texture = l.findTexture()

	for _, iNode := range doc.Scenes[sceneIndex].Nodes {
		if err := l.loadTopLevel(iNode); err != nil {
			return nil, err
		}
	}
	return l.sc, nil
}

func (l *loader) gltfNode(i uint32) (*gltf.Node, error) {
	if int(i) >= len(l.doc.Nodes) {
		return nil, scene.Structuralf("gltf", "node index %d out of range", i)
	}
	if l.visited[i] {
		return nil, scene.Structuralf(fmt.Sprintf("gltf node %d", i), "referenced twice")
	}
	l.visited[i] = true
	return l.doc.Nodes[i], nil
}

func (l *loader) loadTopLevel(i uint32) error {
	node, err := l.gltfNode(i)
	if err != nil {
		return err
	}
	extras, err := parseExtras(node.Extras)
	if err != nil {
		return errors.Wrapf(err, "Failed to parse extras of node %q", node.Name)
	}

	var group *scene.LODGroup
	switch {
	case extras.Draped:
		group = l.sc.SetDraped(nodeName(node, i))
	case len(extras.LOD) == 2:
		group = l.sc.AddLOD(nodeName(node, i), extras.LOD[0], extras.LOD[1])
	default:
		if len(extras.LOD) != 0 {
			l.logger.Warn("Ignoring malformed lod extras", "node", node.Name, "lod", extras.LOD)
		}
		if l.defaultLOD == nil {
			l.defaultLOD = l.sc.AddLOD("default", 0, scene.DefaultLODFar)
		}
		return l.loadNode(l.defaultLOD.Root, i, node)
	}

	// lod node itself becomes group root
	l.sc.Node(group.Root).Matrix = nodeMatrix(node)
	return l.fillNode(group.Root, node)
}

func (l *loader) loadNode(parent scene.Handle, i uint32, node *gltf.Node) error {
	h := l.sc.NewNode(nodeName(node, i))
	if err := l.sc.AddChild(parent, h); err != nil {
		return err
	}
	l.sc.Node(h).Matrix = nodeMatrix(node)
	return l.fillNode(h, node)
}

func (l *loader) fillNode(h scene.Handle, node *gltf.Node) error {
	if node.Mesh != nil {
		if err := l.loadMesh(h, *node.Mesh); err != nil {
			return err
		}
	}
	for _, iChild := range node.Children {
		child, err := l.gltfNode(iChild)
		if err != nil {
			return err
		}
		if err := l.loadNode(h, iChild, child); err != nil {
			return err
		}
	}
	return nil
}

func nodeName(node *gltf.Node, i uint32) string {
	if node.Name != "" {
		return node.Name
	}
	return fmt.Sprintf("node.%d", i)
}

func nodeMatrix(node *gltf.Node) mgl32.Mat4 {
	if node.Matrix != ([16]float32{}) {
		m := mgl32.Mat4(node.Matrix)
		if !utils.IsIdentity(m) {
			return m
		}
	}

	scale := mgl32.Vec3(node.Scale)
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	rot := mgl32.Quat{W: node.Rotation[3], V: mgl32.Vec3{node.Rotation[0], node.Rotation[1], node.Rotation[2]}}
	if node.Rotation == ([4]float32{}) {
		rot = mgl32.QuatIdent()
	}
	t := node.Translation
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func (l *loader) loadMesh(h scene.Handle, iMesh uint32) error {
	if int(iMesh) >= len(l.doc.Meshes) {
		return scene.Structuralf(l.sc.Path(h), "mesh index %d out of range", iMesh)
	}
	mesh := l.doc.Meshes[iMesh]

	for iPrimitive, primitive := range mesh.Primitives {
		if primitive.Mode != gltf.PrimitiveTriangles {
			l.logger.Warn("Skipping non-triangle primitive", "mesh", mesh.Name, "primitive", iPrimitive, "mode", primitive.Mode)
			continue
		}
		name := mesh.Name
		if len(mesh.Primitives) > 1 {
			name = fmt.Sprintf("%s.%d", mesh.Name, iPrimitive)
		}
		m, err := l.loadPrimitive(name, primitive)
		if err != nil {
			return errors.Wrapf(err, "Failed to load mesh %q primitive %d", mesh.Name, iPrimitive)
		}
		if len(m.Faces) == 0 {
			l.logger.Warn("Skipping primitive without faces", "mesh", mesh.Name, "primitive", iPrimitive)
			continue
		}
		if err := l.sc.AddObject(h, m); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) accessor(i uint32) (*gltf.Accessor, error) {
	if int(i) >= len(l.doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", i)
	}
	return l.doc.Accessors[i], nil
}

func (l *loader) loadPrimitive(name string, primitive *gltf.Primitive) (*scene.Mesh, error) {
	iPosition, ok := primitive.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	acr, err := l.accessor(iPosition)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(l.doc, acr, make([][3]float32, 0))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read vertices")
	}

	var normals [][3]float32
	if iNormal, ok := primitive.Attributes["NORMAL"]; ok {
		if acr, err = l.accessor(iNormal); err != nil {
			return nil, err
		}
		if normals, err = modeler.ReadNormal(l.doc, acr, make([][3]float32, 0)); err != nil {
			return nil, errors.Wrapf(err, "Failed to read normals")
		}
	}

	var uvs [][2]float32
	if iUV, ok := primitive.Attributes["TEXCOORD_0"]; ok {
		if acr, err = l.accessor(iUV); err != nil {
			return nil, err
		}
		if uvs, err = modeler.ReadTextureCoord(l.doc, acr, make([][2]float32, 0)); err != nil {
			return nil, errors.Wrapf(err, "Failed to read uvs")
		}
	}

	var indices []uint32
	if primitive.Indices != nil {
		if acr, err = l.accessor(*primitive.Indices); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(l.doc, acr, make([]uint32, 0)); err != nil {
			return nil, errors.Wrapf(err, "Failed to read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	m := scene.NewMesh(name)
	m.Vertices = make([]scene.MeshVertex, len(positions))
	for i, p := range positions {
		v := &m.Vertices[i]
		v.Position = p
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			// gltf uv origin is top left
			v.UV = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
	}

	if len(indices)%3 != 0 {
		l.logger.Warn("Index count is not multiple of 3, tail dropped", "mesh", name, "indices", len(indices))
	}
	for i := 0; i+2 < len(indices); i += 3 {
		f := scene.Face{indices[i], indices[i+1], indices[i+2]}
		for _, idx := range f {
			if int(idx) >= len(positions) {
				return nil, errors.Errorf("index %d out of range of %d vertices", idx, len(positions))
			}
		}
		m.Faces = append(m.Faces, f)
	}

	if primitive.Material != nil && int(*primitive.Material) < len(l.doc.Materials) {
		applyMaterial(&m.Attr, l.doc.Materials[*primitive.Material])
	}
	return m, nil
}

func applyMaterial(a *scene.AttributeSet, mat *gltf.Material) {
	a.TwoSided = mat.DoubleSided
	switch mat.AlphaMode {
	case gltf.AlphaMask:
		cutoff := float32(0.5)
		if mat.AlphaCutoff != nil {
			cutoff = *mat.AlphaCutoff
		}
		a.Blend = scene.Blend{Mode: scene.BlendNoBlend, Ratio: cutoff}
	default:
		a.Blend = scene.Blend{Mode: scene.BlendDefault}
	}
}

// findTexture returns uri of first base color image
func (l *loader) findTexture() string {
	for _, mat := range l.doc.Materials {
		if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
			continue
		}
		iTexture := mat.PBRMetallicRoughness.BaseColorTexture.Index
		if int(iTexture) >= len(l.doc.Textures) {
			continue
		}
		source := l.doc.Textures[iTexture].Source
		if source == nil || int(*source) >= len(l.doc.Images) {
			continue
		}
		img := l.doc.Images[*source]
		if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
			l.logger.Warn("Embedded texture can't be referenced from object file", "image", img.Name)
			continue
		}
		return img.URI
	}
	return ""
}
