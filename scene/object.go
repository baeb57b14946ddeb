package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type ObjectKind int

const (
	KindMesh ObjectKind = iota
	KindLine
	KindLightNamed
	KindLightCustom
	KindLightParam
	KindLightSpillCustom
	KindLightPoint
	KindDummy
	KindSmoke
)

var objectKindNames = [...]string{
	KindMesh:             "mesh",
	KindLine:             "line",
	KindLightNamed:       "light_named",
	KindLightCustom:      "light_custom",
	KindLightParam:       "light_param",
	KindLightSpillCustom: "light_spill_custom",
	KindLightPoint:       "light_point",
	KindDummy:            "dummy",
	KindSmoke:            "smoke",
}

func (k ObjectKind) String() string {
	if k >= 0 && int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return fmt.Sprintf("ObjectKind(%d)", int(k))
}

// Object is renderable object owned by exactly one node.
// Implemented only by types of this package.
type Object interface {
	ObjectName() string
	Kind() ObjectKind
	isObject()
}

type ObjectBase struct {
	Name string
}

func (o *ObjectBase) ObjectName() string { return o.Name }
func (o *ObjectBase) isObject()          {}

type MeshVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

type Face [3]uint32

type Mesh struct {
	ObjectBase
	Vertices []MeshVertex
	Faces    []Face
	Attr     AttributeSet
}

func NewMesh(name string) *Mesh {
	return &Mesh{ObjectBase: ObjectBase{Name: name}, Attr: DefaultAttributes()}
}

func (*Mesh) Kind() ObjectKind { return KindMesh }

type LineVertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// Line is set of segments, Indices are pairs into Vertices
type Line struct {
	ObjectBase
	Vertices []LineVertex
	Indices  []uint32
}

func (*Line) Kind() ObjectKind { return KindLine }

type LightNamed struct {
	ObjectBase
	LightName string
	Position  mgl32.Vec3
}

func (*LightNamed) Kind() ObjectKind { return KindLightNamed }

type LightCustom struct {
	ObjectBase
	Position mgl32.Vec3
	Color    mgl32.Vec4
	Size     float32
	// s1 t1 s2 t2
	TexRect mgl32.Vec4
	Dataref string
}

func (*LightCustom) Kind() ObjectKind { return KindLightCustom }

type LightParam struct {
	ObjectBase
	LightName string
	Position  mgl32.Vec3
	Params    string
}

func (*LightParam) Kind() ObjectKind { return KindLightParam }

type LightSpillCustom struct {
	ObjectBase
	Position  mgl32.Vec3
	Color     mgl32.Vec4
	Size      float32
	Direction mgl32.Vec3
	SemiAngle float32
	Dataref   string
}

func (*LightSpillCustom) Kind() ObjectKind { return KindLightSpillCustom }

// LightPoint goes to VLIGHT pool
type LightPoint struct {
	ObjectBase
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

func (*LightPoint) Kind() ObjectKind { return KindLightPoint }

type Dummy struct {
	ObjectBase
}

func (*Dummy) Kind() ObjectKind { return KindDummy }

type SmokeKind int

const (
	SmokeBlack SmokeKind = iota
	SmokeWhite
)

type Smoke struct {
	ObjectBase
	SmokeKind SmokeKind
	Position  mgl32.Vec3
	Size      float32
}

func (*Smoke) Kind() ObjectKind { return KindSmoke }
