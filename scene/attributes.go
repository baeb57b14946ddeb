package scene

type HardSurface struct {
	Surface string
	Deck    bool
}

type BlendMode int

const (
	BlendDefault BlendMode = iota
	BlendNoBlend
	BlendShadow
)

type Blend struct {
	Mode  BlendMode
	Ratio float32
}

type LightLevel struct {
	Low     float32
	High    float32
	Dataref string
}

type Cockpit int

const (
	CockpitNone Cockpit = iota
	CockpitPanel
	CockpitRegion0
	CockpitRegion1
	CockpitRegion2
	CockpitRegion3
)

func CockpitRegion(n int) Cockpit {
	return CockpitRegion0 + Cockpit(n)
}

// Region returns region index or -1 if not region mode
func (c Cockpit) Region() int {
	if c >= CockpitRegion0 && c <= CockpitRegion3 {
		return int(c - CockpitRegion0)
	}
	return -1
}

// AttributeSet is desired surface state of mesh.
// Nil pointer means attribute is absent (disabled).
type AttributeSet struct {
	Hard        *HardSurface
	Shiny       *float32
	Blend       Blend
	PolyOffset  *float32
	LightLevel  *LightLevel
	Cockpit     Cockpit
	Manipulator Manipulator

	TwoSided    bool
	Draped      bool
	CastShadow  bool
	SolidCamera bool
	DrawDisable bool
	NoDepth     bool
}

// DefaultAttributes matches state of format at start of every lod
func DefaultAttributes() AttributeSet {
	return AttributeSet{CastShadow: true}
}

func Float(v float32) *float32 {
	return &v
}

func CopyFloat(v *float32) *float32 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

func FloatEqual(a, b *float32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func HardEqual(a, b *HardSurface) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func LightLevelEqual(a, b *LightLevel) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ManipulatorEqual compares manipulators by value, nil equals none
func ManipulatorEqual(a, b Manipulator) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
