package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type ChannelKind int

const (
	ChannelTranslate ChannelKind = iota
	ChannelRotate
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelTranslate:
		return "translate"
	case ChannelRotate:
		return "rotate"
	default:
		return fmt.Sprintf("ChannelKind(%d)", int(k))
	}
}

// NoneDataref is written for channels which do not depend on any dataref
const NoneDataref = "none"

// Key binds dataref value to position (translation) or angle in degrees (rotation)
type Key struct {
	Value    float32
	Position mgl32.Vec3
	Angle    float32
}

// Channel is ordered list of keys driven by one dataref.
// Order of keys is significant and never changed.
type Channel struct {
	Kind    ChannelKind
	Dataref string
	Axis    mgl32.Vec3
	Keys    []Key
	// Loop period, 0 means no loop
	Loop float32
}

func NewTranslation(dataref string, keys ...Key) *Channel {
	return &Channel{Kind: ChannelTranslate, Dataref: dataref, Keys: keys}
}

func NewRotation(dataref string, axis mgl32.Vec3, keys ...Key) *Channel {
	return &Channel{Kind: ChannelRotate, Dataref: dataref, Axis: axis, Keys: keys}
}

func TranslateKey(value float32, pos mgl32.Vec3) Key {
	return Key{Value: value, Position: pos}
}

func RotateKey(value float32, angle float32) Key {
	return Key{Value: value, Angle: angle}
}

// KeyMatrix returns transform of key i
func (ch *Channel) KeyMatrix(i int) mgl32.Mat4 {
	k := ch.Keys[i]
	if ch.Kind == ChannelTranslate {
		return mgl32.Translate3D(k.Position[0], k.Position[1], k.Position[2])
	}
	axis := ch.Axis
	if l := axis.Len(); l > 0 {
		axis = axis.Mul(1 / l)
	} else {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(k.Angle), axis)
}

func (ch *Channel) Clone() *Channel {
	c := *ch
	c.Keys = append([]Key(nil), ch.Keys...)
	return &c
}

type VisibilityKey struct {
	Show    bool
	Low     float32
	High    float32
	Dataref string
}

type VisibilityChannel struct {
	Keys []VisibilityKey
}

func (vc *VisibilityChannel) Add(show bool, low, high float32, dataref string) {
	vc.Keys = append(vc.Keys, VisibilityKey{Show: show, Low: low, High: high, Dataref: dataref})
}
