package scene

import (
	"github.com/pkg/errors"
)

// Typed parameter values returned by Manipulator.Params
type (
	Cursor     string
	DatarefRef string
	CommandRef string
	Tooltip    string
)

// Manipulator is interactive control attached to mesh.
// Implementations are comparable values.
type Manipulator interface {
	Keyword() string
	// Params are float32, Cursor, DatarefRef, CommandRef and Tooltip in file order
	Params() []interface{}
}

type ManipNoop struct{}

type ManipDragAxis struct {
	Cursor    string
	Direction [3]float32
	Low       float32
	High      float32
	Dataref   string
	Tooltip   string
}

type ManipDragXY struct {
	Cursor   string
	DX, DY   float32
	LowX     float32
	HighX    float32
	LowY     float32
	HighY    float32
	DatarefX string
	DatarefY string
	Tooltip  string
}

type ManipCommand struct {
	Cursor  string
	Command string
	Tooltip string
}

type ManipCommandAxis struct {
	Cursor     string
	Direction  [3]float32
	PosCommand string
	NegCommand string
	Tooltip    string
}

type ManipPush struct {
	Cursor  string
	Down    float32
	Up      float32
	Dataref string
	Tooltip string
}

type ManipRadio struct {
	Cursor  string
	Down    float32
	Dataref string
	Tooltip string
}

type ManipToggle struct {
	Cursor  string
	On      float32
	Off     float32
	Dataref string
	Tooltip string
}

// ManipDelta and ManipWrap share layout
type ManipDelta struct {
	Cursor  string
	Down    float32
	Hold    float32
	Min     float32
	Max     float32
	Dataref string
	Tooltip string
}

type ManipWrap ManipDelta

type AxisKind int

const (
	AxisKnob AxisKind = iota
	AxisSwitchUpDown
	AxisSwitchLeftRight
)

// ManipAxis is axis_knob and axis_switch_* family
type ManipAxis struct {
	Kind      AxisKind
	Cursor    string
	Min       float32
	Max       float32
	ClickStep float32
	HoldStep  float32
	Dataref   string
	Tooltip   string
}

// ManipCommandKnob is command_knob and command_switch_* family
type ManipCommandKnob struct {
	Kind       AxisKind
	Cursor     string
	PosCommand string
	NegCommand string
	Tooltip    string
}

func (ManipNoop) Keyword() string       { return "ATTR_manip_noop" }
func (ManipNoop) Params() []interface{} { return nil }

func (m ManipDragAxis) Keyword() string { return "ATTR_manip_drag_axis" }
func (m ManipDragAxis) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Direction[0], m.Direction[1], m.Direction[2],
		m.Low, m.High, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipDragXY) Keyword() string { return "ATTR_manip_drag_xy" }
func (m ManipDragXY) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.DX, m.DY, m.LowX, m.HighX, m.LowY, m.HighY,
		DatarefRef(m.DatarefX), DatarefRef(m.DatarefY), Tooltip(m.Tooltip)}
}

func (m ManipCommand) Keyword() string { return "ATTR_manip_command" }
func (m ManipCommand) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), CommandRef(m.Command), Tooltip(m.Tooltip)}
}

func (m ManipCommandAxis) Keyword() string { return "ATTR_manip_command_axis" }
func (m ManipCommandAxis) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Direction[0], m.Direction[1], m.Direction[2],
		CommandRef(m.PosCommand), CommandRef(m.NegCommand), Tooltip(m.Tooltip)}
}

func (m ManipPush) Keyword() string { return "ATTR_manip_push" }
func (m ManipPush) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Down, m.Up, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipRadio) Keyword() string { return "ATTR_manip_radio" }
func (m ManipRadio) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Down, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipToggle) Keyword() string { return "ATTR_manip_toggle" }
func (m ManipToggle) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.On, m.Off, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipDelta) Keyword() string { return "ATTR_manip_delta" }
func (m ManipDelta) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Down, m.Hold, m.Min, m.Max, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipWrap) Keyword() string { return "ATTR_manip_wrap" }
func (m ManipWrap) Params() []interface{} {
	return ManipDelta(m).Params()
}

var axisKeywords = [...]string{
	AxisKnob:            "ATTR_manip_axis_knob",
	AxisSwitchUpDown:    "ATTR_manip_axis_switch_up_down",
	AxisSwitchLeftRight: "ATTR_manip_axis_switch_left_right",
}

var commandKnobKeywords = [...]string{
	AxisKnob:            "ATTR_manip_command_knob",
	AxisSwitchUpDown:    "ATTR_manip_command_switch_up_down",
	AxisSwitchLeftRight: "ATTR_manip_command_switch_left_right",
}

// keyword returns empty string for unknown kind
func (k AxisKind) keyword(keywords []string) string {
	if k < 0 || int(k) >= len(keywords) {
		return ""
	}
	return keywords[k]
}

func (m ManipAxis) Keyword() string { return m.Kind.keyword(axisKeywords[:]) }
func (m ManipAxis) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), m.Min, m.Max, m.ClickStep, m.HoldStep, DatarefRef(m.Dataref), Tooltip(m.Tooltip)}
}

func (m ManipCommandKnob) Keyword() string { return m.Kind.keyword(commandKnobKeywords[:]) }
func (m ManipCommandKnob) Params() []interface{} {
	return []interface{}{Cursor(m.Cursor), CommandRef(m.PosCommand), CommandRef(m.NegCommand), Tooltip(m.Tooltip)}
}

// ManipSchema describes parameter layout of keyword:
// c - cursor, f - float, d - dataref, m - command, t - tooltip (rest of line)
var ManipSchema = map[string]string{
	"ATTR_manip_noop":                      "",
	"ATTR_manip_drag_axis":                 "cfffffdt",
	"ATTR_manip_drag_xy":                   "cffffffddt",
	"ATTR_manip_command":                   "cmt",
	"ATTR_manip_command_axis":              "cfffmmt",
	"ATTR_manip_push":                      "cffdt",
	"ATTR_manip_radio":                     "cfdt",
	"ATTR_manip_toggle":                    "cffdt",
	"ATTR_manip_delta":                     "cffffdt",
	"ATTR_manip_wrap":                      "cffffdt",
	"ATTR_manip_axis_knob":                 "cffffdt",
	"ATTR_manip_axis_switch_up_down":       "cffffdt",
	"ATTR_manip_axis_switch_left_right":    "cffffdt",
	"ATTR_manip_command_knob":              "cmmt",
	"ATTR_manip_command_switch_up_down":    "cmmt",
	"ATTR_manip_command_switch_left_right": "cmmt",
}

type manipArgs struct {
	p []interface{}
	i int
}

func (a *manipArgs) next() interface{} {
	v := a.p[a.i]
	a.i++
	return v
}

func (a *manipArgs) f() float32 { return a.next().(float32) }
func (a *manipArgs) s() string {
	switch v := a.next().(type) {
	case Cursor:
		return string(v)
	case DatarefRef:
		return string(v)
	case CommandRef:
		return string(v)
	case Tooltip:
		return string(v)
	default:
		return v.(string)
	}
}

// NewManipulator builds manipulator from keyword and params laid out by ManipSchema
func NewManipulator(keyword string, params []interface{}) (m Manipulator, err error) {
	schema, ok := ManipSchema[keyword]
	if !ok {
		return nil, errors.Errorf("Unknown manipulator %q", keyword)
	}
	if len(params) != len(schema) {
		return nil, errors.Errorf("Manipulator %q expects %d params, got %d", keyword, len(schema), len(params))
	}
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, errors.Errorf("Manipulator %q has wrong param types: %v", keyword, r)
		}
	}()

	a := &manipArgs{p: params}
	switch keyword {
	case "ATTR_manip_noop":
		return ManipNoop{}, nil
	case "ATTR_manip_drag_axis":
		return ManipDragAxis{Cursor: a.s(), Direction: [3]float32{a.f(), a.f(), a.f()},
			Low: a.f(), High: a.f(), Dataref: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_drag_xy":
		return ManipDragXY{Cursor: a.s(), DX: a.f(), DY: a.f(), LowX: a.f(), HighX: a.f(),
			LowY: a.f(), HighY: a.f(), DatarefX: a.s(), DatarefY: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_command":
		return ManipCommand{Cursor: a.s(), Command: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_command_axis":
		return ManipCommandAxis{Cursor: a.s(), Direction: [3]float32{a.f(), a.f(), a.f()},
			PosCommand: a.s(), NegCommand: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_push":
		return ManipPush{Cursor: a.s(), Down: a.f(), Up: a.f(), Dataref: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_radio":
		return ManipRadio{Cursor: a.s(), Down: a.f(), Dataref: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_toggle":
		return ManipToggle{Cursor: a.s(), On: a.f(), Off: a.f(), Dataref: a.s(), Tooltip: a.s()}, nil
	case "ATTR_manip_delta", "ATTR_manip_wrap":
		d := ManipDelta{Cursor: a.s(), Down: a.f(), Hold: a.f(), Min: a.f(), Max: a.f(), Dataref: a.s(), Tooltip: a.s()}
		if keyword == "ATTR_manip_wrap" {
			return ManipWrap(d), nil
		}
		return d, nil
	}

	for kind, kw := range axisKeywords {
		if kw == keyword {
			return ManipAxis{Kind: AxisKind(kind), Cursor: a.s(), Min: a.f(), Max: a.f(),
				ClickStep: a.f(), HoldStep: a.f(), Dataref: a.s(), Tooltip: a.s()}, nil
		}
	}
	for kind, kw := range commandKnobKeywords {
		if kw == keyword {
			return ManipCommandKnob{Kind: AxisKind(kind), Cursor: a.s(), PosCommand: a.s(),
				NegCommand: a.s(), Tooltip: a.s()}, nil
		}
	}
	return nil, errors.Errorf("Unknown manipulator %q", keyword)
}
