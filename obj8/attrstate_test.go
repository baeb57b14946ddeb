package obj8

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

func applyAll(t *testing.T, s *AttrState, sets ...scene.AttributeSet) []string {
	t.Helper()
	var buf bytes.Buffer
	out := NewLineWriter(&buf)
	for _, a := range sets {
		s.Apply(out, a)
	}
	require.NoError(t, out.Flush())
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func withPolyOffset(v *float32) scene.AttributeSet {
	a := scene.DefaultAttributes()
	a.PolyOffset = v
	return a
}

func TestPolyOffsetTransitions(t *testing.T) {
	s := NewAttrState(nil, utils.DiscardLogger())
	lines := applyAll(t, s,
		withPolyOffset(scene.Float(1)),
		withPolyOffset(scene.Float(1)),
		withPolyOffset(scene.Float(1)),
		withPolyOffset(nil),
	)
	assert.Equal(t, []string{"ATTR_poly_os 1", "ATTR_poly_os 0"}, lines)
	assert.Equal(t, 2, s.Attributes)
}

func TestApplyIdempotent(t *testing.T) {
	a := scene.DefaultAttributes()
	a.Hard = &scene.HardSurface{Surface: "concrete"}
	a.Shiny = scene.Float(0.5)
	a.Blend = scene.Blend{Mode: scene.BlendNoBlend, Ratio: 0.25}
	a.TwoSided = true
	a.CastShadow = false
	a.Cockpit = scene.CockpitRegion(2)
	a.LightLevel = &scene.LightLevel{Low: 0, High: 1, Dataref: "sim/light"}

	s := NewAttrState(nil, utils.DiscardLogger())
	first := applyAll(t, s, a)
	assert.Len(t, first, 7)
	assert.Equal(t, 7, s.Attributes)

	again := applyAll(t, s, a, a)
	assert.Empty(t, again, "unchanged attributes are not repeated")

	b := a
	b.TwoSided = false
	assert.Equal(t, []string{"ATTR_cull"}, applyAll(t, s, b))
}

func TestApplySpellings(t *testing.T) {
	tests := []struct {
		name    string
		change  func(a *scene.AttributeSet)
		enable  string
		disable string
	}{
		{"hard", func(a *scene.AttributeSet) { a.Hard = &scene.HardSurface{Surface: "grass"} }, "ATTR_hard grass", "ATTR_no_hard"},
		{"hard_deck", func(a *scene.AttributeSet) { a.Hard = &scene.HardSurface{Deck: true} }, "ATTR_hard_deck", "ATTR_no_hard"},
		{"shiny", func(a *scene.AttributeSet) { a.Shiny = scene.Float(0.75) }, "ATTR_shiny_rat 0.75", "ATTR_shiny_rat 0"},
		{"shadow_blend", func(a *scene.AttributeSet) { a.Blend = scene.Blend{Mode: scene.BlendShadow, Ratio: 0.5} }, "ATTR_shadow_blend 0.5", "ATTR_blend"},
		{"light_level", func(a *scene.AttributeSet) { a.LightLevel = &scene.LightLevel{Low: 0.1, High: 2} }, "ATTR_light_level 0.1 2 none", "ATTR_light_level_reset"},
		{"cockpit", func(a *scene.AttributeSet) { a.Cockpit = scene.CockpitPanel }, "ATTR_cockpit", "ATTR_no_cockpit"},
		{"draped", func(a *scene.AttributeSet) { a.Draped = true }, "ATTR_draped", "ATTR_no_draped"},
		{"shadow", func(a *scene.AttributeSet) { a.CastShadow = false }, "ATTR_no_shadow", "ATTR_shadow"},
		{"solid_camera", func(a *scene.AttributeSet) { a.SolidCamera = true }, "ATTR_solid_camera", "ATTR_no_solid_camera"},
		{"draw_disable", func(a *scene.AttributeSet) { a.DrawDisable = true }, "ATTR_draw_disable", "ATTR_draw_enable"},
		{"no_depth", func(a *scene.AttributeSet) { a.NoDepth = true }, "ATTR_no_depth", "ATTR_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAttrState(nil, utils.DiscardLogger())
			changed := scene.DefaultAttributes()
			tt.change(&changed)
			lines := applyAll(t, s, changed, scene.DefaultAttributes())
			assert.Equal(t, []string{tt.enable, tt.disable}, lines)
		})
	}
}

func TestApplyManipulator(t *testing.T) {
	tables := &reftables.Tables{Datarefs: reftables.NewTable("datarefs"), Commands: reftables.NewTable("commands")}
	tables.Datarefs.Set(7, "sim/cockpit/switch")
	tables.Commands.Set(3, "sim/lights/toggle")

	s := NewAttrState(tables, utils.DiscardLogger())
	a := scene.DefaultAttributes()
	a.Cockpit = scene.CockpitPanel
	a.Manipulator = scene.ManipToggle{Cursor: "button", On: 1, Off: 0, Dataref: "@7", Tooltip: "Landing\nlights"}
	b := a
	b.Manipulator = scene.ManipCommand{Command: "@3"}

	lines := applyAll(t, s, a, a, b, scene.DefaultAttributes())
	assert.Equal(t, []string{
		"ATTR_cockpit",
		"ATTR_manip_toggle button 1 0 sim/cockpit/switch Landing lights",
		"ATTR_manip_command hand sim/lights/toggle",
		"ATTR_no_cockpit",
		"ATTR_manip_none",
	}, lines)
	assert.Equal(t, 3, s.Manipulators)
	assert.Equal(t, 2, s.Attributes)
}

func TestResetAtLOD(t *testing.T) {
	s := NewAttrState(nil, utils.DiscardLogger())
	a := withPolyOffset(scene.Float(2))
	assert.Len(t, applyAll(t, s, a), 1)
	s.Reset()
	assert.Len(t, applyAll(t, s, a), 1, "state after reset is format default")
}

func TestParseReplaysApply(t *testing.T) {
	a := scene.DefaultAttributes()
	a.Hard = &scene.HardSurface{Surface: "concrete", Deck: true}
	a.Blend = scene.Blend{Mode: scene.BlendNoBlend, Ratio: 0.3}
	a.PolyOffset = scene.Float(3)
	a.Cockpit = scene.CockpitRegion(1)
	a.NoDepth = true
	a.Manipulator = scene.ManipDragAxis{Cursor: "hand", Direction: [3]float32{0, 1, 0}, Low: 0, High: 1, Dataref: "sim/lever", Tooltip: "Pull the lever"}

	writer := NewAttrState(nil, utils.DiscardLogger())
	lines := applyAll(t, writer, a)

	records, err := Tokenize([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)

	reader := NewAttrState(nil, utils.DiscardLogger())
	for _, r := range records {
		handled, err := reader.Parse(r)
		require.NoError(t, err)
		assert.True(t, handled, r.Keyword())
	}
	got := reader.Active()
	assert.True(t, scene.HardEqual(a.Hard, got.Hard))
	assert.Equal(t, a.Blend, got.Blend)
	assert.True(t, scene.FloatEqual(a.PolyOffset, got.PolyOffset))
	assert.Equal(t, a.Cockpit, got.Cockpit)
	assert.True(t, got.NoDepth)
	assert.True(t, scene.ManipulatorEqual(a.Manipulator, got.Manipulator))
	assert.Equal(t, writer.Attributes, reader.Attributes)

	handled, err := reader.Parse(&Record{Fields: []string{"TRIS", "0", "3"}})
	assert.NoError(t, err)
	assert.False(t, handled)
}

func TestApplyUnknownAxisKind(t *testing.T) {
	s := NewAttrState(nil, utils.DiscardLogger())
	bad := scene.DefaultAttributes()
	bad.Cockpit = scene.CockpitPanel
	bad.Manipulator = scene.ManipAxis{Kind: scene.AxisKind(7), Dataref: "sim/knob"}
	good := bad
	good.Manipulator = scene.ManipCommandKnob{Kind: scene.AxisSwitchUpDown, PosCommand: "sim/up", NegCommand: "sim/down"}

	lines := applyAll(t, s, bad, good, bad)
	assert.Equal(t, []string{
		"ATTR_cockpit",
		"ATTR_manip_command_switch_up_down hand sim/up sim/down",
		"ATTR_manip_none",
	}, lines)
}
