package obj8

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

const (
	defaultBlendRatio = 0.5
	defaultCursor     = "hand"
)

// AttrState tracks attributes active in file being written or read.
// Writing emits only records which change active state.
// Owned by one pass, must be Reset at start of every lod.
type AttrState struct {
	active scene.AttributeSet
	tables *reftables.Tables
	logger *log.Logger

	Geometry     int
	Attributes   int
	Manipulators int
}

func NewAttrState(tables *reftables.Tables, logger *log.Logger) *AttrState {
	s := &AttrState{tables: tables, logger: utils.LoggerOr(logger)}
	s.Reset()
	return s
}

// Reset returns to state format has at beginning of lod
func (s *AttrState) Reset() {
	s.active = scene.DefaultAttributes()
}

func (s *AttrState) Active() scene.AttributeSet { return s.active }

// zero and absent are same for numeric attributes
func normalize(a scene.AttributeSet) scene.AttributeSet {
	if a.Shiny != nil && *a.Shiny == 0 {
		a.Shiny = nil
	}
	if a.PolyOffset != nil && *a.PolyOffset == 0 {
		a.PolyOffset = nil
	}
	if a.Blend.Mode == scene.BlendDefault {
		a.Blend.Ratio = 0
	}
	if a.Cockpit.Region() < 0 && a.Cockpit != scene.CockpitPanel {
		a.Cockpit = scene.CockpitNone
	}
	return a
}

func (s *AttrState) attr(out *LineWriter, fields ...interface{}) {
	out.Line(fields...)
	s.Attributes++
}

func (s *AttrState) flag(out *LineWriter, active *bool, desired bool, enable, disable string) {
	if *active == desired {
		return
	}
	if desired {
		s.attr(out, enable)
	} else {
		s.attr(out, disable)
	}
	*active = desired
}

// Apply writes transitions from active state to desired
func (s *AttrState) Apply(out *LineWriter, desired scene.AttributeSet) {
	desired = normalize(desired)
	a := &s.active

	if !scene.HardEqual(a.Hard, desired.Hard) {
		if h := desired.Hard; h == nil {
			s.attr(out, "ATTR_no_hard")
		} else {
			kw := "ATTR_hard"
			if h.Deck {
				kw = "ATTR_hard_deck"
			}
			if h.Surface != "" {
				s.attr(out, kw, h.Surface)
			} else {
				s.attr(out, kw)
			}
			hc := *h
			desired.Hard = &hc
		}
		a.Hard = desired.Hard
	}

	if !scene.FloatEqual(a.Shiny, desired.Shiny) {
		if desired.Shiny == nil {
			s.attr(out, "ATTR_shiny_rat", float32(0))
		} else {
			s.attr(out, "ATTR_shiny_rat", *desired.Shiny)
		}
		a.Shiny = scene.CopyFloat(desired.Shiny)
	}

	if a.Blend != desired.Blend {
		switch desired.Blend.Mode {
		case scene.BlendNoBlend:
			s.attr(out, "ATTR_no_blend", desired.Blend.Ratio)
		case scene.BlendShadow:
			s.attr(out, "ATTR_shadow_blend", desired.Blend.Ratio)
		default:
			s.attr(out, "ATTR_blend")
		}
		a.Blend = desired.Blend
	}

	if !scene.FloatEqual(a.PolyOffset, desired.PolyOffset) {
		if desired.PolyOffset == nil {
			s.attr(out, "ATTR_poly_os", float32(0))
		} else {
			s.attr(out, "ATTR_poly_os", *desired.PolyOffset)
		}
		a.PolyOffset = scene.CopyFloat(desired.PolyOffset)
	}

	if !scene.LightLevelEqual(a.LightLevel, desired.LightLevel) {
		if ll := desired.LightLevel; ll == nil {
			s.attr(out, "ATTR_light_level_reset")
		} else {
			s.attr(out, "ATTR_light_level", ll.Low, ll.High, s.dataref(ll.Dataref))
			llc := *ll
			desired.LightLevel = &llc
		}
		a.LightLevel = desired.LightLevel
	}

	if a.Cockpit != desired.Cockpit {
		switch {
		case desired.Cockpit == scene.CockpitPanel:
			s.attr(out, "ATTR_cockpit")
		case desired.Cockpit.Region() >= 0:
			s.attr(out, "ATTR_cockpit_region", desired.Cockpit.Region())
		default:
			s.attr(out, "ATTR_no_cockpit")
		}
		a.Cockpit = desired.Cockpit
	}

	s.flag(out, &a.TwoSided, desired.TwoSided, "ATTR_no_cull", "ATTR_cull")
	s.flag(out, &a.Draped, desired.Draped, "ATTR_draped", "ATTR_no_draped")
	s.flag(out, &a.CastShadow, desired.CastShadow, "ATTR_shadow", "ATTR_no_shadow")
	s.flag(out, &a.SolidCamera, desired.SolidCamera, "ATTR_solid_camera", "ATTR_no_solid_camera")
	s.flag(out, &a.DrawDisable, desired.DrawDisable, "ATTR_draw_disable", "ATTR_draw_enable")
	s.flag(out, &a.NoDepth, desired.NoDepth, "ATTR_no_depth", "ATTR_depth")

	manip := desired.Manipulator
	if manip != nil && manip.Keyword() == "" {
		s.logger.Warn("Unknown manipulator kind skipped", "manipulator", fmt.Sprintf("%#v", manip))
		manip = nil
	}
	if !scene.ManipulatorEqual(a.Manipulator, manip) {
		if manip == nil {
			out.Line("ATTR_manip_none")
		} else {
			if desired.Cockpit == scene.CockpitNone {
				s.logger.Warn("Manipulator on mesh outside of cockpit", "manipulator", manip.Keyword())
			}
			out.Line(s.manipFields(manip)...)
		}
		s.Manipulators++
		a.Manipulator = manip
	}
}

func (s *AttrState) dataref(d string) string {
	if d == "" {
		return scene.NoneDataref
	}
	return s.tables.ResolveDataref(d, s.logger)
}

func (s *AttrState) manipFields(m scene.Manipulator) []interface{} {
	fields := []interface{}{m.Keyword()}
	for _, p := range m.Params() {
		switch v := p.(type) {
		case scene.Cursor:
			if v == "" {
				v = defaultCursor
			}
			fields = append(fields, string(v))
		case scene.DatarefRef:
			fields = append(fields, s.dataref(string(v)))
		case scene.CommandRef:
			cmd := string(v)
			if cmd == "" {
				cmd = scene.NoneDataref
			}
			fields = append(fields, s.tables.ResolveCommand(cmd, s.logger))
		case scene.Tooltip:
			if t := singleLine(string(v)); t != "" {
				fields = append(fields, t)
			}
		case float32:
			fields = append(fields, v)
		}
	}
	return fields
}

// Parse applies attribute record to active state.
// Returns false if keyword is not attribute.
func (s *AttrState) Parse(r *Record) (bool, error) {
	a := &s.active
	kw := r.Keyword()

	switch kw {
	case "ATTR_reset":
		s.Reset()
	case "ATTR_hard", "ATTR_hard_deck":
		h := &scene.HardSurface{Deck: kw == "ATTR_hard_deck"}
		if r.Has(1) {
			h.Surface = r.String(1)
		}
		a.Hard = h
	case "ATTR_no_hard":
		a.Hard = nil
	case "ATTR_shiny_rat":
		a.Shiny = scene.Float(r.Float(1))
	case "ATTR_blend":
		a.Blend = scene.Blend{}
	case "ATTR_no_blend", "ATTR_shadow_blend":
		b := scene.Blend{Mode: scene.BlendNoBlend, Ratio: defaultBlendRatio}
		if kw == "ATTR_shadow_blend" {
			b.Mode = scene.BlendShadow
		}
		if r.Has(1) {
			b.Ratio = r.Float(1)
		}
		a.Blend = b
	case "ATTR_poly_os":
		a.PolyOffset = scene.Float(r.Float(1))
	case "ATTR_light_level":
		a.LightLevel = &scene.LightLevel{Low: r.Float(1), High: r.Float(2), Dataref: s.tables.ResolveDataref(r.String(3), s.logger)}
	case "ATTR_light_level_reset":
		a.LightLevel = nil
	case "ATTR_cockpit":
		a.Cockpit = scene.CockpitPanel
	case "ATTR_cockpit_region":
		a.Cockpit = scene.CockpitRegion(int(r.Uint(1)))
		if a.Cockpit.Region() < 0 {
			r.fail("cockpit region out of range")
		}
	case "ATTR_no_cockpit":
		a.Cockpit = scene.CockpitNone
	case "ATTR_no_cull", "ATTR_cull":
		a.TwoSided = kw == "ATTR_no_cull"
	case "ATTR_draped", "ATTR_no_draped":
		a.Draped = kw == "ATTR_draped"
	case "ATTR_shadow", "ATTR_no_shadow":
		a.CastShadow = kw == "ATTR_shadow"
	case "ATTR_solid_camera", "ATTR_no_solid_camera":
		a.SolidCamera = kw == "ATTR_solid_camera"
	case "ATTR_draw_disable", "ATTR_draw_enable":
		a.DrawDisable = kw == "ATTR_draw_disable"
	case "ATTR_no_depth", "ATTR_depth":
		a.NoDepth = kw == "ATTR_no_depth"
	case "ATTR_manip_none":
		a.Manipulator = nil
		s.Manipulators++
		return true, r.Err()
	default:
		if _, ok := scene.ManipSchema[kw]; ok {
			m, err := s.parseManipulator(r)
			if err != nil {
				return true, err
			}
			a.Manipulator = m
			s.Manipulators++
			return true, nil
		}
		return false, nil
	}
	s.active = normalize(s.active)
	s.Attributes++
	return true, r.Err()
}

func (s *AttrState) parseManipulator(r *Record) (scene.Manipulator, error) {
	schema := scene.ManipSchema[r.Keyword()]
	params := make([]interface{}, 0, len(schema))
	for i, c := range schema {
		field := i + 1
		switch c {
		case 'c':
			params = append(params, scene.Cursor(r.String(field)))
		case 'f':
			params = append(params, r.Float(field))
		case 'd':
			params = append(params, scene.DatarefRef(s.tables.ResolveDataref(r.String(field), s.logger)))
		case 'm':
			params = append(params, scene.CommandRef(s.tables.ResolveCommand(r.String(field), s.logger)))
		case 't':
			params = append(params, scene.Tooltip(r.Text(field)))
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	m, err := scene.NewManipulator(r.Keyword(), params)
	if err != nil {
		return nil, scene.Structuralf(fmt.Sprintf("line %d", r.Line), "%v", err)
	}
	return m, nil
}
