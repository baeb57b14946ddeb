package obj8

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

// lights smaller than this are practically invisible
const minLightSize = 0.01

type WriterParams struct {
	Options   config.Options
	Tables    *reftables.Tables
	Signature string
	Logger    *log.Logger
	// Stats are reset and filled by writer if not nil
	Stats *Stats
}

// Writer serializes scene which was already sorted and corrected.
// Node matrices are treated as matrices of owned objects,
// channel values are written as is.
type Writer struct {
	sc     *scene.Scene
	params WriterParams
	logger *log.Logger
	stats  *Stats

	out   *LineWriter
	attrs *AttrState
	pools Pools
	spans map[scene.Object]span
}

func NewWriter(sc *scene.Scene, params WriterParams) *Writer {
	stats := params.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.Reset()
	logger := utils.LoggerOr(params.Logger)
	return &Writer{
		sc:     sc,
		params: params,
		logger: logger,
		stats:  stats,
		attrs:  NewAttrState(params.Tables, logger),
		spans:  make(map[scene.Object]span),
	}
}

func (w *Writer) Stats() *Stats { return w.stats }

func (w *Writer) groups() []*scene.LODGroup {
	groups := append([]*scene.LODGroup(nil), w.sc.LODs...)
	if w.sc.Draped != nil {
		groups = append(groups, w.sc.Draped)
	}
	return groups
}

// Collect transforms geometry into pools and counts objects.
// Must be called once before WriteTo.
func (w *Writer) Collect(ctx context.Context) error {
	for _, g := range w.groups() {
		w.stats.LODs++
		err := w.sc.Walk(g.Root, func(h scene.Handle, n *scene.Node, _ int) error {
			if err := scene.Interrupted(ctx); err != nil {
				return err
			}
			if n.HasTranslation() {
				w.stats.TranslationAnims++
			}
			if n.HasRotation() {
				w.stats.RotationAnims++
			}
			if n.HasVisibility() {
				w.stats.VisibilityAnims++
			}
			for _, o := range n.Objects {
				w.collectObject(o, n.Matrix)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	w.stats.MeshVertices = len(w.pools.Vertices)
	w.stats.LineVertices = len(w.pools.LineVertices)
	w.stats.LightVertices = len(w.pools.LightVertices)
	w.stats.Indices = len(w.pools.Indices)

	if w.sc.Texture == "" && w.stats.Meshes != 0 {
		w.logger.Warn("Main texture is not set")
	}
	return nil
}

func (w *Writer) collectObject(o scene.Object, mat mgl32.Mat4) {
	switch v := o.(type) {
	case *scene.Mesh:
		w.stats.Meshes++
		w.stats.Faces += len(v.Faces)
		w.spans[o] = w.pools.AddMesh(v, mat)
	case *scene.Line:
		w.stats.Lines++
		w.spans[o] = w.pools.AddLine(v, mat)
	case *scene.LightPoint:
		w.stats.Lights++
		w.spans[o] = w.pools.AddLight(v, mat)
	case *scene.LightNamed, *scene.LightParam:
		w.stats.Lights++
	case *scene.LightCustom:
		w.stats.Lights++
		w.checkLightSize(v.Name, v.Size)
	case *scene.LightSpillCustom:
		w.stats.Lights++
		w.checkLightSize(v.Name, v.Size)
	case *scene.Smoke:
		w.stats.Smokes++
	case *scene.Dummy:
		w.stats.Dummies++
	}
}

func (w *Writer) checkLightSize(name string, size float32) {
	if size < minLightSize {
		w.logger.Warn("Light is too small to be visible", "light", name, "size", size)
	}
}

func (w *Writer) dataref(d string) string {
	if d == "" {
		return scene.NoneDataref
	}
	return w.params.Tables.ResolveDataref(d, w.logger)
}

func (w *Writer) enabled(opt config.Option) bool {
	return w.params.Options.IsEnabled(opt)
}

// WriteTo writes whole file
func (w *Writer) WriteTo(ctx context.Context, dst io.Writer) error {
	w.out = NewLineWriter(dst)
	out := w.out

	out.Line("I")
	out.Line(headerVersion)
	out.Line(headerKind)
	out.Blank()

	if w.sc.Texture != "" {
		out.Line("TEXTURE", w.sc.Texture)
	}
	if w.sc.TextureLit != "" {
		out.Line("TEXTURE_LIT", w.sc.TextureLit)
	}
	if w.sc.TextureNormal != "" {
		out.Line("TEXTURE_NORMAL", w.sc.TextureNormal)
	}
	for _, g := range []struct {
		set bool
		kw  string
	}{
		{w.sc.Tilted, "TILTED"},
		{w.sc.BlendGlass, "BLEND_GLASS"},
		{w.sc.NoShadow, "GLOBAL_no_shadow"},
		{w.sc.CockpitLit, "GLOBAL_cockpit_lit"},
	} {
		if g.set {
			out.Line(g.kw)
		}
	}

	w.pools.WriteCounts(out)
	out.Blank()
	w.pools.Write(out)
	out.Blank()

	for _, g := range w.groups() {
		if err := w.writeGroup(ctx, g); err != nil {
			return err
		}
	}

	if w.enabled(config.OptSignature) && w.params.Signature != "" {
		out.Blank()
		for _, line := range strings.Split(strings.TrimRight(w.params.Signature, "\n"), "\n") {
			w.out.writeString(signaturePfx + strings.TrimRight(line, "\r") + "\n")
			out.lines++
		}
	}
	if !w.enabled(config.OptSkipTrailer) {
		out.Blank()
		out.writeString(trailerPrefix + Version + "\n")
		out.lines++
	}

	w.stats.AttributeRecords = w.attrs.Attributes
	w.stats.ManipulatorRecords = w.attrs.Manipulators
	w.stats.GeometryRecords = w.attrs.Geometry
	w.stats.LinesWritten = out.Lines()

	return errors.Wrapf(out.Flush(), "Failed to write file")
}

func (w *Writer) writeGroup(ctx context.Context, g *scene.LODGroup) error {
	if w.enabled(config.OptMarkLOD) {
		w.out.Comment("lod " + g.Name)
	}
	if g == w.sc.Draped {
		w.out.Line("ATTR_LOD_draped")
	} else {
		w.out.Line("ATTR_LOD", g.Near, g.Far)
	}
	w.attrs.Reset()
	w.logger.Debug("Writing lod", "lod", g.String())

	return w.writeNode(ctx, g.Root)
}

func (w *Writer) writeNode(ctx context.Context, h scene.Handle) error {
	if err := scene.Interrupted(ctx); err != nil {
		return err
	}
	n := w.sc.Node(h)

	animated := n.HasAnimation()
	if animated {
		if w.enabled(config.OptMarkTransform) {
			w.out.Comment("node " + n.Name)
		}
		w.out.Line("ANIM_begin")
		w.writeAnimation(n)
		w.logger.Debug("Animation block", "node", w.sc.Path(h), "channels", len(n.Channels))
	}

	for _, o := range n.Objects {
		w.writeObject(o, n.Matrix)
	}

	for _, child := range w.sc.Children(h) {
		if err := w.writeNode(ctx, child); err != nil {
			return err
		}
	}

	if animated {
		w.out.Line("ANIM_end")
	}
	return nil
}

func (w *Writer) writeAnimation(n *scene.Node) {
	out := w.out
	for _, ch := range n.Channels {
		switch ch.Kind {
		case scene.ChannelTranslate:
			out.Line("ANIM_trans_begin", w.dataref(ch.Dataref))
			for _, k := range ch.Keys {
				out.Line("ANIM_trans_key", k.Value, k.Position)
			}
			if ch.Loop != 0 {
				out.Line("ANIM_keyframe_loop", ch.Loop)
			}
			out.Line("ANIM_trans_end")
		case scene.ChannelRotate:
			out.Line("ANIM_rotate_begin", ch.Axis, w.dataref(ch.Dataref))
			for _, k := range ch.Keys {
				out.Line("ANIM_rotate_key", k.Value, k.Angle)
			}
			if ch.Loop != 0 {
				out.Line("ANIM_keyframe_loop", ch.Loop)
			}
			out.Line("ANIM_rotate_end")
		}
	}
	if n.Visibility != nil {
		for _, k := range n.Visibility.Keys {
			kw := "ANIM_hide"
			if k.Show {
				kw = "ANIM_show"
			}
			out.Line(kw, k.Low, k.High, w.dataref(k.Dataref))
		}
	}
}

func (w *Writer) writeObject(o scene.Object, mat mgl32.Mat4) {
	out := w.out
	if _, dummy := o.(*scene.Dummy); dummy {
		return
	}
	if w.enabled(config.OptMarkMesh) {
		out.Comment(o.Kind().String() + " " + o.ObjectName())
	}

	switch v := o.(type) {
	case *scene.Mesh:
		w.attrs.Apply(out, v.Attr)
		if s := w.spans[o]; s.Count != 0 {
			out.Line("TRIS", s.Offset, s.Count)
			w.attrs.Geometry++
		}
	case *scene.Line:
		if s := w.spans[o]; s.Count != 0 {
			out.Line("LINES", s.Offset, s.Count)
			w.attrs.Geometry++
		}
	case *scene.LightPoint:
		s := w.spans[o]
		out.Line("LIGHTS", s.Offset, s.Count)
		w.attrs.Geometry++
	case *scene.LightNamed:
		out.Line("LIGHT_NAMED", v.LightName, utils.TransformPoint(mat, v.Position))
		w.attrs.Geometry++
	case *scene.LightCustom:
		out.Line("LIGHT_CUSTOM", utils.TransformPoint(mat, v.Position), v.Color, v.Size, v.TexRect, w.dataref(v.Dataref))
		w.attrs.Geometry++
	case *scene.LightParam:
		fields := []interface{}{"LIGHT_PARAM", v.LightName, utils.TransformPoint(mat, v.Position)}
		if p := singleLine(v.Params); p != "" {
			fields = append(fields, p)
		}
		out.Line(fields...)
		w.attrs.Geometry++
	case *scene.LightSpillCustom:
		out.Line("LIGHT_SPILL_CUSTOM", utils.TransformPoint(mat, v.Position), v.Color, v.Size,
			utils.TransformDirection(mat, v.Direction), v.SemiAngle, w.dataref(v.Dataref))
		w.attrs.Geometry++
	case *scene.Smoke:
		kw := "SMOKE_BLACK"
		if v.SmokeKind == scene.SmokeWhite {
			kw = "SMOKE_WHITE"
		}
		out.Line(kw, utils.TransformPoint(mat, v.Position), v.Size)
		w.attrs.Geometry++
	}
}
