package obj8

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/xobjconv/reftables"
	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

type ReaderParams struct {
	Tables *reftables.Tables
	Logger *log.Logger
	// Stats are reset and filled by reader if not nil
	Stats *Stats
}

// interpreter rebuilds scene from records. Every ANIM_begin block becomes
// node, its channels keep file values and objects keep file coordinates.
type interpreter struct {
	sc     *scene.Scene
	tables *reftables.Tables
	logger *log.Logger
	stats  *Stats
	attrs  *AttrState

	pools Pools
	lod   *scene.LODGroup
	stack []scene.Handle
	// channel between ANIM_*_begin and ANIM_*_end
	channel *scene.Channel

	// comment of last commented record, names next object, node or lod
	comment string

	unknown map[string]bool
	counter map[scene.ObjectKind]int
	// records after current one
	remaining int
}

// Read tokenizes and interprets whole file
func Read(ctx context.Context, text []byte, params ReaderParams) (*scene.Scene, error) {
	records, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	return Interpret(ctx, records, params)
}

// Interpret builds scene from tokenized records
func Interpret(ctx context.Context, records []*Record, params ReaderParams) (*scene.Scene, error) {
	stats := params.Stats
	if stats == nil {
		stats = &Stats{}
	}
	stats.Reset()
	logger := utils.LoggerOr(params.Logger)

	ip := &interpreter{
		sc:      scene.New(),
		tables:  params.Tables,
		logger:  logger,
		stats:   stats,
		attrs:   NewAttrState(params.Tables, logger),
		unknown: make(map[string]bool),
		counter: make(map[scene.ObjectKind]int),
	}

	if err := checkHeader(records); err != nil {
		return nil, err
	}
	records = records[3:]

	for i, r := range records {
		if err := scene.Interrupted(ctx); err != nil {
			return nil, err
		}
		ip.remaining = len(records) - i - 1
		if err := ip.record(r); err != nil {
			return nil, err
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
	}
	if ip.channel != nil {
		return nil, scene.Structuralf("file", "animation channel is not closed")
	}
	if len(ip.stack) > 1 {
		return nil, scene.Structuralf("file", "%d ANIM_begin without ANIM_end", len(ip.stack)-1)
	}

	stats.LinesRead = len(records) + 3
	stats.MeshVertices = len(ip.pools.Vertices)
	stats.LineVertices = len(ip.pools.LineVertices)
	stats.LightVertices = len(ip.pools.LightVertices)
	stats.Indices = len(ip.pools.Indices)
	stats.LODs = len(ip.sc.LODs)
	if ip.sc.Draped != nil {
		stats.LODs++
	}
	stats.AttributeRecords = ip.attrs.Attributes
	stats.ManipulatorRecords = ip.attrs.Manipulators
	stats.GeometryRecords = ip.attrs.Geometry
	return ip.sc, nil
}

func checkHeader(records []*Record) error {
	if len(records) < 3 {
		return scene.Structuralf("header", "file is too short")
	}
	if kw := records[0].Keyword(); kw != "I" && kw != "A" {
		return scene.Structuralf("header", "unknown line ending mark %q", kw)
	}
	if v := records[1].Keyword(); v != headerVersion {
		return scene.Structuralf("header", "unsupported version %q", v)
	}
	if kind := records[2].Keyword(); kind != headerKind {
		return scene.Structuralf("header", "unsupported file kind %q", kind)
	}
	return nil
}

// commentName consumes "<prefix> <name>" comment
func (ip *interpreter) commentName(prefix string) (string, bool) {
	for _, line := range strings.Split(ip.comment, "\n") {
		if strings.HasPrefix(line, prefix+" ") {
			ip.comment = ""
			return strings.TrimSpace(line[len(prefix)+1:]), true
		}
	}
	return "", false
}

func (ip *interpreter) objectName(r *Record, kind scene.ObjectKind) string {
	if name, ok := ip.commentName(kind.String()); ok {
		return name
	}
	ip.counter[kind]++
	return fmt.Sprintf("%s.%d", kind, ip.counter[kind])
}

// top returns node which receives objects, lod is created on demand
func (ip *interpreter) top() scene.Handle {
	if ip.lod == nil {
		ip.beginLOD(ip.sc.AddLOD(fmt.Sprintf("LOD %d", len(ip.sc.LODs)), 0, scene.DefaultLODFar))
	}
	return ip.stack[len(ip.stack)-1]
}

func (ip *interpreter) beginLOD(g *scene.LODGroup) {
	ip.lod = g
	ip.stack = append(ip.stack[:0], g.Root)
	ip.attrs.Reset()
}

func (ip *interpreter) addObject(o scene.Object) error {
	return ip.sc.AddObject(ip.top(), o)
}

func (ip *interpreter) animNode(r *Record) (*scene.Node, error) {
	if len(ip.stack) < 2 {
		return nil, scene.Structuralf(fmt.Sprintf("line %d", r.Line), "%s outside of ANIM_begin", r.Keyword())
	}
	return ip.sc.Node(ip.stack[len(ip.stack)-1]), nil
}

func (ip *interpreter) openChannel(r *Record, kind scene.ChannelKind) (*scene.Channel, error) {
	if ip.channel == nil || ip.channel.Kind != kind {
		return nil, scene.Structuralf(fmt.Sprintf("line %d", r.Line), "%s without matching begin", r.Keyword())
	}
	return ip.channel, nil
}

func (ip *interpreter) dataref(r *Record, i int) string {
	if !r.Has(i) {
		return scene.NoneDataref
	}
	return ip.tables.ResolveDataref(r.String(i), ip.logger)
}

func (ip *interpreter) record(r *Record) error {
	kw := r.Keyword()
	if r.Comment != "" {
		ip.comment = r.Comment
	}
	switch kw {
	case "TEXTURE":
		ip.sc.Texture = r.Rest(1)
	case "TEXTURE_LIT":
		ip.sc.TextureLit = r.Rest(1)
	case "TEXTURE_NORMAL":
		ip.sc.TextureNormal = r.Rest(1)
	case "TILTED":
		ip.sc.Tilted = true
	case "BLEND_GLASS":
		ip.sc.BlendGlass = true
	case "GLOBAL_no_shadow":
		ip.sc.NoShadow = true
	case "GLOBAL_cockpit_lit":
		ip.sc.CockpitLit = true
	case "POINT_COUNTS":
		return ip.pointCounts(r)

	case "VT":
		ip.pools.Vertices = append(ip.pools.Vertices, scene.MeshVertex{
			Position: r.Vec3(1),
			Normal:   r.Vec3(4),
			UV:       mgl32.Vec2{r.Float(7), r.Float(8)},
		})
	case "VLINE":
		ip.pools.LineVertices = append(ip.pools.LineVertices, scene.LineVertex{Position: r.Vec3(1), Color: r.Vec3(4)})
	case "VLIGHT":
		ip.pools.LightVertices = append(ip.pools.LightVertices, scene.LightPoint{Position: r.Vec3(1), Color: r.Vec3(4)})
	case "IDX10", "IDX":
		for i := 1; i < len(r.Fields); i++ {
			ip.pools.Indices = append(ip.pools.Indices, r.Uint(i))
		}

	case "ATTR_LOD":
		if len(ip.stack) > 1 {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "ATTR_LOD inside of animation block")
		}
		name, ok := ip.commentName("lod")
		if !ok {
			name = fmt.Sprintf("LOD %d", len(ip.sc.LODs))
		}
		ip.beginLOD(ip.sc.AddLOD(name, r.Float(1), r.Float(2)))
	case "ATTR_LOD_draped":
		if len(ip.stack) > 1 {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "ATTR_LOD_draped inside of animation block")
		}
		name, ok := ip.commentName("lod")
		if !ok {
			name = "Draped"
		}
		ip.beginLOD(ip.sc.SetDraped(name))

	case "ANIM_begin":
		parent := ip.top()
		name, ok := ip.commentName("node")
		if !ok {
			name = fmt.Sprintf("Anim.%d", ip.sc.NodeCount())
		}
		h := ip.sc.NewNode(name)
		if err := ip.sc.AddChild(parent, h); err != nil {
			return err
		}
		ip.stack = append(ip.stack, h)
	case "ANIM_end":
		if _, err := ip.animNode(r); err != nil {
			return err
		}
		if ip.channel != nil {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "ANIM_end inside of channel")
		}
		ip.stack = ip.stack[:len(ip.stack)-1]

	case "ANIM_trans_begin":
		if _, err := ip.animNode(r); err != nil {
			return err
		}
		ip.channel = scene.NewTranslation(ip.dataref(r, 1))
	case "ANIM_trans_key":
		ch, err := ip.openChannel(r, scene.ChannelTranslate)
		if err != nil {
			return err
		}
		ch.Keys = append(ch.Keys, scene.TranslateKey(r.Float(1), r.Vec3(2)))
	case "ANIM_rotate_begin":
		if _, err := ip.animNode(r); err != nil {
			return err
		}
		ip.channel = scene.NewRotation(ip.dataref(r, 4), r.Vec3(1))
	case "ANIM_rotate_key":
		ch, err := ip.openChannel(r, scene.ChannelRotate)
		if err != nil {
			return err
		}
		ch.Keys = append(ch.Keys, scene.RotateKey(r.Float(1), r.Float(2)))
	case "ANIM_trans_end", "ANIM_rotate_end":
		kind := scene.ChannelTranslate
		if kw == "ANIM_rotate_end" {
			kind = scene.ChannelRotate
		}
		ch, err := ip.openChannel(r, kind)
		if err != nil {
			return err
		}
		n, _ := ip.animNode(r)
		n.AddChannel(ch)
		ip.channel = nil
	case "ANIM_keyframe_loop":
		if ip.channel == nil {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "ANIM_keyframe_loop outside of channel")
		}
		ip.channel.Loop = r.Float(1)
	case "ANIM_trans":
		n, err := ip.animNode(r)
		if err != nil {
			return err
		}
		n.AddChannel(scene.NewTranslation(ip.dataref(r, 9),
			scene.TranslateKey(r.Float(7), r.Vec3(1)), scene.TranslateKey(r.Float(8), r.Vec3(4))))
	case "ANIM_rotate":
		n, err := ip.animNode(r)
		if err != nil {
			return err
		}
		n.AddChannel(scene.NewRotation(ip.dataref(r, 8), r.Vec3(1),
			scene.RotateKey(r.Float(6), r.Float(4)), scene.RotateKey(r.Float(7), r.Float(5))))
	case "ANIM_hide", "ANIM_show":
		n, err := ip.animNode(r)
		if err != nil {
			return err
		}
		if n.Visibility == nil {
			n.Visibility = &scene.VisibilityChannel{}
		}
		n.Visibility.Add(kw == "ANIM_show", r.Float(1), r.Float(2), ip.dataref(r, 3))

	case "TRIS":
		return ip.tris(r)
	case "LINES":
		return ip.lines(r)
	case "LIGHTS":
		return ip.lights(r)
	case "LIGHT_NAMED":
		ip.geometry()
		ip.stats.Lights++
		return ip.addObject(&scene.LightNamed{
			ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindLightNamed)},
			LightName:  r.String(1),
			Position:   r.Vec3(2),
		})
	case "LIGHT_CUSTOM":
		ip.geometry()
		ip.stats.Lights++
		return ip.addObject(&scene.LightCustom{
			ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindLightCustom)},
			Position:   r.Vec3(1),
			Color:      r.Vec4(4),
			Size:       r.Float(8),
			TexRect:    r.Vec4(9),
			Dataref:    ip.dataref(r, 13),
		})
	case "LIGHT_PARAM":
		ip.geometry()
		ip.stats.Lights++
		return ip.addObject(&scene.LightParam{
			ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindLightParam)},
			LightName:  r.String(1),
			Position:   r.Vec3(2),
			Params:     r.Rest(5),
		})
	case "LIGHT_SPILL_CUSTOM":
		ip.geometry()
		ip.stats.Lights++
		return ip.addObject(&scene.LightSpillCustom{
			ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindLightSpillCustom)},
			Position:   r.Vec3(1),
			Color:      r.Vec4(4),
			Size:       r.Float(8),
			Direction:  r.Vec3(9),
			SemiAngle:  r.Float(12),
			Dataref:    ip.dataref(r, 13),
		})
	case "SMOKE_BLACK", "SMOKE_WHITE":
		ip.geometry()
		ip.stats.Smokes++
		smoke := &scene.Smoke{
			ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindSmoke)},
			Position:   r.Vec3(1),
			Size:       r.Float(4),
		}
		if kw == "SMOKE_WHITE" {
			smoke.SmokeKind = scene.SmokeWhite
		}
		return ip.addObject(smoke)

	default:
		handled, err := ip.attrs.Parse(r)
		if err != nil {
			return err
		}
		if !handled && !ip.unknown[kw] {
			ip.unknown[kw] = true
			ip.logger.Warn("Unknown keyword skipped", "keyword", kw, "line", r.Line)
		}
	}
	return nil
}

// pointCounts preallocates pools. Every vertex takes one record and
// every record holds at most idxPerLine indices, bigger counts can't be satisfied.
func (ip *interpreter) pointCounts(r *Record) error {
	vt, vline, vlight, idx := int(r.Uint(1)), int(r.Uint(2)), int(r.Uint(3)), int(r.Uint(4))
	if err := r.Err(); err != nil {
		return err
	}
	if vt+vline+vlight > ip.remaining || idx > ip.remaining*idxPerLine {
		return scene.Structuralf(fmt.Sprintf("line %d", r.Line),
			"POINT_COUNTS %d %d %d %d exceed %d remaining records", vt, vline, vlight, idx, ip.remaining)
	}
	ip.pools.Vertices = make([]scene.MeshVertex, 0, vt)
	ip.pools.LineVertices = make([]scene.LineVertex, 0, vline)
	ip.pools.LightVertices = make([]scene.LightPoint, 0, vlight)
	ip.pools.Indices = make([]uint32, 0, idx)
	return nil
}

func (ip *interpreter) geometry() {
	ip.attrs.Geometry++
}

func (ip *interpreter) indexRange(r *Record, poolName string) ([]uint32, error) {
	off, cnt := int(r.Uint(1)), int(r.Uint(2))
	if err := r.Err(); err != nil {
		return nil, err
	}
	if off+cnt > len(ip.pools.Indices) {
		return nil, scene.Structuralf(fmt.Sprintf("line %d", r.Line),
			"%s range [%d, %d) is out of index pool of size %d", poolName, off, off+cnt, len(ip.pools.Indices))
	}
	return ip.pools.Indices[off : off+cnt], nil
}

func (ip *interpreter) tris(r *Record) error {
	indices, err := ip.indexRange(r, "TRIS")
	if err != nil {
		return err
	}
	ip.geometry()
	ip.stats.Meshes++

	m := scene.NewMesh(ip.objectName(r, scene.KindMesh))
	m.Attr = ip.attrs.Active()
	remap := make(map[uint32]uint32, len(indices))
	var face scene.Face
	for i, idx := range indices {
		if int(idx) >= len(ip.pools.Vertices) {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "vertex %d is out of pool of size %d", idx, len(ip.pools.Vertices))
		}
		local, ok := remap[idx]
		if !ok {
			local = uint32(len(m.Vertices))
			remap[idx] = local
			m.Vertices = append(m.Vertices, ip.pools.Vertices[idx])
		}
		face[i%3] = local
		if i%3 == 2 {
			m.Faces = append(m.Faces, face)
		}
	}
	ip.stats.Faces += len(m.Faces)
	return ip.addObject(m)
}

func (ip *interpreter) lines(r *Record) error {
	indices, err := ip.indexRange(r, "LINES")
	if err != nil {
		return err
	}
	ip.geometry()
	ip.stats.Lines++

	l := &scene.Line{ObjectBase: scene.ObjectBase{Name: ip.objectName(r, scene.KindLine)}}
	remap := make(map[uint32]uint32, len(indices))
	for _, idx := range indices {
		if int(idx) >= len(ip.pools.LineVertices) {
			return scene.Structuralf(fmt.Sprintf("line %d", r.Line), "line vertex %d is out of pool of size %d", idx, len(ip.pools.LineVertices))
		}
		local, ok := remap[idx]
		if !ok {
			local = uint32(len(l.Vertices))
			remap[idx] = local
			l.Vertices = append(l.Vertices, ip.pools.LineVertices[idx])
		}
		l.Indices = append(l.Indices, local)
	}
	return ip.addObject(l)
}

func (ip *interpreter) lights(r *Record) error {
	off, cnt := int(r.Uint(1)), int(r.Uint(2))
	if err := r.Err(); err != nil {
		return err
	}
	if off+cnt > len(ip.pools.LightVertices) {
		return scene.Structuralf(fmt.Sprintf("line %d", r.Line),
			"LIGHTS range [%d, %d) is out of light pool of size %d", off, off+cnt, len(ip.pools.LightVertices))
	}
	ip.geometry()
	for i := off; i < off+cnt; i++ {
		ip.stats.Lights++
		l := ip.pools.LightVertices[i]
		l.Name = ip.objectName(r, scene.KindLightPoint)
		if err := ip.addObject(&l); err != nil {
			return err
		}
	}
	return nil
}
