package correction

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

// frame of animated ancestor, captured before ancestor was rewritten
type frame struct {
	world mgl32.Mat4
	pivot mgl32.Vec3
}

// PrepareChannels folds single key channels and puts zero length translation
// in front of node which starts with rotation, so pivot can be written.
func PrepareChannels(ctx context.Context, sc *scene.Scene, root scene.Handle) error {
	return sc.Walk(root, func(h scene.Handle, n *scene.Node, _ int) error {
		if err := scene.Interrupted(ctx); err != nil {
			return err
		}
		n.FoldStaticChannels()
		if len(n.Channels) != 0 && n.Channels[0].Kind == scene.ChannelRotate {
			pivot := scene.NewTranslation(scene.NoneDataref,
				scene.TranslateKey(0, mgl32.Vec3{}), scene.TranslateKey(1, mgl32.Vec3{}))
			n.Channels = append([]*scene.Channel{pivot}, n.Channels...)
		}
		return nil
	})
}

// Export rewrites subtree for writing. Afterwards node Matrix is matrix
// for owned objects and channel values are in output frames.
// Must be called once per pass.
func Export(ctx context.Context, sc *scene.Scene, root scene.Handle, correction mgl32.Mat4) error {
	if err := PrepareChannels(ctx, sc, root); err != nil {
		return err
	}
	rootNode := sc.Node(root)
	if rootNode == nil {
		return nil
	}
	return exportNode(ctx, sc, rootNode, correction, nil, nil)
}

func exportNode(ctx context.Context, sc *scene.Scene, n *scene.Node, parentWorld mgl32.Mat4, transAnc, rotAnc *frame) error {
	if err := scene.Interrupted(ctx); err != nil {
		return err
	}

	world := parentWorld.Mul4(n.Matrix)

	c, err := classify(sc, n, caseKey{
		ownRot:   n.HasRotation(),
		ownTrans: n.HasTranslation(),
		transAnc: transAnc != nil,
		rotAnc:   rotAnc != nil,
	})
	if err != nil {
		return err
	}

	var own *frame
	if c.ownTranslation() {
		own = &frame{world: world, pivot: utils.Position(world)}

		origin := own.pivot
		if transAnc != nil {
			origin = origin.Sub(transAnc.pivot)
		}
		linear := utils.LinearOnly(world)
		first := true
		for _, ch := range n.Channels {
			switch ch.Kind {
			case scene.ChannelTranslate:
				for i := range ch.Keys {
					p := utils.TransformVector(linear, ch.Keys[i].Position)
					if first {
						p = p.Add(origin)
					}
					ch.Keys[i].Position = p
				}
				first = false
			case scene.ChannelRotate:
				ch.Axis = utils.TransformDirection(world, ch.Axis)
			}
		}
		n.Matrix = mgl32.Translate3D(-own.pivot[0], -own.pivot[1], -own.pivot[2]).Mul4(world)
	} else if transAnc != nil {
		n.Matrix = mgl32.Translate3D(-transAnc.pivot[0], -transAnc.pivot[1], -transAnc.pivot[2]).Mul4(world)
	} else {
		n.Matrix = world
	}

	childTrans, childRot := transAnc, rotAnc
	if own != nil {
		childTrans = own
		if n.HasRotation() {
			childRot = own
		}
	}

	for _, ch := range sc.Children(n.Handle()) {
		if err := exportNode(ctx, sc, sc.Node(ch), world, childTrans, childRot); err != nil {
			return err
		}
	}
	return nil
}
