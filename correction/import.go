package correction

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/xobjconv/scene"
	"github.com/mogaika/xobjconv/utils"
)

// Import converts subtree built from object file (channel values in output
// frames, objects relative to block pivot) to nested parent space.
// Inverse of Export: first key of first translation becomes node offset.
func Import(ctx context.Context, sc *scene.Scene, root scene.Handle, correction mgl32.Mat4) error {
	rootNode := sc.Node(root)
	if rootNode == nil {
		return nil
	}
	rootNode.Matrix = correction.Inv().Mul4(rootNode.Matrix)

	return sc.Walk(root, func(h scene.Handle, n *scene.Node, _ int) error {
		if err := scene.Interrupted(ctx); err != nil {
			return err
		}

		// pivot can be moved to matrix only from leading translation
		if len(n.Channels) != 0 && n.Channels[0].Kind == scene.ChannelTranslate && len(n.Channels[0].Keys) != 0 {
			tr := n.Channels[0]
			pivot := tr.Keys[0].Position
			n.Matrix = n.Matrix.Mul4(mgl32.Translate3D(pivot[0], pivot[1], pivot[2]))

			static := true
			for i := range tr.Keys {
				tr.Keys[i].Position = tr.Keys[i].Position.Sub(pivot)
				if !utils.IsZeroVec3(tr.Keys[i].Position) {
					static = false
				}
			}
			if static {
				removeChannel(n, tr)
			}
		}
		n.FoldStaticChannels()
		return nil
	})
}

func removeChannel(n *scene.Node, ch *scene.Channel) {
	for i, c := range n.Channels {
		if c == ch {
			n.Channels = append(n.Channels[:i], n.Channels[i+1:]...)
			return
		}
	}
}
