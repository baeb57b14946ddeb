package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Node is transform node. Parent link is for traversal only,
// scene arena owns nodes and nodes own their objects.
type Node struct {
	Name       string
	Matrix     mgl32.Mat4
	Channels   []*Channel
	Visibility *VisibilityChannel
	Objects    []Object

	handle   Handle
	parent   Handle
	children []Handle
}

func (n *Node) Handle() Handle { return n.handle }
func (n *Node) Parent() Handle { return n.parent }

func (n *Node) HasAnimation() bool {
	return n.HasTranslation() || n.HasRotation() || n.HasVisibility()
}

func (n *Node) HasTranslation() bool {
	for _, ch := range n.Channels {
		if ch.Kind == ChannelTranslate && len(ch.Keys) != 0 {
			return true
		}
	}
	return false
}

func (n *Node) HasRotation() bool {
	for _, ch := range n.Channels {
		if ch.Kind == ChannelRotate && len(ch.Keys) != 0 {
			return true
		}
	}
	return false
}

func (n *Node) HasVisibility() bool {
	return n.Visibility != nil && len(n.Visibility.Keys) != 0
}

func (n *Node) AddChannel(ch *Channel) {
	n.Channels = append(n.Channels, ch)
}

// FoldStaticChannels folds leading single key channels into Matrix.
// Single key channel which follows real animation can't be moved into
// Matrix without changing transform order, it is stretched to constant
// two key channel instead. Empty channels are dropped.
func (n *Node) FoldStaticChannels() {
	channels := n.Channels[:0]
	leading := true
	for _, ch := range n.Channels {
		switch len(ch.Keys) {
		case 0:
			continue
		case 1:
			if leading {
				n.Matrix = n.Matrix.Mul4(ch.KeyMatrix(0))
				continue
			}
			k := ch.Keys[0]
			k.Value += 1
			ch.Keys = append(ch.Keys, k)
		default:
			leading = false
		}
		channels = append(channels, ch)
	}
	for i := len(channels); i < len(n.Channels); i++ {
		n.Channels[i] = nil
	}
	n.Channels = channels
}
