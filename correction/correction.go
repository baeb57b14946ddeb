// Package correction converts node matrices and animation values between
// nested parent space of scene and animation frames of object file.
//
// Object file has no static transforms. Content of animation block is
// expressed in frame of the nearest enclosing translating block: origin is
// at its pivot and, at rest, axes are aligned with root frame. Rotation axes
// are written in rest frame of the nearest enclosing rotating block.
package correction

import (
	"fmt"

	"github.com/mogaika/xobjconv/scene"
)

type animCase int

const (
	caseStaticRoot animCase = iota
	caseStaticInTrans
	caseStaticInRot
	caseTransRoot
	caseTransInTrans
	caseTransInRot
	caseTransRotRoot
	caseTransRotInTrans
	caseTransRotInRot
)

var animCaseNames = [...]string{
	caseStaticRoot:      "static-root",
	caseStaticInTrans:   "static-in-trans",
	caseStaticInRot:     "static-in-rot",
	caseTransRoot:       "trans-root",
	caseTransInTrans:    "trans-in-trans",
	caseTransInRot:      "trans-in-rot",
	caseTransRotRoot:    "trans-rot-root",
	caseTransRotInTrans: "trans-rot-in-trans",
	caseTransRotInRot:   "trans-rot-in-rot",
}

func (c animCase) String() string { return animCaseNames[c] }

func (c animCase) ownTranslation() bool { return c >= caseTransRoot }

type caseKey struct {
	ownRot, ownTrans, transAnc, rotAnc bool
}

// validated combinations, everything else is structural error
var animCases = map[caseKey]animCase{
	{false, false, false, false}: caseStaticRoot,
	{false, false, true, false}:  caseStaticInTrans,
	{false, false, true, true}:   caseStaticInRot,
	{false, true, false, false}:  caseTransRoot,
	{false, true, true, false}:   caseTransInTrans,
	{false, true, true, true}:    caseTransInRot,
	{true, true, false, false}:   caseTransRotRoot,
	{true, true, true, false}:    caseTransRotInTrans,
	{true, true, true, true}:     caseTransRotInRot,
}

func classify(sc *scene.Scene, n *scene.Node, key caseKey) (animCase, error) {
	if c, ok := animCases[key]; ok {
		return c, nil
	}
	return 0, scene.Structuralf(fmt.Sprintf("node %q", sc.Path(n.Handle())),
		"unsupported animation combination (rotation=%t translation=%t translating ancestor=%t rotating ancestor=%t)",
		key.ownRot, key.ownTrans, key.transAnc, key.rotAnc)
}
