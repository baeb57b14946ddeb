package utils

import (
	"github.com/davecgh/go-spew/spew"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
	MaxDepth:                8,
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}
