// Package hash builds deterministic keys for parameter sets.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hex key for the object. Objects gob cannot encode are hashed from their spew dump.
func Hash(object interface{}) string {
	h := fnv.New128a()
	e := gob.NewEncoder(h)
	if err := e.Encode(object); err == nil {
		return fmt.Sprintf("%x", h.Sum(nil))
	}
	h.Reset()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Short is the first n hex digits of Hash
func Short(object interface{}, n int) string {
	s := Hash(object)
	if n < len(s) {
		s = s[:n]
	}
	return s
}
