package draft

import (
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "tmp-"

// Allocator hands out placeholder ids for entities the server has not seen.
type Allocator struct {
	newID func() string
}

// NewAllocator returns an allocator backed by random v4 uuids.
func NewAllocator() *Allocator {
	return &Allocator{newID: uuid.NewString}
}

// Allocate returns tmp-<kind>-<uuid>.
func (a *Allocator) Allocate(kind string) string {
	return tempPrefix + kind + "-" + a.newID()
}

// IsTemp reports whether id was produced by an Allocator.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// newLocalKey ids payload-internal records (blocks, questions, markers). They
// never address a remote entity so they do not carry the temp prefix.
func newLocalKey(kind string) string {
	return kind + "-" + uuid.NewString()
}
