// Package ids generates lexicographically sortable row identifiers.
package ids

import "github.com/oklog/ulid/v2"

// New returns a ULID suitable for storage keys. IDs sort by creation
// time, which keeps "newest first" listings index-friendly; the
// library's default entropy source is monotonic and safe for
// concurrent use.
func New() string {
	return ulid.Make().String()
}
