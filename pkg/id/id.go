package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. ULIDs sort lexicographically by creation
// time, which keeps chunk descriptors and replay runs naturally
// ordered in manifests and logs.
func New() string {
	return ulid.Make().String()
}
