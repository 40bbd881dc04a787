package engine

import (
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
)

// imageScheme is the only image URI scheme the core recognizes as "mine".
// A real deployment may want to generalize this, but the core recognizes
// exactly this prefix as the ownership signal.
const imageScheme = "docker:///"

// ParseImageURI reports whether uri carries the recognized scheme and, if
// so, returns the image reference the engine should pull. The reference is
// additionally validated with go-containerregistry so a malformed image name
// is rejected before it ever reaches the engine's run call, but the returned
// string is the original reference text, not the library's normalized,
// fully-qualified form: callers pass this straight to the engine, which
// applies its own default-registry/tag resolution.
//
// ok is false for any URI that does not start with the recognized scheme;
// that is the "not mine, try another containerizer" signal and must not be
// treated as an error.
func ParseImageURI(uri string) (image string, ok bool) {
	if !strings.HasPrefix(uri, imageScheme) {
		return "", false
	}
	ref := strings.TrimPrefix(uri, imageScheme)
	if ref == "" {
		return "", false
	}

	if _, err := name.ParseReference(ref, name.WeakValidation); err != nil {
		return "", false
	}
	return ref, true
}
