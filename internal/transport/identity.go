package transport

import "strings"

// Identity is the opaque address of a user, room, or room participant,
// optionally carrying a "/resource" suffix.
type Identity string

// Bare strips the resource suffix, if any.
func (i Identity) Bare() Identity {
	if idx := strings.IndexByte(string(i), '/'); idx >= 0 {
		return i[:idx]
	}
	return i
}

// Resource returns the resource suffix, or "" when the identity is bare.
func (i Identity) Resource() string {
	if idx := strings.IndexByte(string(i), '/'); idx >= 0 {
		return string(i[idx+1:])
	}
	return ""
}

// WithResource returns the bare identity joined with the given resource.
func (i Identity) WithResource(resource string) Identity {
	if resource == "" {
		return i.Bare()
	}
	return i.Bare() + Identity("/"+resource)
}
