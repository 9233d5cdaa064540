package metadata

import "objcmeta/internal/clang"

// platformAvailability decides whether a declaration is kept. It returns
// ok=false for declarations that are always unavailable or always deprecated,
// and the per-platform entries otherwise.
func platformAvailability(a clang.Availability) (entries []clang.PlatformAvailability, ok bool) {
	if a.AlwaysUnavailable || a.AlwaysDeprecated {
		return nil, false
	}
	if a.Platforms == nil {
		return []clang.PlatformAvailability{}, true
	}
	return a.Platforms, true
}
