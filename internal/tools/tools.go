package tools

import "runtime/debug"

// PackageVersion returns the built version of the named module dependency,
// or of the main module when name matches it.
func PackageVersion(name string) string {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		if bi.Main.Path == name && bi.Main.Version != "" {
			return bi.Main.Version
		}
		for _, dep := range bi.Deps {
			if dep.Path == name {
				return dep.Version
			}
		}
	}
	return "unknown"
}
