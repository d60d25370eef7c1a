package buildinfo

// Set at build time, for example:
//
//	-X 'github.com/m3rciful/fuelbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/fuelbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/fuelbot/core/buildinfo.Date=2026-01-30T12:00:00Z'
var (
	// Version is the release tag; "dev" for local builds.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders the build identity for `fuelbot version`.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
