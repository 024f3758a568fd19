package dyntl

// Version information for dyntl.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/dyntl.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "dyntl"

	// Description is a short description of the application.
	Description = "Dynamic translation and caching for JSON content payloads"

	// Version is the semantic version of the application.
	Version = "0.3.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/dyntl"
)

// BuildInfo contains build-time information, set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit appended
// when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the User-Agent sent to translation services.
func UserAgent() string {
	return Name + "/" + FullVersion()
}
