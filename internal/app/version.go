package app

// Version information, injected at build time.
var (
	Version   string = "0.3.0"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0800"
)

// VersionInfo is the build identity reported by the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// Name is the application name.
const Name = "Book Sharing Core"
