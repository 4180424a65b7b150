package version

import "fmt"

// Set with -ldflags "-X github.com/sistemabuses/busadmin/pkg/version.Version=v1.2.0".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info is the build metadata printed by --version.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

func Get() Info {
	return Info{Version: Version, CommitHash: CommitHash, BuildDate: BuildDate}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildDate)
}

// UserAgent identifies the client in requests to the backend.
func UserAgent() string {
	return "busadmin/" + Version
}
