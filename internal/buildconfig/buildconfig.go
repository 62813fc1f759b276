package buildconfig

// Set with -ldflags "-X github.com/Harshitk-cp/aptnet/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns the build metadata as a map for JSON output.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
	}
	if date != "" {
		info["date"] = date
	}
	return info
}

// String formats the build metadata on one line.
func String() string {
	s := version + " (" + commit
	if date != "" {
		s += ", built " + date
	}
	return s + ")"
}
