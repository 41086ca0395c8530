package version

import "fmt"

var (
	// GitCommit is the git commit that was compiled. This will be filled in
	// by the compiler.
	GitCommit string

	// Version is the main version number that is being run at the moment.
	Version = "0.1.0"

	// VersionPrerelease is a pre-release marker for the version. If this is
	// "" (empty string) then it means that it is a final release. Otherwise,
	// this is a pre-release such as "dev" (in development).
	VersionPrerelease = "dev"
)

// Get returns the full version string of the running binary, including the
// pre-release marker and git commit where these are available.
func Get() string {
	version := Version

	if VersionPrerelease != "" {
		version = fmt.Sprintf("%s-%s", version, VersionPrerelease)
	}

	if GitCommit != "" {
		version = fmt.Sprintf("%s (%s)", version, GitCommit)
	}

	return version
}
