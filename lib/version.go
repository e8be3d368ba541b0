package lib

// Banner the banner
const Banner = `
                  _
  _ __ ___   __ _(_)___
 | '_ ' _ \ / _' | / __|
 | | | | | | (_| | \__ \
 |_| |_| |_|\__, |/ |___/
               |_|__/
`

var (
	// Version is the current version.
	Version = "(untracked)"
	// CommitSHA is the commit sha.
	CommitSHA = "(unknown)"
)
