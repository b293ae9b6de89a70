package internal

// Bumped by hand on release.
const version = "0.3.0"

func Version() string {
	return version
}
