// Package version reports the build a container runs in.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/managed/version.Version=1.4.0"
//
// Anything left unset is filled from the module's embedded VCS settings.
package version
