// Package version reports the build of the voicepulse binary.
//
// Values are injected with -ldflags and fall back to the VCS stamps the Go
// toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/voicepulse/version.Version=0.3.0" ./cmd/voicepulse
package version
