// Package component manages the lifecycle of long-lived parts of a
// voicepulse process, such as the session registry and the telemetry
// exporters.
//
// Components are started in registration order and stopped in reverse.
package component
