// Package production provides diagnostic sinks for running machines:
// prometheus metrics, OpenTelemetry spans, a channel publisher and an
// observed-transition visualizer. All of them implement tickfsm.Observer and
// are attached with tickfsm.WithObserver.
package production
