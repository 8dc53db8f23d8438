package graph

import "errors"

var (
	// ErrUnreachablePath is returned when the search exhausts its open set without
	// reaching the target under the range constraint.
	ErrUnreachablePath = errors.New("unreachable path")

	// ErrUnknownStation is returned when a query names a station that is not in the graph.
	ErrUnknownStation = errors.New("unknown station")

	// ErrMalformedGraph is returned by New when the station list cannot produce a graph.
	ErrMalformedGraph = errors.New("malformed graph")
)
