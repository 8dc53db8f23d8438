// Package graph builds the weighted station graph and answers range-constrained routing
// questions over it.
//
// It exposes three operations:
//
//   - New: build the graph from a deduplicated station list using the proximity rule
//     and the connectivity repair pass.
//   - OptimalPath: A* search from one station to another where every hop must fit in
//     the vehicle range.
//   - UnguaranteedZones: run OptimalPath from an origin to every other station and report
//     the ones that cannot be reached.
//
// A Graph is immutable once New returns. Search state lives entirely inside each call, so
// one Graph can serve any number of concurrent queries.
package graph
