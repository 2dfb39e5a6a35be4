// Package transport carries job streams between a master and its servers.
//
// A Stream wraps a TCP connection with buffering, optional stream
// compression and IO throttling. Both ends must agree on the compression out
// of band; the wire protocol itself carries no negotiation.
package transport
