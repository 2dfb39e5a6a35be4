// Package testutil provides graph fixtures shared by the package tests:
// deterministic random graphs, in-memory orientation, writers for the binary
// .adj/.deg pair and an independent brute-force triangle counter.
package testutil
