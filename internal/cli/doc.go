// Package cli implements the command-line interface for ski-status.
//
// The cli package provides the Cobra-based CLI with three commands: check runs
// one extraction pass and prints the results (text, JSON or table), watch
// repeats the pass on an interval, and serve exposes the latest results over
// HTTP. It wires configuration, fetcher, cache, strategies and aggregator
// together.
package cli
