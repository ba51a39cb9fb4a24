// Package logs locates and tails per-run log files written by
// logging.NewFromConfig.
package logs
