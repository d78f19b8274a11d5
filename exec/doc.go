// Package exec runs local commands. Ex returns combined output for
// human-facing task actions; Run keeps stdout, stderr and the exit code
// apart so callers can parse program output and classify failures.
package exec
