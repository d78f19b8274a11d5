// Package remote describes an SSH connection target and the small remote
// command contract the fingerprint checker relies on: an existence test and
// a checksum command whose first output field is the file checksum.
//
// A Target is plain data. Live connections are obtained from a Dialer for
// the duration of one computation and closed afterwards, so a Target can be
// copied, serialized and handed to another process freely.
//
// DefaultOptions disables host-key verification and points the known-hosts
// file at /dev/null. This favors unattended automation over host identity
// checks; callers that need verification set StrictHostKeyChecking and a real
// UserKnownHostsFile.
package remote
