// Package digester computes the combined fingerprint of a set of remote
// files. Each existing file's remote checksum is fed, in list order, into a
// single MD5 accumulator; files that do not exist contribute nothing. The
// result is compared against a stored value to skip work when nothing
// changed.
package digester
