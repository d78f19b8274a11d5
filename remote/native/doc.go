// Package native implements remote.Dialer with golang.org/x/crypto/ssh, for
// hosts where no ssh client binary is available. Authentication tries the
// running ssh-agent first, then the identity files listed in the target
// options.
package native
