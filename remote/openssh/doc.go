// Package openssh implements remote.Dialer on top of the system ssh client.
// Every remote command is one ssh invocation; the transport options of the
// target are passed as -o flags so no ~/.ssh/config state is required.
package openssh
