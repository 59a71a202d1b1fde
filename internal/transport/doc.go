// Package transport builds the HTTP clients used to reach the reputation
// service.
//
// Three modes are supported:
//   - direct connections (the default)
//   - an external SOCKS5 proxy, e.g. a local Tor daemon on 127.0.0.1:9050
//   - an embedded Tor daemon started with tornago, for users who do not
//     want the service to see which host is asking about which file
//
// Every client carries a per-request timeout so that an unreachable
// service cannot hang a scan worker forever.
package transport
