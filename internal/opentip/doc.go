// Package opentip is a client for the OpenTIP threat intelligence
// reputation service.
//
// The client covers the three calls the scanner needs:
//   - hash lookup (GET search/hash)
//   - indicator lookup for IPs, domains and URLs (GET search/<kind>)
//   - file upload for sandbox analysis (POST scan/file)
//
// Every request carries the API key in the x-api-key header. A 400 answer
// to a lookup means the indicator is unknown and is reported as "not
// found" rather than as an error. A 403 is always ErrForbidden. Any other
// unexpected status is a *StatusError.
package opentip
