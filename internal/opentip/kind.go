package opentip

import "strings"

// Kind is the type of an indicator of compromise.
type Kind string

const (
	// KindHash is an MD5, SHA-1 or SHA-256 file hash.
	KindHash Kind = "hash"
	// KindIP is an IPv4 or IPv6 address.
	KindIP Kind = "ip"
	// KindDomain is a domain name.
	KindDomain Kind = "domain"
	// KindURL is a web address.
	KindURL Kind = "url"
)

// Kinds lists all supported indicator kinds.
func Kinds() []Kind {
	return []Kind{KindHash, KindIP, KindDomain, KindURL}
}

// ParseKind converts a user-supplied kind name, ignoring case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", ErrInvalidKind
}

// String returns the kind name as used in request paths.
func (k Kind) String() string {
	return string(k)
}
