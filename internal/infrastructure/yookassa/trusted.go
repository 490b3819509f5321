package yookassa

import (
	"fmt"
	"net/netip"
)

// Networks YooKassa publishes as webhook sources.
var providerNetworks = []string{
	"185.71.76.0/27",
	"185.71.77.0/27",
	"77.75.153.0/25",
	"77.75.156.11/32",
	"77.75.156.35/32",
	"77.75.154.128/25",
	"2a02:5180::/32",
}

// TrustedNetworks answers whether an address belongs to the provider's
// published ranges or to operator-supplied extras.
type TrustedNetworks struct {
	prefixes []netip.Prefix
}

// NewTrustedNetworks builds the check list from the provider ranges plus any
// extra CIDRs (used to allow health probes or a reverse proxy).
func NewTrustedNetworks(extra []string) (*TrustedNetworks, error) {
	all := append(append([]string{}, providerNetworks...), extra...)
	prefixes := make([]netip.Prefix, 0, len(all))
	for _, cidr := range all {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			addr, aerr := netip.ParseAddr(cidr)
			if aerr != nil {
				return nil, fmt.Errorf("trusted network %q: %w", cidr, err)
			}
			p = netip.PrefixFrom(addr, addr.BitLen())
		}
		prefixes = append(prefixes, p)
	}
	return &TrustedNetworks{prefixes: prefixes}, nil
}

// Contains reports whether the textual address is trusted. Unparseable
// addresses are untrusted.
func (t *TrustedNetworks) Contains(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
