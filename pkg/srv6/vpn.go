package srv6

import (
	"fmt"
	"net/netip"
	"strings"
)

// LabelFunction encodes an MPLS service label as the hexadecimal SRv6
// function used in L3VPN service SIDs. Trailing zero nibbles are transposed
// out of the label value; the result is left-padded to four nibbles.
func LabelFunction(label uint32) string {
	fn := strings.TrimRight(fmt.Sprintf("%x", label), "0")
	if fn == "" {
		fn = "0"
	}
	if len(fn) < 4 {
		fn = strings.Repeat("0", 4-len(fn)) + fn
	}
	return fn
}

// CombineServiceSID appends the label-derived function to a locator SID,
// producing the full L3VPN service SID. The base must be a valid IPv6
// address; malformed inputs are rejected rather than rewritten.
func CombineServiceSID(base string, label uint32) (string, error) {
	if base == "" {
		return "", fmt.Errorf("srv6: empty base SID")
	}
	if _, err := netip.ParseAddr(base); err != nil {
		return "", fmt.Errorf("srv6: invalid base SID %q: %w", base, err)
	}

	combined := strings.TrimRight(base, ":") + ":" + LabelFunction(label) + "::"
	if _, err := netip.ParseAddr(combined); err != nil {
		return "", fmt.Errorf("srv6: combined SID %q is not a valid address: %w", combined, err)
	}
	return combined, nil
}
