// Package srv6 implements SRv6 micro-SID carrier synthesis and L3VPN
// service-SID encoding over the SID documents produced by the topology
// collectors.
package srv6

// EndpointBehavior is the behavior block attached to an advertised SID.
type EndpointBehavior struct {
	Behavior uint16 `json:"endpoint_behavior,omitempty"`
	Flag     uint8  `json:"flag,omitempty"`
	Algo     uint32 `json:"algo"`
}

// SID is one SRv6 SID advertisement on a node.
type SID struct {
	Value    string           `json:"srv6_sid"`
	Behavior EndpointBehavior `json:"srv6_endpoint_behavior"`
}

// FirstSID returns the first SID in the node's own advertisement order whose
// behavior matches the given Flex-Algo. Algo 0 matches SIDs advertising
// algo 0.
func FirstSID(sids []SID, algo uint32) (SID, bool) {
	for _, s := range sids {
		if s.Value == "" {
			continue
		}
		if s.Behavior.Algo == algo {
			return s, true
		}
	}
	return SID{}, false
}

// HasAlgo reports whether any SID advertises the given Flex-Algo.
func HasAlgo(sids []SID, algo uint32) bool {
	_, ok := FirstSID(sids, algo)
	return ok
}
