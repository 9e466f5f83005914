package srv6

import "strings"

// DefaultBlock is the uSID block assumed when it cannot be derived from the
// SID list.
const DefaultBlock = "fc00:0:"

// Carrier is a synthesized micro-SID carrier for one path.
type Carrier struct {
	SIDList []string `json:"srv6_sid_list"`
	USID    string   `json:"srv6_usid"`
	Block   string   `json:"usid_block"`
	Algo    uint32   `json:"algo"`
}

// DetectBlock derives the uSID block from a SID: the text up to and
// including the second colon (e.g. "fc00:0:" from "fc00:0:1::"). Returns ""
// if the SID has fewer than two colon groups.
func DetectBlock(sid string) string {
	first := strings.Index(sid, ":")
	if first < 0 {
		return ""
	}
	second := strings.Index(sid[first+1:], ":")
	if second < 0 {
		return ""
	}
	return sid[:first+1+second+1]
}

// slot extracts the uSID container slot of one SID: the first colon group
// remaining after the block prefix is stripped.
func slot(sid, block string) string {
	rest := strings.TrimPrefix(sid, block)
	if i := strings.Index(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// Synthesize folds an ordered SID list into a single uSID carrier. The block
// is auto-detected from the first SID when not supplied. An empty SID list
// yields an empty carrier address rather than an error, so callers can treat
// a path without SRv6 coverage as a soft failure.
func Synthesize(sids []string, block string, algo uint32) Carrier {
	if block == "" && len(sids) > 0 {
		block = DetectBlock(sids[0])
	}
	if block == "" {
		block = DefaultBlock
	}
	if !strings.HasSuffix(block, ":") {
		block += ":"
	}

	c := Carrier{
		SIDList: append([]string{}, sids...),
		Block:   block,
		Algo:    algo,
	}
	if len(sids) == 0 {
		return c
	}

	// SIDs outside the carrier's block cannot be folded into it; they stay in
	// the SID list but contribute no slot.
	slots := make([]string, 0, len(sids))
	for _, sid := range sids {
		if !strings.HasPrefix(sid, block) {
			continue
		}
		if s := slot(sid, block); s != "" {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return c
	}

	c.USID = block + strings.Join(slots, ":") + "::"
	return c
}
