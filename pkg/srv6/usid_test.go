package srv6

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSynthesize_FoldsSlotsIntoCarrier(t *testing.T) {
	sids := []string{"fc00:0:1::", "fc00:0:2::", "fc00:0:7::"}

	c := Synthesize(sids, "", 0)

	require.Equal(t, "fc00:0:", c.Block)
	require.Equal(t, "fc00:0:1:2:7::", c.USID)
	require.Equal(t, sids, c.SIDList)

	addr, err := netip.ParseAddr(c.USID)
	require.NoError(t, err)
	require.True(t, addr.Is6())
}

func TestSynthesize_SingleSID(t *testing.T) {
	c := Synthesize([]string{"fc00:0:3::"}, "", 0)
	require.Equal(t, "fc00:0:3::", c.USID)
}

func TestSynthesize_BlockAutoDetect(t *testing.T) {
	c := Synthesize([]string{"2001:db8:5::", "2001:db8:9::"}, "", 128)
	require.Equal(t, "2001:db8:", c.Block)
	require.Equal(t, "2001:db8:5:9::", c.USID)
	require.Equal(t, uint32(128), c.Algo)
}

func TestSynthesize_ExplicitBlockNormalized(t *testing.T) {
	c := Synthesize([]string{"fc00:0:4::"}, "fc00:0", 0)
	require.Equal(t, "fc00:0:", c.Block)
	require.Equal(t, "fc00:0:4::", c.USID)
}

func TestSynthesize_SkipsSIDsOutsideBlock(t *testing.T) {
	sids := []string{"fc00:0:1::", "2001:db8:5::", "fc00:0:2::"}

	c := Synthesize(sids, "", 0)

	require.Equal(t, "fc00:0:", c.Block)
	require.Equal(t, "fc00:0:1:2::", c.USID, "foreign-block SID must not contribute a slot")
	require.Equal(t, sids, c.SIDList, "the full SID list is still reported")
}

func TestSynthesize_EmptyInput(t *testing.T) {
	c := Synthesize(nil, "", 0)
	require.Empty(t, c.USID)
	require.Empty(t, c.SIDList)
	require.Equal(t, DefaultBlock, c.Block)
}

func TestSynthesize_Deterministic(t *testing.T) {
	sids := []string{"fc00:0:1::", "fc00:0:6::"}
	a := Synthesize(sids, "", 0)
	b := Synthesize(sids, "", 0)
	require.Equal(t, a, b)
}

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		sid  string
		want string
	}{
		{"fc00:0:1::", "fc00:0:"},
		{"2001:db8:aa:bb::", "2001:db8:"},
		{"fc00", ""},
		{"fc00:", ""},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DetectBlock(tt.sid), "sid %q", tt.sid)
	}
}

func TestFirstSID(t *testing.T) {
	sids := []SID{
		{Value: "fc00:0:1::", Behavior: EndpointBehavior{Algo: 0}},
		{Value: "fc00:0:101::", Behavior: EndpointBehavior{Algo: 128}},
		{Value: "fc00:0:201::", Behavior: EndpointBehavior{Algo: 128}},
	}

	s, ok := FirstSID(sids, 128)
	require.True(t, ok)
	require.Equal(t, "fc00:0:101::", s.Value, "first match in advertisement order wins")

	s, ok = FirstSID(sids, 0)
	require.True(t, ok)
	require.Equal(t, "fc00:0:1::", s.Value)

	_, ok = FirstSID(sids, 129)
	require.False(t, ok)

	require.True(t, HasAlgo(sids, 128))
	require.False(t, HasAlgo(nil, 0))
}

func TestLabelFunction(t *testing.T) {
	tests := []struct {
		label uint32
		want  string
	}{
		{16000, "03e8"},
		{0, "0000"},
		{1, "0001"},
		{0x1000, "0001"},
		{0xfffff, "fffff"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LabelFunction(tt.label), "label %d", tt.label)
	}
}

func TestCombineServiceSID(t *testing.T) {
	sid, err := CombineServiceSID("fc00:0:1::", 16000)
	require.NoError(t, err)
	require.Equal(t, "fc00:0:1:03e8::", sid)

	_, err = netip.ParseAddr(sid)
	require.NoError(t, err)

	_, err = CombineServiceSID("", 16000)
	require.Error(t, err)

	_, err = CombineServiceSID("not-an-address", 16000)
	require.Error(t, err)
}
