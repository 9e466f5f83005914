package graph

import "github.com/jalapeno-sdn/jalapeno-api/pkg/srv6"

// VertexParticipates reports whether the vertex takes part in the given
// Flex-Algo plane. Algo 0 is the base topology, which every vertex belongs
// to by definition.
func VertexParticipates(v Vertex, algo uint32) bool {
	if algo == 0 {
		return true
	}
	return srv6.HasAlgo(v.SIDs, algo)
}

// pathSIDs collects the SID string per path vertex for uSID synthesis,
// taking the first SID matching the algo in each vertex's own advertisement
// order. Vertices with no matching SID are skipped.
func pathSIDs(steps []PathStep, algo uint32) []string {
	sids := make([]string, 0, len(steps))
	for _, step := range steps {
		if s, ok := srv6.FirstSID(step.Vertex.SIDs, algo); ok {
			sids = append(sids, s.Value)
		}
	}
	return sids
}
