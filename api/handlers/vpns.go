package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/srv6"
)

// vpnPrefixCollections are the collections carrying L3VPN prefix documents.
// The prefix endpoints only operate on these; the looser name-prefix match
// below admits other VPN-adjacent collections to the listing endpoints.
var vpnPrefixCollections = []string{"l3vpn_v4_prefix", "l3vpn_v6_prefix"}

func isVPNCollection(name string) bool {
	for _, c := range vpnPrefixCollections {
		if name == c {
			return true
		}
	}
	return strings.HasPrefix(name, "l3vpn_") || strings.HasPrefix(name, "vpn_")
}

func isVPNPrefixCollection(name string) bool {
	for _, c := range vpnPrefixCollections {
		if name == c {
			return true
		}
	}
	return false
}

func (s *Server) ensureVPNCollection(ctx context.Context, name string) error {
	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}
	if !isVPNCollection(name) {
		return fmt.Errorf("%w: collection %q is not a VPN collection", graph.ErrInvalidInput, name)
	}
	return nil
}

func (s *Server) ensureVPNPrefixCollection(ctx context.Context, name string) error {
	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}
	if !isVPNPrefixCollection(name) {
		return fmt.Errorf("%w: collection %q is not a VPN prefix collection", graph.ErrInvalidInput, name)
	}
	return nil
}

// GetVPNs lists the VPN-related collections.
func (s *Server) GetVPNs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	metas, err := s.db.Collections(ctx)
	if err != nil {
		s.handleError(w, "failed to list VPN collections", err)
		return
	}

	out := []arango.CollectionMeta{}
	for _, m := range metas {
		if isVPNCollection(m.Name) {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collections": out,
		"total_count": len(out),
	})
}

// GetVPNInfo returns one VPN collection's metadata.
func (s *Server) GetVPNInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read VPN collection", err)
		return
	}
	meta, err := s.collectionMeta(ctx, name)
	if err != nil {
		s.handleError(w, "failed to read VPN collection", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

const vpnSummaryQuery = `LET total_count = LENGTH(@@col)
LET unique_rds = (
  FOR doc IN @@col
    COLLECT rd = doc.vpn_rd
    RETURN rd
)
LET unique_route_targets = (
  FOR doc IN @@col
    FOR rt IN NOT_NULL(doc.base_attrs.ext_community_list, [])
      FILTER STARTS_WITH(rt, 'rt=')
      COLLECT target = rt
      RETURN target
)
LET unique_nexthops = (
  FOR doc IN @@col
    COLLECT nexthop = doc.nexthop
    RETURN nexthop
)
LET unique_peer_asns = (
  FOR doc IN @@col
    COLLECT asn = doc.peer_asn
    RETURN asn
)
LET unique_labels = (
  FOR doc IN @@col
    FOR label IN NOT_NULL(doc.labels, [])
      COLLECT l = label
      RETURN l
)
RETURN {
  total_prefixes: total_count,
  unique_rd_count: LENGTH(unique_rds),
  unique_route_target_count: LENGTH(unique_route_targets),
  unique_nexthop_count: LENGTH(unique_nexthops),
  unique_peer_asn_count: LENGTH(unique_peer_asns),
  unique_label_count: LENGTH(unique_labels)
}`

// GetVPNSummary returns aggregate statistics over a VPN collection.
func (s *Server) GetVPNSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNCollection(ctx, name); err != nil {
		s.handleError(w, "failed to summarize VPN collection", err)
		return
	}

	docs, err := s.collectDocs(ctx, vpnSummaryQuery, map[string]any{"@col": name})
	if err != nil {
		s.handleError(w, "failed to summarize VPN collection", err)
		return
	}

	summary := map[string]any{
		"total_prefixes":            0,
		"unique_rd_count":           0,
		"unique_route_target_count": 0,
		"unique_nexthop_count":      0,
		"unique_peer_asn_count":     0,
		"unique_label_count":        0,
	}
	if len(docs) > 0 {
		for k, v := range docs[0] {
			summary[k] = v
		}
	}
	summary["collection"] = name
	writeJSON(w, http.StatusOK, summary)
}

// GetVPNPERouters lists PE routers (nexthops) with their prefix counts.
func (s *Server) GetVPNPERouters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to list PE routers", err)
		return
	}

	query := `FOR doc IN @@col
  COLLECT nexthop = doc.nexthop WITH COUNT INTO count
  RETURN { pe_router: nexthop, prefix_count: count }`
	docs, err := s.collectDocs(ctx, query, map[string]any{"@col": name})
	if err != nil {
		s.handleError(w, "failed to list PE routers", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":       name,
		"total_pe_routers": len(docs),
		"pe_routers":       docs,
	})
}

// GetVPNRouteTargets lists route targets with their prefix counts. Targets
// are stored as "rt=ASN:value" extended communities; the prefix is stripped.
func (s *Server) GetVPNRouteTargets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to list route targets", err)
		return
	}

	query := `FOR doc IN @@col
  FOR rt IN NOT_NULL(doc.base_attrs.ext_community_list, [])
    FILTER STARTS_WITH(rt, 'rt=')
    LET clean_rt = SUBSTRING(rt, 3)
    COLLECT route_target = clean_rt WITH COUNT INTO count
    RETURN { route_target: route_target, prefix_count: count }`
	docs, err := s.collectDocs(ctx, query, map[string]any{"@col": name})
	if err != nil {
		s.handleError(w, "failed to list route targets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":          name,
		"total_route_targets": len(docs),
		"route_targets":       docs,
	})
}

// vpnPrefix is the projection returned by the prefix endpoints. Function and
// SID are derived server-side from the MPLS labels and the SRv6 locator.
type vpnPrefix struct {
	Key          string   `json:"_key"`
	Prefix       string   `json:"prefix"`
	PrefixLen    int      `json:"prefix_len"`
	VPNRD        string   `json:"vpn_rd"`
	Nexthop      string   `json:"nexthop"`
	Labels       []uint32 `json:"labels"`
	PeerASN      uint32   `json:"peer_asn"`
	RouteTargets []string `json:"route_targets"`
	SRv6SID      string   `json:"srv6_sid"`
	Function     []string `json:"function,omitempty"`
	SID          []string `json:"sid,omitempty"`
}

const vpnPrefixProjection = `{
    _key: doc._key,
    prefix: doc.prefix,
    prefix_len: doc.prefix_len,
    vpn_rd: doc.vpn_rd,
    nexthop: doc.nexthop,
    labels: doc.labels,
    peer_asn: doc.peer_asn,
    route_targets: (
      FOR rt IN NOT_NULL(doc.base_attrs.ext_community_list, [])
        FILTER STARTS_WITH(rt, 'rt=')
        RETURN SUBSTRING(rt, 3)
    ),
    srv6_sid: doc.prefix_sid.srv6_l3_service.sub_tlvs["1"][0].sid
  }`

// enrichServiceSIDs derives the hex function per label and, when the prefix
// carries a valid SRv6 locator, the combined per-label service SIDs.
func (s *Server) enrichServiceSIDs(prefixes []vpnPrefix) {
	for i := range prefixes {
		p := &prefixes[i]
		if len(p.Labels) == 0 {
			continue
		}
		p.Function = make([]string, len(p.Labels))
		for j, label := range p.Labels {
			p.Function[j] = srv6.LabelFunction(label)
		}
		if p.SRv6SID == "" {
			continue
		}
		sids := make([]string, 0, len(p.Labels))
		for _, label := range p.Labels {
			sid, err := srv6.CombineServiceSID(p.SRv6SID, label)
			if err != nil {
				s.log.Warn("skipping malformed service SID locator",
					"prefix", p.Prefix, "srv6_sid", p.SRv6SID, "error", err)
				sids = nil
				break
			}
			sids = append(sids, sid)
		}
		p.SID = sids
	}
}

func (s *Server) queryVPNPrefixes(ctx context.Context, name, filter string, binds map[string]any, limit int) ([]vpnPrefix, int, error) {
	query := "FOR doc IN @@col\n" + filter + "  LIMIT @limit\n  RETURN " + vpnPrefixProjection
	qb := map[string]any{"@col": name, "limit": limit}
	for k, v := range binds {
		qb[k] = v
	}

	cur, err := s.db.Query(ctx, query, qb)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close()

	prefixes := []vpnPrefix{}
	for cur.HasMore() {
		var p vpnPrefix
		if err := cur.ReadDocument(ctx, &p); err != nil {
			return nil, 0, err
		}
		prefixes = append(prefixes, p)
	}
	s.enrichServiceSIDs(prefixes)

	countQuery := "FOR doc IN @@col\n" + filter + "  COLLECT AGGREGATE count = COUNT()\n  RETURN count"
	cb := map[string]any{"@col": name}
	for k, v := range binds {
		cb[k] = v
	}
	total, err := s.countQuery(ctx, countQuery, cb)
	if err != nil {
		return nil, 0, err
	}
	return prefixes, total, nil
}

func (s *Server) countQuery(ctx context.Context, query string, binds map[string]any) (int, error) {
	cur, err := s.db.Query(ctx, query, binds)
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	var count int
	if cur.HasMore() {
		if err := cur.ReadDocument(ctx, &count); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func vpnPrefixLimit(r *http.Request) int {
	limit := intParam(r, "limit", defaultDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = defaultDocumentLimit
	}
	return limit
}

// GetVPNPrefixesByPE returns the prefixes advertised by one PE router.
func (s *Server) GetVPNPrefixesByPE(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}
	peRouter := r.URL.Query().Get("pe_router")
	if peRouter == "" {
		s.handleError(w, "failed to read VPN prefixes",
			fmt.Errorf("%w: pe_router is required", graph.ErrInvalidInput))
		return
	}
	limit := vpnPrefixLimit(r)

	prefixes, total, err := s.queryVPNPrefixes(ctx, name,
		"  FILTER doc.nexthop == @pe_router\n",
		map[string]any{"pe_router": peRouter}, limit)
	if err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":     name,
		"pe_router":      peRouter,
		"total_prefixes": total,
		"prefixes":       prefixes,
		"limit_applied":  limit,
	})
}

// GetVPNPrefixesByRT returns the prefixes carrying one route target, with a
// summary of which PE routers advertise them.
func (s *Server) GetVPNPrefixesByRT(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}
	routeTarget := r.URL.Query().Get("route_target")
	if routeTarget == "" {
		s.handleError(w, "failed to read VPN prefixes",
			fmt.Errorf("%w: route_target is required", graph.ErrInvalidInput))
		return
	}
	limit := vpnPrefixLimit(r)

	prefixes, total, err := s.queryVPNPrefixes(ctx, name,
		"  FILTER @route_target IN doc.base_attrs.ext_community_list\n",
		map[string]any{"route_target": "rt=" + routeTarget}, limit)
	if err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}

	counts := map[string]int{}
	order := []string{}
	for _, p := range prefixes {
		if _, ok := counts[p.Nexthop]; !ok {
			order = append(order, p.Nexthop)
		}
		counts[p.Nexthop]++
	}
	advertisingPEs := make([]map[string]any, 0, len(order))
	for _, nh := range order {
		advertisingPEs = append(advertisingPEs, map[string]any{
			"nexthop":      nh,
			"prefix_count": counts[nh],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"collection":           name,
		"route_target":         routeTarget,
		"total_prefixes":       total,
		"advertising_pe_count": len(advertisingPEs),
		"advertising_pes":      advertisingPEs,
		"prefixes":             prefixes,
		"limit_applied":        limit,
	})
}

// GetVPNPrefixesByPERT returns the prefixes matching both a PE router and a
// route target.
func (s *Server) GetVPNPrefixesByPERT(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}
	q := r.URL.Query()
	peRouter := q.Get("pe_router")
	routeTarget := q.Get("route_target")
	if peRouter == "" || routeTarget == "" {
		s.handleError(w, "failed to read VPN prefixes",
			fmt.Errorf("%w: pe_router and route_target are required", graph.ErrInvalidInput))
		return
	}
	limit := vpnPrefixLimit(r)

	prefixes, total, err := s.queryVPNPrefixes(ctx, name,
		"  FILTER doc.nexthop == @pe_router\n  FILTER @route_target IN doc.base_attrs.ext_community_list\n",
		map[string]any{"pe_router": peRouter, "route_target": "rt=" + routeTarget}, limit)
	if err != nil {
		s.handleError(w, "failed to read VPN prefixes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":     name,
		"pe_router":      peRouter,
		"route_target":   routeTarget,
		"total_prefixes": total,
		"prefixes":       prefixes,
		"limit_applied":  limit,
	})
}

// SearchVPNPrefixes filters prefixes by any combination of prefix text,
// route target and route distinguisher. At least one criterion is required.
func (s *Server) SearchVPNPrefixes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureVPNPrefixCollection(ctx, name); err != nil {
		s.handleError(w, "failed to search VPN prefixes", err)
		return
	}

	q := r.URL.Query()
	prefix := q.Get("prefix")
	prefixExact := q.Get("prefix_exact") == "true"
	routeTarget := q.Get("route_target")
	vpnRD := q.Get("vpn_rd")

	var (
		conditions []string
		binds      = map[string]any{}
		criteria   = map[string]any{}
	)
	if prefix != "" {
		binds["prefix"] = prefix
		if prefixExact {
			conditions = append(conditions, "doc.prefix == @prefix")
		} else {
			conditions = append(conditions, "CONTAINS(doc.prefix, @prefix)")
		}
		criteria["prefix"] = prefix
		criteria["prefix_exact"] = prefixExact
	}
	if routeTarget != "" {
		binds["route_target"] = "rt=" + routeTarget
		conditions = append(conditions, "@route_target IN doc.base_attrs.ext_community_list")
		criteria["route_target"] = routeTarget
	}
	if vpnRD != "" {
		binds["vpn_rd"] = vpnRD
		conditions = append(conditions, "doc.vpn_rd == @vpn_rd")
		criteria["vpn_rd"] = vpnRD
	}
	if len(conditions) == 0 {
		s.handleError(w, "failed to search VPN prefixes",
			fmt.Errorf("%w: at least one of prefix, route_target or vpn_rd is required", graph.ErrInvalidInput))
		return
	}
	limit := vpnPrefixLimit(r)

	filter := "  FILTER " + strings.Join(conditions, " AND ") + "\n"
	prefixes, total, err := s.queryVPNPrefixes(ctx, name, filter, binds, limit)
	if err != nil {
		s.handleError(w, "failed to search VPN prefixes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection":      name,
		"search_criteria": criteria,
		"total_prefixes":  total,
		"prefixes":        prefixes,
		"limit_applied":   limit,
	})
}
