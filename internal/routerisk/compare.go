package routerisk

import "sort"

// Compare orders evaluated routes by ascending risk score and returns the
// lowest-risk route as primary with the next lowest as alternative. Ties keep
// their input order, so the provider's preferred route wins when scores are
// equal.
func Compare(routes []*EvaluatedRoute) (*Comparison, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	ranked := make([]*EvaluatedRoute, len(routes))
	copy(ranked, routes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskScore < ranked[j].RiskScore
	})

	cmp := &Comparison{Primary: ranked[0]}
	if len(ranked) > 1 {
		cmp.Alternative = ranked[1]
	}
	return cmp, nil
}
