package predicate

// Describe renders p as a plain map keyed by predicate kind, suitable for JSON output and
// for structural comparisons in tests.
func Describe(p Predicate) map[string]any {
	if p == nil {
		return nil
	}
	var body any
	switch v := p.(type) {
	case *Term:
		body = map[string]any{"field": v.Field, "value": v.Value}
	case *Phrase:
		body = map[string]any{"field": v.Field, "text": v.Text}
	case *Wildcard:
		body = map[string]any{"field": v.Field, "pattern": v.Pattern}
	case *Regex:
		body = map[string]any{"field": v.Field, "pattern": v.Pattern, "flags": v.Flags, "maxDeterminizedStates": v.MaxDeterminizedStates}
	case *Range:
		m := map[string]any{"field": v.Field}
		for k, b := range map[string]any{"gt": v.GT, "gte": v.GTE, "lt": v.LT, "lte": v.LTE} {
			if b != nil {
				m[k] = b
			}
		}
		body = m
	case *Terms:
		body = map[string]any{"field": v.Field, "values": v.Values}
	case *Exists:
		body = map[string]any{"field": v.Field}
	case *NotExists:
		body = map[string]any{"field": v.Field}
	case *Ids:
		body = map[string]any{"values": v.Values}
	case *Match:
		body = map[string]any{"field": v.Field, "text": v.Text}
	case *MatchPhrasePrefix:
		body = map[string]any{"field": v.Field, "text": v.Text}
	case *QueryString:
		body = map[string]any{"query": v.Query}
	case *GeoDistance:
		body = map[string]any{"field": v.Field, "distance": v.Distance, "lat": v.Lat, "lon": v.Lon}
	case *GeoBoundingBox:
		body = map[string]any{"field": v.Field, "top": v.Top, "left": v.Left, "bottom": v.Bottom, "right": v.Right}
	case *GeoPolygon:
		points := make([]map[string]any, len(v.Points))
		for i, pt := range v.Points {
			points[i] = map[string]any{"lat": pt.Lat, "lon": pt.Lon}
		}
		body = map[string]any{"field": v.Field, "points": points}
	case *GeoIntersects:
		body = map[string]any{"field": v.Field, "wkt": v.WKT}
	case *Nested:
		body = withInnerHits(map[string]any{"path": v.Path, "query": Describe(v.Inner)}, v.InnerHits)
	case *HasRelationship:
		body = withInnerHits(map[string]any{"type": v.Type, "query": Describe(v.Inner)}, v.InnerHits)
	case *Script:
		m := map[string]any{"source": v.Source}
		if len(v.Params) > 0 {
			m["params"] = v.Params
		}
		if v.Stored {
			m["stored"] = true
		}
		body = m
	case *Bool:
		m := map[string]any{}
		for k, list := range map[string][]Predicate{"must": v.Must, "should": v.Should, "must_not": v.MustNot, "filter": v.Filter} {
			if len(list) == 0 {
				continue
			}
			out := make([]map[string]any, len(list))
			for i, c := range list {
				out[i] = Describe(c)
			}
			m[k] = out
		}
		body = m
	}
	return map[string]any{p.Kind(): body}
}

func withInnerHits(m map[string]any, ih *InnerHits) map[string]any {
	if ih == nil {
		return m
	}
	out := map[string]any{"from": ih.From}
	if ih.Name != "" {
		out["name"] = ih.Name
	}
	if ih.Size != nil {
		out["size"] = *ih.Size
	}
	if len(ih.Sorts) > 0 {
		out["sorts"] = ih.Sorts
	}
	if len(ih.Source) > 0 {
		out["source"] = ih.Source
	}
	m["inner_hits"] = out
	return m
}
