package querymaker

import (
	"fmt"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// geoPredicate builds geo predicates. Coordinates are given longitude first:
//
//	GEO_BOUNDING_BOX(field, topLeftLon, topLeftLat, bottomRightLon, bottomRightLat)
//	GEO_DISTANCE(field, distance, lon, lat)
//	GEO_POLYGON(field, lon1, lat1, lon2, lat2, ...)
//	GEO_INTERSECTS(field, 'WKT')
func geoPredicate(op operator.Operator, field string, values []condition.Value) (predicate.Predicate, error) {
	switch op {
	case operator.GeoIntersects:
		if len(values) != 1 || values[0].Kind() != condition.KindString {
			return nil, qcerrors.Parse(field, "GEO_INTERSECTS expects a WKT string")
		}
		return &predicate.GeoIntersects{Field: field, WKT: values[0].Text()}, nil
	case operator.GeoBoundingBox:
		coords, err := floats(field, values, 4)
		if err != nil {
			return nil, err
		}
		return &predicate.GeoBoundingBox{Field: field, Left: coords[0], Top: coords[1], Right: coords[2], Bottom: coords[3]}, nil
	case operator.GeoDistance:
		if len(values) != 3 {
			return nil, qcerrors.Parse(field, "GEO_DISTANCE expects distance, lon and lat")
		}
		coords, err := floats(field, values[1:], 2)
		if err != nil {
			return nil, err
		}
		return &predicate.GeoDistance{Field: field, Distance: fmt.Sprint(values[0].Normalize()), Lon: coords[0], Lat: coords[1]}, nil
	case operator.GeoPolygon:
		if len(values) < 6 || len(values)%2 != 0 {
			return nil, qcerrors.Parse(field, "GEO_POLYGON expects at least three lon/lat pairs")
		}
		coords, err := floats(field, values, len(values))
		if err != nil {
			return nil, err
		}
		points := make([]predicate.GeoPoint, 0, len(coords)/2)
		for i := 0; i < len(coords); i += 2 {
			points = append(points, predicate.GeoPoint{Lon: coords[i], Lat: coords[i+1]})
		}
		return &predicate.GeoPolygon{Field: field, Points: points}, nil
	}
	return nil, qcerrors.Parse(field, "unknown geo operator %s", op)
}

func floats(field string, values []condition.Value, n int) ([]float64, error) {
	if len(values) != n {
		return nil, qcerrors.Parse(field, "expected %d coordinates, got %d", n, len(values))
	}
	out := make([]float64, n)
	for i, v := range values {
		switch x := v.Normalize().(type) {
		case int64:
			out[i] = float64(x)
		case float64:
			out[i] = x
		default:
			return nil, qcerrors.Parse(v.Literal(), "coordinate must be numeric")
		}
	}
	return out, nil
}
