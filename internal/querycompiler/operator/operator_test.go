package operator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

func TestNegateIsAnInvolution(t *testing.T) {
	t.Parallel()
	for _, op := range All() {
		n, err := Negate(op)
		if err != nil {
			continue
		}
		back, err := Negate(n)
		require.NoError(t, err, "negating %s twice", op)
		require.Equal(t, op, back, "negating %s twice", op)
	}
}

func TestNegateRangeBoundariesAreAsymmetric(t *testing.T) {
	t.Parallel()
	n, err := Negate(GT)
	require.NoError(t, err)
	require.Equal(t, LTE, n)

	n, err = Negate(LT)
	require.NoError(t, err)
	require.Equal(t, GTE, n)

	n, err = Negate(GTE)
	require.NoError(t, err)
	require.Equal(t, LT, n)
}

func TestNegateRejectsOperatorsWithoutComplement(t *testing.T) {
	t.Parallel()
	for _, op := range []Operator{GeoIntersects, GeoBoundingBox, GeoDistance, GeoPolygon, IDS, SCRIPT} {
		_, err := Negate(op)
		var ne *qcerrors.UnsupportedNegation
		require.True(t, errors.As(err, &ne), "operator %s", op)
		require.Equal(t, string(op), ne.Operator)
	}
}

func TestNegativeOperatorsWrapTheirPositiveForm(t *testing.T) {
	t.Parallel()
	require.True(t, IsNegative(NEQ))
	require.Equal(t, EQ, Positive(NEQ))
	require.Equal(t, BETWEEN, Positive(NotBetween))
	require.False(t, IsNegative(NotExists))
	require.False(t, IsNegative(LTE))
	require.Equal(t, GT, Positive(GT))
}

func TestFromSQL(t *testing.T) {
	t.Parallel()
	cases := map[string]Operator{
		"=":           EQ,
		"!=":          NEQ,
		"<>":          NEQ,
		">=":          GTE,
		"not in":      NotIn,
		"NOT BETWEEN": NotBetween,
		"like":        LIKE,
		"regexp":      REGEXP,
	}
	for in, want := range cases {
		got, err := FromSQL(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := FromSQL("<=>")
	require.Error(t, err)
}

func TestFromMethod(t *testing.T) {
	t.Parallel()
	op, ok, err := FromMethod("match_term", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TERM, op)

	op, ok, err = FromMethod("in_terms", true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, NotTerms, op)

	_, ok, err = FromMethod("ids_query", true)
	require.True(t, ok)
	require.Error(t, err)

	_, ok, err = FromMethod("concat", false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScriptSymbol(t *testing.T) {
	t.Parallel()
	require.Equal(t, "==", ScriptSymbol("="))
	require.Equal(t, "!=", ScriptSymbol("<>"))
	require.Equal(t, ">=", ScriptSymbol(">="))
}
