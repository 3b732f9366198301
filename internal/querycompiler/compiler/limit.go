package compiler

import (
	"strconv"

	"github.com/temporalio/sqlparser"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// limit converts `LIMIT [offset,] rowCount` into a page.
func limit(l *sqlparser.Limit) (predicate.Page, error) {
	var page predicate.Page
	if l == nil {
		return page, nil
	}
	if l.Offset != nil {
		n, err := nonNegative(l.Offset)
		if err != nil {
			return page, err
		}
		page.Offset = n
	}
	if l.Rowcount != nil {
		n, err := nonNegative(l.Rowcount)
		if err != nil {
			return page, err
		}
		page.Size = &n
	}
	return page, nil
}

func nonNegative(expr sqlparser.Expr) (int, error) {
	v, ok := unparen(expr).(*sqlparser.SQLVal)
	if !ok || v.Type != sqlparser.IntVal {
		return 0, qcerrors.Parse(render(expr), "LIMIT expects integers")
	}
	n, err := strconv.Atoi(string(v.Val))
	if err != nil || n < 0 {
		return 0, qcerrors.Parse(render(expr), "LIMIT expects non-negative integers")
	}
	return n, nil
}
