/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

// Package sqltext prepares clause text for the SQL front-end: positional placeholders are
// replaced by literal text and function names that collide with reserved words are quoted.
package sqltext

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

// SQL is clause text with positional `?` placeholders and their parameters.
type SQL struct {
	Text   string
	Params []any
}

// Render substitutes every placeholder in order. Numbers and booleans are inserted bare,
// time.Time values are formatted with layout and quoted, nil becomes 'null' and everything
// else is quoted as a string. Surplus parameters are ignored.
//
// Placeholders inside string literals are substituted as well.
func (s SQL) Render(layout string) (string, error) {
	if layout == "" {
		layout = config.DefaultDateLayout
	}
	var out strings.Builder
	out.Grow(len(s.Text))
	next := 0
	for i := 0; i < len(s.Text); i++ {
		c := s.Text[i]
		if c != '?' {
			out.WriteByte(c)
			continue
		}
		if next >= len(s.Params) {
			return "", fmt.Errorf("%w: %d placeholder(s) but %d parameter(s)", qcerrors.ErrTooFewParameters, strings.Count(s.Text, "?"), len(s.Params))
		}
		out.WriteString(Literal(s.Params[next], layout))
		next++
	}
	return out.String(), nil
}

// Literal renders one parameter as clause text.
func Literal(v any, layout string) string {
	switch x := v.(type) {
	case nil:
		return "'null'"
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *big.Int:
		return x.String()
	case *big.Float:
		return x.Text('f', -1)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return quote(x.Format(layout))
	case *time.Time:
		if x == nil {
			return "'null'"
		}
		return quote(x.Format(layout))
	case fmt.Stringer:
		return quote(x.String())
	}
	return quote(fmt.Sprint(v))
}

// The SQL front-end reads a backslash as an escape, so it is doubled before quotes are.
var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
