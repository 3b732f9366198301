package script

import (
	"strconv"
	"strings"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

// binary renders `def n = A op B` with declarations and numeric guards for nested operands.
func binary(op string) template {
	return func(name string, args []Arg) (string, error) {
		a, b := args[0], args[1]
		var sb strings.Builder
		for _, x := range []Arg{a, b} {
			if x.Kind == ArgFragment {
				sb.WriteString(x.Fragment.Source)
				sb.WriteString(";")
			}
		}
		sb.WriteString(numericGuard(a))
		sb.WriteString(numericGuard(b))
		_, refA := operand(a)
		_, refB := operand(b)
		sb.WriteString(" def " + name + " = " + refA + " " + op + " " + refB)
		return sb.String(), nil
	}
}

// unary renders `def n = <call(ref)>`, prefixing the nested declaration when there is one.
func unary(name string, a Arg, call func(ref string) string) string {
	decl, ref := operand(a)
	if decl != "" {
		return decl + ";def " + name + " = " + call(ref)
	}
	return "def " + name + " = " + call(ref)
}

func mathSingle(method string) template {
	return func(name string, args []Arg) (string, error) {
		return unary(name, args[0], func(ref string) string {
			return method + "(" + ref + ")"
		}), nil
	}
}

// round keeps the given number of decimals: round(x, 2) -> Math.round((x) * 100.0)/100.0.
func round(name string, args []Arg) (string, error) {
	if len(args) == 1 {
		return mathSingle("Math.round")(name, args)
	}
	precision, err := strconv.Atoi(args[1].Text)
	if err != nil || precision < 0 {
		return "", qcerrors.Parse(args[1].Text, "round precision must be a non-negative integer")
	}
	scale := "1" + strings.Repeat("0", precision) + ".0"
	return unary(name, args[0], func(ref string) string {
		return "Math.round((" + ref + ") * " + scale + ")/" + scale
	}), nil
}

func pow(name string, args []Arg) (string, error) {
	exponent := args[1].Literal()
	return unary(name, args[0], func(ref string) string {
		return "Math.pow(" + ref + ", " + exponent + ")"
	}), nil
}

// logarithm renders log(x), log(base, x), log2(x) and log10(x) as a quotient of natural logs.
func logarithm(fixedBase string) template {
	return func(name string, args []Arg) (string, error) {
		base, value := fixedBase, args[0]
		if fixedBase == "" {
			base = "Math.E"
			if len(args) > 1 {
				base, value = args[0].Literal(), args[1]
			}
		}
		return unary(name, value, func(ref string) string {
			return "Math.log(" + ref + ")/Math.log(" + base + ")"
		}), nil
	}
}

// between renders max_bw/min_bw over any number of fields.
func between(method string) template {
	return func(name string, args []Arg) (string, error) {
		refs := make([]string, len(args))
		for i, a := range args {
			_, refs[i] = operand(a)
		}
		return "def " + name + " = " + method + "(" + strings.Join(refs, ", ") + ")", nil
	}
}

func field(name string, args []Arg) (string, error) {
	if args[0].Kind != ArgField {
		return "", qcerrors.Parse(args[0].Text, "field() expects a property name")
	}
	return "def " + name + " = " + doc(args[0].Text), nil
}

func split(name string, args []Arg) (string, error) {
	suffix := ""
	if len(args) > 2 {
		if _, err := strconv.Atoi(args[2].Text); err != nil {
			return "", qcerrors.Parse(args[2].Text, "split index must be an integer")
		}
		suffix = "[" + args[2].Text + "]"
	}
	pattern := args[1].Text
	decl, ref := operand(args[0])
	if decl != "" {
		return decl + "; def " + name + " = " + ref + ".split(" + Quote(pattern) + ")" + suffix, nil
	}
	return "def " + name + " = " + ref + ".split(" + Quote(pattern) + ")" + suffix, nil
}

func substring(name string, args []Arg) (string, error) {
	for _, a := range args[1:3] {
		if _, err := strconv.Atoi(a.Text); err != nil {
			return "", qcerrors.Parse(a.Text, "substring bounds must be integers")
		}
	}
	pos, length := args[1].Text, args[2].Text
	return unary(name, args[0], func(ref string) string {
		return ref + ".substring(" + pos + "," + length + ")"
	}), nil
}

func trim(name string, args []Arg) (string, error) {
	decl, ref := operand(args[0])
	if decl != "" {
		return decl + "; def " + name + " = " + ref + ".trim()", nil
	}
	return "def " + name + " = " + ref + ".trim()", nil
}

// concatWs joins the remaining arguments with the first: concat_ws('-', a, b).
func concatWs(name string, args []Arg) (string, error) {
	sep := args[0].Literal()
	var decls strings.Builder
	parts := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		decl, ref := operand(a)
		if decl != "" {
			decls.WriteString(decl)
			decls.WriteString(";")
		}
		parts = append(parts, ref)
	}
	return decls.String() + "def " + name + " =" + strings.Join(parts, "+ "+sep+" +"), nil
}

// dateFormat renders a field holding a date with a java.time pattern and optional zone id.
func dateFormat(name string, args []Arg) (string, error) {
	if args[0].Kind != ArgField {
		return "", qcerrors.Parse(args[0].Text, "date_format() expects a property name")
	}
	zone := "ZoneId.systemDefault()"
	if len(args) > 2 {
		zone = "ZoneId.of(" + Quote(args[2].Text) + ")"
	}
	return "def " + name + " = DateTimeFormatter.ofPattern(" + Quote(args[1].Text) + ").withZone(" + zone +
		").format(Instant.ofEpochMilli(" + doc(args[0].Text) + ".getMillis()))", nil
}

// condition renders the test of an if/case_new branch.
func condition(a Arg) (string, error) {
	switch a.Kind {
	case ArgCondition:
		op := a.Op
		if op == "" || op == "=" {
			op = "=="
		}
		return doc(a.Text) + " " + op + " " + a.Value, nil
	case ArgInList:
		tests := make([]string, len(a.Values))
		for i, v := range a.Values {
			tests[i] = doc(a.Text) + " == " + v
		}
		return strings.Join(tests, " || "), nil
	}
	return "", qcerrors.Parse(a.Text, "expected a comparison as condition")
}

func ifElse(_ string, args []Arg) (string, error) {
	test, err := condition(args[0])
	if err != nil {
		return "", err
	}
	return "if((" + test + ")){" + args[1].Literal() + "} else {" + args[2].Literal() + "}", nil
}

func coalesce(_ string, args []Arg) (string, error) {
	branches := make([]string, len(args))
	for i, a := range args {
		_, ref := operand(a)
		branches[i] = "if(" + ref + " != null){" + ref + "}"
	}
	return strings.Join(branches, " else "), nil
}

// caseNew renders case_new(cond1, v1, cond2, v2, default, v) as an if / else if chain.
func caseNew(_ string, args []Arg) (string, error) {
	if len(args)%2 != 0 {
		return "", qcerrors.Parse("case_new", "case_new expects an even number of arguments, got %d", len(args))
	}
	var branches []string
	defaultValue := ""
	for i := 0; i < len(args); i += 2 {
		if args[i].Kind == ArgDefault {
			defaultValue = args[i+1].Literal()
			continue
		}
		test, err := condition(args[i])
		if err != nil {
			return "", err
		}
		branches = append(branches, "if("+test+") { "+args[i+1].Literal()+" }")
	}
	out := strings.Join(branches, " else ")
	if defaultValue != "" {
		out += " else " + defaultValue
	}
	return out, nil
}

// parse extracts the first regex group of a field: parse(hobby, '(\S+)ball', 'none').
func parse(_ string, args []Arg) (string, error) {
	if len(args) != 3 {
		return "", qcerrors.Parse("parse", "parse expects a field, a pattern with one group and a default value")
	}
	if args[0].Kind != ArgField {
		return "", qcerrors.Parse(args[0].Text, "parse() expects a property name")
	}
	return "def m = /" + regexBody(args[1].Text) + "/.matcher(" + doc(args[0].Text) + "); if(m.matches()) { return m.group(1) } else { return " +
		args[2].Literal() + " }", nil
}

// regexBody escapes the slashes of pattern that would otherwise end a painless regex literal.
func regexBody(pattern string) string {
	var out strings.Builder
	escaped := false
	for _, r := range pattern {
		if r == '/' && !escaped {
			out.WriteByte('\\')
		}
		escaped = r == '\\' && !escaped
		out.WriteRune(r)
	}
	return out.String()
}
