package reql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PrintBacktrace renders t as a human-readable expression alongside a caret
// line marking the sub-term named by backtrace. backtrace is a sequence of
// argument indices (positional) or optional-arg names describing a path
// from the root to the offending sub-term, exactly as the server reports it.
//
// Every operator renders "r.<type_name>(arg, ...)" function-application
// style rather than picking a method/infix/bracket form per operator: the
// diagnostic only needs query and marks to stay character-aligned, not to
// read like handwritten ReQL.
func PrintBacktrace(t Term, backtrace []json.RawMessage) (query, marks string) {
	path := decodeBacktrace(backtrace)
	var q, m strings.Builder
	renderMarked(&q, &m, t, path)
	return q.String(), m.String()
}

// decodeBacktrace turns raw backtrace frames into a path of int (positional
// arg index) or string (optional-arg name) steps.
func decodeBacktrace(frames []json.RawMessage) []interface{} {
	path := make([]interface{}, 0, len(frames))
	for _, f := range frames {
		var n int
		if err := json.Unmarshal(f, &n); err == nil {
			path = append(path, n)
			continue
		}
		var s string
		if err := json.Unmarshal(f, &s); err == nil {
			path = append(path, s)
			continue
		}
		return path // unrecognized frame shape: stop descending
	}
	return path
}

// renderMarked writes t's rendering to q and caret/space marks to m.
// When path is exhausted, t is the target: its whole rendering is carets.
// Otherwise only the child selected by path[0] is recursed into; every
// sibling and all of t's own decoration (name, parens, commas) are spaces.
func renderMarked(q, m *strings.Builder, t Term, path []interface{}) {
	start := q.Len()

	if len(path) == 0 {
		writeTermExpr(q, t)
		fillRun(m, q.Len()-start, '^')
		return
	}
	if t.termType == 0 {
		// a datum has no children to descend into; treat as off-path
		writeTermExpr(q, t)
		fillRun(m, q.Len()-start, ' ')
		return
	}

	name, ok := termNames[t.termType]
	if !ok {
		name = fmt.Sprintf("unknown_%d", int(t.termType))
	}
	writeSpaces(q, m, "r."+name+"(")

	for i, arg := range t.args {
		if i > 0 {
			writeSpaces(q, m, ", ")
		}
		if next := descend(path, i); next != nil {
			renderMarked(q, m, arg, next)
		} else {
			writeOffPath(q, m, arg)
		}
	}

	if len(t.opts) > 0 {
		if len(t.args) > 0 {
			writeSpaces(q, m, ", ")
		}
		writeSpaces(q, m, "{")
		for i, name := range sortedKeys(t.opts) {
			if i > 0 {
				writeSpaces(q, m, ", ")
			}
			writeSpaces(q, m, name+": ")
			optTerm, _ := t.opts[name].(Term)
			if next := descendName(path, name); next != nil {
				renderMarked(q, m, optTerm, next)
			} else {
				writeOffPath(q, m, optTerm)
			}
		}
		writeSpaces(q, m, "}")
	}

	writeSpaces(q, m, ")")
}

// writeOffPath writes t's plain rendering with pure space marks: t is known
// not to contain the target, so no part of its subtree needs recursion.
func writeOffPath(q, m *strings.Builder, t Term) {
	start := q.Len()
	writeTermExpr(q, t)
	fillRun(m, q.Len()-start, ' ')
}

// writeSpaces writes literal syntax (parens, commas, names) to q and pads m
// with matching spaces; this text is never part of a caret-marked span.
func writeSpaces(q, m *strings.Builder, s string) {
	q.WriteString(s)
	fillRun(m, len(s), ' ')
}

func fillRun(m *strings.Builder, n int, ch byte) {
	for i := 0; i < n; i++ {
		m.WriteByte(ch)
	}
}

// writeTermExpr writes t's plain textual rendering with no mark tracking.
func writeTermExpr(q *strings.Builder, t Term) {
	if t.err != nil {
		fmt.Fprintf(q, "<error: %v>", t.err)
		return
	}
	if t.termType == 0 {
		writeDatum(q, t.datum)
		return
	}

	name, ok := termNames[t.termType]
	if !ok {
		name = fmt.Sprintf("unknown_%d", int(t.termType))
	}
	q.WriteString("r.")
	q.WriteString(name)
	q.WriteString("(")
	for i, arg := range t.args {
		if i > 0 {
			q.WriteString(", ")
		}
		writeTermExpr(q, arg)
	}
	if len(t.opts) > 0 {
		if len(t.args) > 0 {
			q.WriteString(", ")
		}
		q.WriteString("{")
		for i, name := range sortedKeys(t.opts) {
			if i > 0 {
				q.WriteString(", ")
			}
			q.WriteString(name)
			q.WriteString(": ")
			if optTerm, ok := t.opts[name].(Term); ok {
				writeTermExpr(q, optTerm)
			}
		}
		q.WriteString("}")
	}
	q.WriteString(")")
}

// descend returns the remaining path if path's next step is positional
// index i, nil if this branch isn't on the path.
func descend(path []interface{}, i int) []interface{} {
	if len(path) == 0 {
		return nil
	}
	n, ok := path[0].(int)
	if !ok || n != i {
		return nil
	}
	return path[1:]
}

// descendName returns the remaining path if path's next step is the named
// optional arg, nil if this branch isn't on the path.
func descendName(path []interface{}, name string) []interface{} {
	if len(path) == 0 {
		return nil
	}
	s, ok := path[0].(string)
	if !ok || s != name {
		return nil
	}
	return path[1:]
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func writeDatum(q *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		q.WriteString("null")
	case string:
		b, _ := json.Marshal(val)
		q.Write(b)
	case bool:
		q.WriteString(strconv.FormatBool(val))
	case float64:
		q.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	default:
		b, err := json.Marshal(val)
		if err != nil {
			fmt.Fprintf(q, "%v", val)
			return
		}
		q.Write(b)
	}
}
