package reql

import (
	"encoding/json"
	"strings"
	"testing"
)

func rawFrames(steps ...interface{}) []json.RawMessage {
	frames := make([]json.RawMessage, len(steps))
	for i, s := range steps {
		b, err := json.Marshal(s)
		if err != nil {
			panic(err)
		}
		frames[i] = b
	}
	return frames
}

func TestPrintBacktrace_MarksSelectedArg(t *testing.T) {
	t.Parallel()
	term := Table("users").Get("missing")
	// backtrace [1] points at the second arg of GET (the key "missing")
	query, marks := PrintBacktrace(term, rawFrames(1))

	if len(query) != len(marks) {
		t.Fatalf("query and marks length mismatch: %d vs %d\nquery: %s\nmarks: %s", len(query), len(marks), query, marks)
	}

	idx := strings.Index(query, `"missing"`)
	if idx < 0 {
		t.Fatalf("expected %q in query, got %s", "missing", query)
	}
	markedSpan := marks[idx : idx+len(`"missing"`)]
	if strings.ContainsRune(markedSpan, ' ') {
		t.Errorf("expected %q fully caret-marked, got %q", markedSpan, markedSpan)
	}
	if strings.ContainsRune(marks[:idx], '^') {
		t.Errorf("expected no carets before the marked span, got %q", marks[:idx])
	}
}

func TestPrintBacktrace_MarksNestedChild(t *testing.T) {
	t.Parallel()
	// backtrace [0, 0] descends into GET's receiver (TABLE), then TABLE's
	// first arg (the table name datum).
	term := Table("users").Get("k")
	query, marks := PrintBacktrace(term, rawFrames(0, 0))

	idx := strings.Index(query, `"users"`)
	if idx < 0 {
		t.Fatalf("expected %q in query, got %s", "users", query)
	}
	markedSpan := marks[idx : idx+len(`"users"`)]
	if strings.ContainsRune(markedSpan, ' ') {
		t.Errorf("expected %q fully caret-marked, got %q", markedSpan, markedSpan)
	}

	keyIdx := strings.Index(query, `"k"`)
	if strings.ContainsRune(marks[keyIdx:keyIdx+3], '^') {
		t.Errorf("sibling arg should not be marked, got %q", marks[keyIdx:keyIdx+3])
	}
}

func TestPrintBacktrace_EmptyPathMarksWholeQuery(t *testing.T) {
	t.Parallel()
	term := Table("users")
	query, marks := PrintBacktrace(term, nil)

	if len(marks) != len(query) {
		t.Fatalf("length mismatch: query=%d marks=%d", len(query), len(marks))
	}
	if strings.ContainsRune(marks, ' ') {
		t.Errorf("expected every character marked, got %q", marks)
	}
}

func TestPrintBacktrace_OperatorRendersAsNamedCall(t *testing.T) {
	t.Parallel()
	term := Table("users").Filter(Row().GetField("active").Eq(true))
	query, _ := PrintBacktrace(term, nil)

	if !strings.HasPrefix(query, "r.filter(") {
		t.Errorf("expected r.filter(...) prefix, got %s", query)
	}
}
