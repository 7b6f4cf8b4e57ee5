package directive

import (
	"regexp"
	"sort"
	"strings"
)

// Call is one directive occurrence found in model output. Span covers the
// full matched text including any fencing, so stripping removes the whole
// block.
type Call struct {
	Name    string
	RawArgs string
	Span    [2]int
}

var (
	fencedPattern = regexp.MustCompile("(?s)```function\\s+(\\w+)\\s*\\((.*?)\\)\\s*```")
	barePattern   = regexp.MustCompile(`(?s)function\s+(\w+)\s*\((.*?)\)`)
)

// Parse scans model output for directive calls in both the fenced and the
// bare form. A bare match inside an already-matched fenced span is the same
// call seen twice and is dropped, not executed again.
func Parse(text string) []Call {
	var calls []Call

	fenced := fencedPattern.FindAllStringSubmatchIndex(text, -1)
	for _, m := range fenced {
		calls = append(calls, Call{
			Name:    text[m[2]:m[3]],
			RawArgs: text[m[4]:m[5]],
			Span:    [2]int{m[0], m[1]},
		})
	}

	for _, m := range barePattern.FindAllStringSubmatchIndex(text, -1) {
		if overlapsAny(m[0], m[1], fenced) {
			continue
		}
		calls = append(calls, Call{
			Name:    text[m[2]:m[3]],
			RawArgs: text[m[4]:m[5]],
			Span:    [2]int{m[0], m[1]},
		})
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].Span[0] < calls[j].Span[0] })
	return calls
}

// Strip removes every matched span from the text and tidies the leftover
// whitespace.
func Strip(text string, calls []Call) string {
	if len(calls) == 0 {
		return strings.TrimSpace(text)
	}

	var b strings.Builder
	prev := 0
	for _, call := range calls {
		b.WriteString(text[prev:call.Span[0]])
		prev = call.Span[1]
	}
	b.WriteString(text[prev:])

	cleaned := regexp.MustCompile(`\n{3,}`).ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(cleaned)
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
