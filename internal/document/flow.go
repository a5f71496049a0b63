package document

import (
	"regexp"
	"strconv"
	"strings"
)

// FlowKeys are the property names whose short numeric sequences are
// rewritten inline by NormalizeFlowArrays.
var FlowKeys = map[string]bool{
	"position":      true,
	"translate":     true,
	"rotation":      true,
	"rotationEuler": true,
	"euler":         true,
	"scale":         true,
	"size":          true,
	"pivot":         true,
	"anchors":       true,
	"anchorMin":     true,
	"anchorMax":     true,
	"offsets":       true,
	"offsetMin":     true,
	"offsetMax":     true,
	"offset":        true,
	"speed":         true,
}

var (
	keyLine  = regexp.MustCompile(`^(\s*(?:- )?)([A-Za-z_][A-Za-z0-9_]*):\s*$`)
	itemLine = regexp.MustCompile(`^(\s*)- (\S.*)$`)
)

// NormalizeFlowArrays rewrites block sequences of numbers under FlowKeys
// into flow style:
//
//	position:
//	  - 1
//	  - 2
//
// becomes "position: [1, 2]". Anything that is not a flat list of numbers is
// left untouched.
func NormalizeFlowArrays(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		m := keyLine.FindStringSubmatch(lines[i])
		if m == nil || !FlowKeys[m[2]] {
			out = append(out, lines[i])
			continue
		}
		items, next, ok := numericItems(lines, i+1, len(m[1]))
		if !ok {
			out = append(out, lines[i])
			continue
		}
		out = append(out, m[1]+m[2]+": ["+strings.Join(items, ", ")+"]")
		i = next - 1
	}
	return strings.Join(out, "\n")
}

// numericItems collects "- <number>" lines starting at from. All items share
// one indent no shallower than keyCol. It returns the index after the last
// item.
func numericItems(lines []string, from, keyCol int) ([]string, int, bool) {
	var items []string
	itemIndent := -1
	j := from
	for ; j < len(lines); j++ {
		m := itemLine.FindStringSubmatch(lines[j])
		if m == nil {
			break
		}
		indent := len(m[1])
		if itemIndent == -1 {
			if indent < keyCol {
				return nil, 0, false
			}
			itemIndent = indent
		} else if indent != itemIndent {
			break
		}
		v := strings.TrimSpace(m[2])
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return nil, 0, false
		}
		items = append(items, v)
	}
	if len(items) == 0 {
		return nil, 0, false
	}
	if j < len(lines) && indentOf(lines[j]) > itemIndent && strings.TrimSpace(lines[j]) != "" {
		return nil, 0, false
	}
	return items, j, true
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
