package textedit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparsableArray is returned when KEY is assigned in a form the array
// editor does not understand. Callers must not fall back to appending a new
// assignment: the shell would let it override the existing one.
var ErrUnparsableArray = errors.New("unsupported array assignment")

var trailingRe = regexp.MustCompile(`^[ \t]*(#.*)?$`)

func assignmentRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(key) + `=`)
}

// arrayAssignment locates KEY=( ... ) in content. open and closing index
// the parentheses.
type arrayAssignment struct {
	open    int
	closing int
	entries []string
}

// findArray parses the last uncommented KEY= assignment, the one the
// shell keeps. The array may span lines and carry comments inside or after
// it. found is false when KEY is never assigned.
func findArray(content, key string) (arr arrayAssignment, found bool, err error) {
	locs := assignmentRe(key).FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return arrayAssignment{}, false, nil
	}
	open := locs[len(locs)-1][1]
	if open >= len(content) || content[open] != '(' {
		return arrayAssignment{}, true, fmt.Errorf("%s: %w: expected %s=(...)", key, ErrUnparsableArray, key)
	}

	closing := -1
	inComment := false
	for i := open + 1; i < len(content) && closing < 0; i++ {
		switch c := content[i]; {
		case c == '\n':
			inComment = false
		case inComment:
		case c == '#' && isWordStart(content[i-1]):
			inComment = true
		case c == '(':
			return arrayAssignment{}, true, fmt.Errorf("%s: %w: unterminated array", key, ErrUnparsableArray)
		case c == ')':
			closing = i
		}
	}
	if closing < 0 {
		return arrayAssignment{}, true, fmt.Errorf("%s: %w: missing closing parenthesis", key, ErrUnparsableArray)
	}

	rest := content[closing+1:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if !trailingRe.MatchString(rest) {
		return arrayAssignment{}, true, fmt.Errorf("%s: %w: unexpected %q after the array", key, ErrUnparsableArray, strings.TrimSpace(rest))
	}

	var entries []string
	for _, line := range strings.Split(content[open+1:closing], "\n") {
		if idx := commentStart(line); idx >= 0 {
			line = line[:idx]
		}
		for _, w := range strings.Fields(line) {
			entries = append(entries, strings.Trim(w, `"'`))
		}
	}
	return arrayAssignment{open: open, closing: closing, entries: entries}, true, nil
}

func isWordStart(prev byte) bool {
	return prev == ' ' || prev == '\t' || prev == '\n' || prev == '('
}

func commentStart(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || isWordStart(line[i-1])) {
			return i
		}
	}
	return -1
}

// ArrayEntries returns the words of the KEY=(...) assignment, such as
// MODULES=(...) in mkinitcpio.conf. ok is false when KEY is not assigned.
func ArrayEntries(content, key string) (entries []string, ok bool, err error) {
	arr, found, err := findArray(content, key)
	if err != nil || !found {
		return nil, found, err
	}
	return arr.entries, true, nil
}

// MissingEntries returns the wanted words absent from the KEY=(...) array.
func MissingEntries(content, key string, want []string) ([]string, error) {
	have, _, err := ArrayEntries(content, key)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var missing []string
	for _, w := range want {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	return missing, nil
}

// MergeArray adds the missing words to the end of the KEY=(...) array,
// keeping everything else in the file untouched. A new assignment is
// appended only when KEY is not assigned at all.
func MergeArray(content, key string, want []string) (string, error) {
	arr, found, err := findArray(content, key)
	if err != nil {
		return "", err
	}
	if !found {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + fmt.Sprintf("%s=(%s)\n", key, strings.Join(want, " ")), nil
	}

	missing, err := MissingEntries(content, key, want)
	if err != nil {
		return "", err
	}
	if len(missing) == 0 {
		return content, nil
	}
	words := strings.Join(missing, " ")

	if len(arr.entries) == 0 && !strings.Contains(content[arr.open:arr.closing], "#") {
		return content[:arr.open+1] + words + content[arr.closing:], nil
	}

	body := content[arr.open+1 : arr.closing]
	lastNL := strings.LastIndexByte(body, '\n')
	if lastNL >= 0 && strings.TrimSpace(body[lastNL+1:]) == "" {
		// ")" sits on its own line: add a line in the style of the others.
		insert := arr.open + 1 + lastNL + 1
		return content[:insert] + lineIndent(body[:lastNL]) + words + "\n" + content[insert:], nil
	}
	return content[:arr.closing] + " " + words + content[arr.closing:], nil
}

// lineIndent returns the leading whitespace of the last non-blank line.
func lineIndent(body string) string {
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		return lines[i][:len(lines[i])-len(strings.TrimLeft(lines[i], " \t"))]
	}
	return "    "
}
