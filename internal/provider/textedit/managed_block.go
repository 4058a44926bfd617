// Package textedit edits configuration files archstrap shares with the
// operator: fenced managed blocks and shell-style array assignments.
package textedit

import (
	"fmt"
	"strings"
)

const (
	blockStartFmt = "# >>> archstrap %s >>>"
	blockEndFmt   = "# <<< archstrap %s <<<"
)

// HasManagedBlock reports whether content carries the start marker for section.
func HasManagedBlock(content, section string) bool {
	return strings.Contains(content, fmt.Sprintf(blockStartFmt, section))
}

// ReadManagedBlock extracts the content between archstrap managed block markers.
// Returns empty string if the block is not found.
func ReadManagedBlock(content, section string) string {
	start := fmt.Sprintf(blockStartFmt, section)
	end := fmt.Sprintf(blockEndFmt, section)

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		return ""
	}

	endIdx := strings.Index(content, end)
	if endIdx == -1 {
		return ""
	}

	blockStart := startIdx + len(start)
	if blockStart < len(content) && content[blockStart] == '\n' {
		blockStart++
	}

	if blockStart >= endIdx {
		return ""
	}

	return content[blockStart:endIdx]
}

// WriteManagedBlock replaces the managed block for section, or appends one.
// block should end in a newline.
func WriteManagedBlock(content, section, block string) string {
	start := fmt.Sprintf(blockStartFmt, section)
	end := fmt.Sprintf(blockEndFmt, section)

	managed := start + "\n" + block + end + "\n"

	startIdx := strings.Index(content, start)
	if startIdx == -1 {
		if content == "" {
			return managed
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + "\n" + managed
	}

	endIdx := strings.Index(content[startIdx:], end)
	if endIdx == -1 {
		// Start marker without end: the block runs to EOF.
		return content[:startIdx] + managed
	}
	endIdx += startIdx

	afterEnd := endIdx + len(end)
	if afterEnd < len(content) && content[afterEnd] == '\n' {
		afterEnd++
	}

	return content[:startIdx] + managed + content[afterEnd:]
}
