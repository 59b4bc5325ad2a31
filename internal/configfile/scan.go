package configfile

import (
	"fmt"
	"strings"
)

// The configuration source is a hand-authored JS object literal. Locating the
// packages block can't use naive brace counting because braces legally appear
// inside strings, comments and template literals elsewhere in the file, so
// everything below treats those regions as opaque while scanning.

// skipOpaque reports whether src[i] starts a comment or string form and, if
// so, returns the index just past it.
func skipOpaque(src string, i int) (int, bool) {
	switch src[i] {
	case '/':
		if i+1 < len(src) {
			switch src[i+1] {
			case '/':
				end := strings.IndexByte(src[i:], '\n')
				if end < 0 {
					return len(src), true
				}
				return i + end, true // leave the newline for the caller
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return len(src), true
				}
				return i + 2 + end + 2, true
			}
		}
	case '\'', '"':
		return skipQuoted(src, i, src[i]), true
	case '`':
		return skipTemplate(src, i), true
	}
	return i, false
}

// skipQuoted returns the index just past a quoted string starting at i,
// honoring backslash escapes. Unterminated strings run to end of input.
func skipQuoted(src string, i int, quote byte) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(src)
}

// skipTemplate returns the index just past a template literal starting at i.
// Interpolations (${ ... }) may nest arbitrary expressions, including further
// strings and templates, so they're scanned with the balanced scanner.
func skipTemplate(src string, i int) int {
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
		case '`':
			return j + 1
		case '$':
			if j+1 < len(src) && src[j+1] == '{' {
				end, err := scanBalanced(src, j+1)
				if err != nil {
					return len(src)
				}
				j = end + 1
			} else {
				j++
			}
		default:
			j++
		}
	}
	return len(src)
}

// scanBalanced returns the index of the brace closing the one at open.
func scanBalanced(src string, open int) (int, error) {
	depth := 0
	i := open
	for i < len(src) {
		if next, ok := skipOpaque(src, i); ok {
			i = next
			continue
		}
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, fmt.Errorf("unbalanced braces starting at offset %d", open)
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipTrivia advances past whitespace and comments.
func skipTrivia(src string, i int) int {
	for i < len(src) {
		if isSpace(src[i]) {
			i++
			continue
		}
		if src[i] == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*') {
			next, _ := skipOpaque(src, i)
			i = next
			continue
		}
		break
	}
	return i
}

// findPackagesBlock locates the top-level packages object literal and returns
// the indices of its opening and closing braces. Only a packages key that sits
// directly inside the root object counts; the nested packages maps under
// environments are at a deeper brace depth and are skipped.
func findPackagesBlock(src string) (open, close int, err error) {
	depth := 0
	i := 0
	for i < len(src) {
		c := src[i]

		if c == '\'' || c == '"' {
			end := skipQuoted(src, i, c)
			if depth == 1 && matchesKey(src, src[i+1:end-1], end) {
				return packagesOpen(src, end)
			}
			i = end
			continue
		}
		if next, ok := skipOpaque(src, i); ok {
			i = next
			continue
		}

		switch {
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
		case isIdentByte(c) && (i == 0 || !isIdentByte(src[i-1])):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			if depth == 1 && matchesKey(src, src[i:j], j) {
				return packagesOpen(src, j)
			}
			i = j
		default:
			i++
		}
	}
	return 0, 0, fmt.Errorf("no packages block found in configuration source")
}

// matchesKey reports whether word is the literal "packages" followed by a
// colon (after trivia).
func matchesKey(src, word string, after int) bool {
	if word != "packages" {
		return false
	}
	after = skipTrivia(src, after)
	return after < len(src) && src[after] == ':'
}

// packagesOpen finds the opening brace after the packages key ending at j and
// scans to its balanced close.
func packagesOpen(src string, j int) (int, int, error) {
	j = skipTrivia(src, j)
	if j >= len(src) || src[j] != ':' {
		return 0, 0, fmt.Errorf("packages key is not followed by a colon")
	}
	j = skipTrivia(src, j+1)
	if j >= len(src) || src[j] != '{' {
		return 0, 0, fmt.Errorf("packages key is not followed by an object literal")
	}
	end, err := scanBalanced(src, j)
	if err != nil {
		return 0, 0, err
	}
	return j, end, nil
}
