package configfile

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRoot finds the exported root object literal and reads it. Anything
// before the first top-level brace (imports, an export default statement, a
// defineConfig(...) wrapper) is trivia as far as the orchestrator cares.
func parseRoot(src string) (map[string]any, error) {
	// Anchor on the export so braces in import statements don't confuse the
	// search for the root literal.
	i := exportIndex(src)
	for i < len(src) && src[i] != '{' {
		if next, ok := skipOpaque(src, i); ok {
			i = next
			continue
		}
		i++
	}
	if i >= len(src) {
		return nil, fmt.Errorf("no object literal found")
	}

	r := &reader{src: src, pos: i}
	obj, err := r.object()
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// exportIndex returns the offset just past "export default" when present,
// skipping strings and comments, and zero otherwise.
func exportIndex(src string) int {
	i := 0
	for i < len(src) {
		if next, ok := skipOpaque(src, i); ok {
			i = next
			continue
		}
		if strings.HasPrefix(src[i:], "export") && (i == 0 || !isIdentByte(src[i-1])) {
			j := skipTrivia(src, i+len("export"))
			if strings.HasPrefix(src[j:], "default") {
				return j + len("default")
			}
		}
		i++
	}
	return 0
}

type reader struct {
	src string
	pos int
}

func (r *reader) errf(format string, args ...any) error {
	line := 1 + strings.Count(r.src[:r.pos], "\n")
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

func (r *reader) trivia() {
	r.pos = skipTrivia(r.src, r.pos)
}

func (r *reader) object() (map[string]any, error) {
	if r.src[r.pos] != '{' {
		return nil, r.errf("expected '{'")
	}
	r.pos++
	obj := make(map[string]any)

	for {
		r.trivia()
		if r.pos >= len(r.src) {
			return nil, r.errf("unterminated object literal")
		}
		if r.src[r.pos] == '}' {
			r.pos++
			return obj, nil
		}

		key, err := r.key()
		if err != nil {
			return nil, err
		}
		r.trivia()
		if r.pos >= len(r.src) || r.src[r.pos] != ':' {
			return nil, r.errf("expected ':' after key %q", key)
		}
		r.pos++
		r.trivia()

		value, err := r.value()
		if err != nil {
			return nil, err
		}
		obj[key] = value

		r.trivia()
		if r.pos < len(r.src) && r.src[r.pos] == ',' {
			r.pos++
		}
	}
}

func (r *reader) key() (string, error) {
	c := r.src[r.pos]
	if c == '\'' || c == '"' {
		return r.quoted()
	}
	if !isIdentByte(c) {
		return "", r.errf("expected object key")
	}
	start := r.pos
	for r.pos < len(r.src) && isIdentByte(r.src[r.pos]) {
		r.pos++
	}
	return r.src[start:r.pos], nil
}

func (r *reader) value() (any, error) {
	c := r.src[r.pos]
	switch {
	case c == '{':
		return r.object()
	case c == '[':
		return r.array()
	case c == '\'' || c == '"':
		return r.quoted()
	case c == '`':
		end := skipTemplate(r.src, r.pos)
		raw := r.src[r.pos+1 : end-1]
		r.pos = end
		return raw, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return r.number()
	case isIdentByte(c):
		return r.word()
	}
	return nil, r.errf("unsupported value starting with %q", string(c))
}

func (r *reader) quoted() (string, error) {
	quote := r.src[r.pos]
	end := skipQuoted(r.src, r.pos, quote)
	if end > len(r.src) || r.src[end-1] != quote {
		return "", r.errf("unterminated string")
	}
	raw := r.src[r.pos+1 : end-1]
	r.pos = end
	return unescape(raw), nil
}

func (r *reader) array() (any, error) {
	r.pos++
	var items []any
	for {
		r.trivia()
		if r.pos >= len(r.src) {
			return nil, r.errf("unterminated array literal")
		}
		if r.src[r.pos] == ']' {
			r.pos++
			return items, nil
		}
		item, err := r.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		r.trivia()
		if r.pos < len(r.src) && r.src[r.pos] == ',' {
			r.pos++
		}
	}
}

func (r *reader) number() (any, error) {
	start := r.pos
	if r.src[r.pos] == '-' {
		r.pos++
	}
	for r.pos < len(r.src) && (r.src[r.pos] == '.' || (r.src[r.pos] >= '0' && r.src[r.pos] <= '9')) {
		r.pos++
	}
	n, err := strconv.ParseFloat(r.src[start:r.pos], 64)
	if err != nil {
		return nil, r.errf("invalid number %q", r.src[start:r.pos])
	}
	return n, nil
}

func (r *reader) word() (any, error) {
	start := r.pos
	for r.pos < len(r.src) && isIdentByte(r.src[r.pos]) {
		r.pos++
	}
	switch word := r.src[start:r.pos]; word {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	default:
		return nil, r.errf("unsupported expression %q; configuration values must be literals", word)
	}
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
