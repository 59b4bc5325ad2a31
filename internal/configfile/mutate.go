package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The mutator edits the configuration source in place after a deploy. It never
// re-renders the file: everything outside the one touched entry stays
// byte-for-byte identical, so hand-written comments and formatting survive.

// AddPackage inserts a new entry into the packages block. It fails if an
// entry for the package already exists.
func AddPackage(root, packageName string, cfg DeployConfig) error {
	return mutate(root, func(src string) (string, error) {
		return addPackage(src, packageName, cfg)
	})
}

// SetDeployResult replaces the package's entry with the deployed target and
// url, inserting the entry when it doesn't exist yet.
func SetDeployResult(root, packageName, target, url string) error {
	return mutate(root, func(src string) (string, error) {
		return setDeployResult(src, packageName, target, url)
	})
}

// mutate reads the configuration source, applies fn in memory and writes the
// result back in a single atomic replace. A failed transform never touches
// the file.
func mutate(root string, fn func(string) (string, error)) error {
	path, err := FindPath(root)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, err := fn(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func addPackage(src, packageName string, cfg DeployConfig) (string, error) {
	open, close, err := findPackagesBlock(src)
	if err != nil {
		return "", err
	}

	interior := src[open+1 : close]
	if _, _, _, found := findEntry(interior, packageName); found {
		return "", fmt.Errorf("package %q already has an entry in the packages block", packageName)
	}

	return insertEntry(src, open, close, entryText(packageName, cfg)), nil
}

func setDeployResult(src, packageName, target, url string) (string, error) {
	open, close, err := findPackagesBlock(src)
	if err != nil {
		return "", err
	}

	interior := src[open+1 : close]
	_, valStart, valEnd, found := findEntry(interior, packageName)
	if !found {
		cfg := DeployConfig{Target: target, URL: url}
		return insertEntry(src, open, close, entryText(packageName, cfg)), nil
	}

	value := fmt.Sprintf("{ target: '%s', url: '%s' }", target, url)
	abs := open + 1
	return src[:abs+valStart] + value + src[abs+valEnd:], nil
}

// findEntry scans the packages block interior for an entry keyed by name at
// depth zero, in either bare-identifier or quoted form. It returns the key
// start, the value start and the index just past the value.
func findEntry(interior, name string) (keyStart, valStart, valEnd int, found bool) {
	depth := 0
	i := 0
	for i < len(interior) {
		c := interior[i]

		var key string
		var keyAt, afterKey int

		if c == '\'' || c == '"' {
			end := skipQuoted(interior, i, c)
			key, keyAt, afterKey = interior[i+1:end-1], i, end
		} else if next, ok := skipOpaque(interior, i); ok {
			i = next
			continue
		} else if c == '{' || c == '[' {
			depth++
			i++
			continue
		} else if c == '}' || c == ']' {
			depth--
			i++
			continue
		} else if isIdentByte(c) && (i == 0 || !isIdentByte(interior[i-1])) {
			j := i
			for j < len(interior) && isIdentByte(interior[j]) {
				j++
			}
			key, keyAt, afterKey = interior[i:j], i, j
		} else {
			i++
			continue
		}

		colon := skipTrivia(interior, afterKey)
		if depth != 0 || key != name || colon >= len(interior) || interior[colon] != ':' {
			i = afterKey
			continue
		}

		valStart = skipTrivia(interior, colon+1)
		valEnd = scanValueEnd(interior, valStart)
		return keyAt, valStart, valEnd, true
	}
	return 0, 0, 0, false
}

// scanValueEnd returns the index just past the value starting at start: the
// matching brace for object literals, otherwise the first depth-zero comma or
// closing brace.
func scanValueEnd(interior string, start int) int {
	if start < len(interior) && interior[start] == '{' {
		if end, err := scanBalanced(interior, start); err == nil {
			return end + 1
		}
		return len(interior)
	}
	i := start
	depth := 0
	for i < len(interior) {
		if next, ok := skipOpaque(interior, i); ok {
			i = next
			continue
		}
		switch interior[i] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				return i
			}
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return i
}

// insertEntry splices a new entry line in just before the block's closing
// brace, matching the indentation of the block's first entry.
func insertEntry(src string, open, close int, entry string) string {
	indent := detectIndent(src[open+1 : close])

	// Insert at the start of the line holding the closing brace so the brace
	// line itself is untouched.
	lineStart := strings.LastIndexByte(src[:close], '\n')
	if lineStart < open {
		// Single-line block: splice the entry in just before the closing
		// brace, keeping whatever is already inside.
		interior := strings.TrimRight(src[open+1:close], " \t")
		if trimmed := strings.TrimSpace(interior); trimmed != "" && !strings.HasSuffix(trimmed, ",") {
			interior += ","
		}
		return src[:open+1] + interior + " " + entry + " " + src[close:]
	}
	return src[:lineStart] + "\n" + indent + entry + src[lineStart:]
}

// detectIndent returns the leading whitespace of the block's first entry.
func detectIndent(interior string) string {
	for _, line := range strings.Split(interior, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		return line[:len(line)-len(trimmed)]
	}
	return "  "
}

func entryText(name string, cfg DeployConfig) string {
	key := name
	if !isBareIdent(name) {
		key = "'" + name + "'"
	}

	var fields []string
	if cfg.Target != "" {
		fields = append(fields, fmt.Sprintf("target: '%s'", cfg.Target))
	}
	if cfg.ColocateWith != "" {
		fields = append(fields, fmt.Sprintf("colocateWith: '%s'", cfg.ColocateWith))
	}
	if cfg.URL != "" {
		fields = append(fields, fmt.Sprintf("url: '%s'", cfg.URL))
	}
	if len(fields) == 0 {
		return fmt.Sprintf("%s: {},", key)
	}
	return fmt.Sprintf("%s: { %s },", key, strings.Join(fields, ", "))
}

func isBareIdent(name string) bool {
	if name == "" {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return false
		}
	}
	return true
}
