// Package ignorerules evaluates version-control style ignore files while a
// directory tree is walked top-down.
//
// Every .gitignore or .ignore found on the way is parsed into pathrules rules
// whose patterns are rewritten relative to the walk root. Rules are kept in
// discovery order, so a deeper file, or a later line, overrides an earlier
// one. Negated lines ("!pattern") re-include a path.
package ignorerules

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/woozymasta/pathrules"
)

// FileNames lists the ignore files honored in every directory, in the order
// they are applied. .ignore wins over .gitignore in the same directory.
var FileNames = []string{".gitignore", ".ignore"}

// Set accumulates ignore rules for one walk.
type Set struct {
	rules   []pathrules.Rule
	matcher *pathrules.Matcher
}

// New returns an empty Set that ignores nothing.
func New() *Set {
	return &Set{}
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// LoadDir reads the ignore files of the directory at absDir, whose slash path
// relative to the walk root is relDir ("" for the root itself).
func (s *Set) LoadDir(absDir, relDir string) error {
	added := false
	for _, name := range FileNames {
		content, err := os.ReadFile(absDir + string(os.PathSeparator) + name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed reading ignore file %s: %w", name, err)
		}
		rules := ParseLines(relDir, content)
		if len(rules) > 0 {
			s.rules = append(s.rules, rules...)
			added = true
		}
	}
	if !added {
		return nil
	}
	return s.compile()
}

// Add appends rules parsed from content as if it were an ignore file in relDir.
func (s *Set) Add(relDir string, content []byte) error {
	rules := ParseLines(relDir, content)
	if len(rules) == 0 {
		return nil
	}
	s.rules = append(s.rules, rules...)
	return s.compile()
}

func (s *Set) compile() error {
	m, err := pathrules.NewMatcher(s.rules, pathrules.MatcherOptions{
		CaseInsensitive: false,
		DefaultAction:   pathrules.ActionInclude,
	})
	if err != nil {
		return fmt.Errorf("failed compiling ignore rules: %w", err)
	}
	s.matcher = m
	return nil
}

// Ignored reports whether the slash path rel (relative to the walk root) is
// excluded by the rules loaded so far.
func (s *Set) Ignored(rel string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	return !s.matcher.Included(rel, isDir)
}

// ParseLines converts gitignore formatted content into rules scoped to relDir.
func ParseLines(relDir string, content []byte) []pathrules.Rule {
	relDir = strings.Trim(relDir, "/")

	var rules []pathrules.Rule
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		line = trimTrailingSpaces(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		action := pathrules.ActionExclude
		switch {
		case strings.HasPrefix(line, "!"):
			action = pathrules.ActionInclude
			line = line[1:]
		case strings.HasPrefix(line, `\!`), strings.HasPrefix(line, `\#`):
			line = line[1:]
		}
		if line == "" || line == "/" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  action,
			Pattern: scopePattern(relDir, line),
		})
	}
	return rules
}

// scopePattern rewrites a pattern from an ignore file in relDir so it can be
// evaluated against paths relative to the walk root.
func scopePattern(relDir, pattern string) string {
	dirOnly := strings.HasSuffix(pattern, "/")
	body := strings.TrimSuffix(pattern, "/")

	// A slash at the start or in the middle anchors the pattern to its directory.
	anchored := strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")

	var scoped string
	switch {
	case relDir == "" && anchored:
		scoped = "/" + body
	case relDir == "":
		scoped = body
	case anchored:
		scoped = relDir + "/" + body
	default:
		scoped = relDir + "/**/" + body
	}
	if dirOnly {
		scoped += "/"
	}
	return scoped
}

// trimTrailingSpaces drops unescaped trailing spaces.
func trimTrailingSpaces(line string) string {
	for strings.HasSuffix(line, " ") && !strings.HasSuffix(line, `\ `) {
		line = line[:len(line)-1]
	}
	if strings.HasSuffix(line, `\ `) {
		line = line[:len(line)-2] + " "
	}
	return line
}
