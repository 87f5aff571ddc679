package nextversion

import (
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	headerPattern  = regexp.MustCompile(`(?s)^(?:(\w+)(?:\(([^\r\n]+)\))?(!?):)[\t ]*([^\r\n]+)(?:\s+(.+))?$`)
	trailerPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]+|BREAKING CHANGE):[ \t]*(.+)$`)
	lineBreak      = regexp.MustCompile(`\r\n|\r|\n`)
)

const breakingChangePrefix = "BREAKING CHANGE:"

// Footers maps trailer keys to values in message order. Keys are case sensitive.
type Footers = orderedmap.OrderedMap[string, string]

// ConventionalCommit is a commit message that follows the Conventional Commits format.
type ConventionalCommit struct {
	Hash       string
	TypeID     string
	Scope      string
	IsBreaking bool
	Subject    string
	Body       string
	Footers    *Footers
	Release    ReleaseType
}

// CommitMessage is a raw message as read from version control.
type CommitMessage struct {
	Hash    string
	Message string
}

// Parser turns commit messages into ConventionalCommit values.
type Parser struct {
	Types CommitTypes
}

// NewParser returns a Parser backed by types, or the default catalog when types is empty.
func NewParser(types CommitTypes) *Parser {
	if len(types) == 0 {
		types = DefaultCommitTypes()
	}
	return &Parser{Types: types}
}

// Parse parses a single message. It reports false when the header is not a
// Conventional Commit header.
func (p *Parser) Parse(message string) (ConventionalCommit, bool) {
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return ConventionalCommit{}, false
	}
	c := ConventionalCommit{
		TypeID:     m[1],
		Scope:      m[2],
		IsBreaking: m[3] == "!",
		Subject:    strings.TrimSpace(m[4]),
	}

	lines := lineBreak.Split(m[5], -1)
	for _, line := range lines {
		if strings.HasPrefix(line, breakingChangePrefix) {
			c.IsBreaking = true
		}
	}
	c.Body, c.Footers = splitTrailers(lines)
	for _, key := range []string{"BREAKING CHANGE", "BREAKING-CHANGE"} {
		if _, ok := c.Footers.Get(key); ok {
			c.IsBreaking = true
		}
	}

	switch {
	case c.IsBreaking:
		c.Release = Major
	default:
		if t, ok := p.Types.Lookup(c.TypeID); ok {
			c.Release = t.Release
		} else {
			c.Release = Unknown
		}
	}
	return c, true
}

// ParseAll parses every message and drops the ones that are not Conventional Commits.
func (p *Parser) ParseAll(messages []CommitMessage) []ConventionalCommit {
	commits := make([]ConventionalCommit, 0, len(messages))
	for _, msg := range messages {
		c, ok := p.Parse(msg.Message)
		if !ok {
			continue
		}
		c.Hash = msg.Hash
		commits = append(commits, c)
	}
	return commits
}

// splitTrailers separates the trailing block of "Key: value" lines from the body.
// The trailer block is the last paragraph. It is scanned from the bottom and
// non-trailer lines are folded into the value of the trailer above them.
// When a key repeats, the occurrence nearest the top wins.
func splitTrailers(lines []string) (string, *Footers) {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end
	for start > 0 && strings.TrimSpace(lines[start-1]) != "" {
		start--
	}

	// found is filled bottom up.
	var found []orderedmap.Pair[string, string]
	var pending []string
	top := end
	for i := end - 1; i >= start; i-- {
		tm := trailerPattern.FindStringSubmatch(lines[i])
		if tm == nil {
			pending = append([]string{lines[i]}, pending...)
			continue
		}
		value := strings.TrimSpace(tm[2])
		if len(pending) > 0 {
			value += "\n" + strings.Join(pending, "\n")
			pending = nil
		}
		found = append(found, orderedmap.Pair[string, string]{Key: tm[1], Value: value})
		top = i
	}

	footers := orderedmap.New[string, string](len(found))
	if len(found) == 0 {
		return strings.TrimSpace(strings.Join(lines[:end], "\n")), footers
	}
	for i := len(found) - 1; i >= 0; i-- {
		if _, seen := footers.Get(found[i].Key); !seen {
			footers.Set(found[i].Key, found[i].Value)
		}
	}
	bodyLines := append([]string{}, lines[:start]...)
	bodyLines = append(bodyLines, lines[start:top]...)
	return strings.TrimSpace(strings.Join(bodyLines, "\n")), footers
}
