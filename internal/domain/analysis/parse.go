package analysis

import (
	"bufio"
	"regexp"
	"strings"
)

var (
	rxStyleIssue  = regexp.MustCompile(`^.+:\d+:\d+: [A-Z]+\d+ `)
	rxBanditIssue = regexp.MustCompile(`^\s*Severity:\s*(\w+)\s+Confidence:`)
)

// CountStyleIssues counts flake8 report lines of the form
// path:line:col: CODE message.
func CountStyleIssues(output string) int {
	n := 0
	s := bufio.NewScanner(strings.NewReader(output))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		if rxStyleIssue.MatchString(s.Text()) {
			n++
		}
	}
	return n
}

// ParseBanditSeverity counts bandit text report issues by severity.
func ParseBanditSeverity(output string) SeverityCounts {
	var c SeverityCounts
	s := bufio.NewScanner(strings.NewReader(output))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		m := rxBanditIssue.FindStringSubmatch(s.Text())
		if m == nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "high":
			c.High++
		case "medium":
			c.Medium++
		case "low":
			c.Low++
		}
		c.Total++
	}
	return c
}
