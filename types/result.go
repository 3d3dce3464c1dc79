package types

import (
	"strings"
	"time"
)

// TestResult captures the outcome of a single test run
type TestResult struct {
	Name      string    `json:"name"`
	Doc       string    `json:"doc,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timeout   string    `json:"timeout,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	parent *SuiteResult
}

// SuiteResult captures the aggregated outcome of a suite and everything it contains.
// The suite status is derived from its tests and is never stored.
type SuiteResult struct {
	Name      string            `json:"name"`
	Doc       string            `json:"doc,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Source    string            `json:"source,omitempty"`
	Message   string            `json:"message,omitempty"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Tests     []*TestResult     `json:"tests,omitempty"`
	Suites    []*SuiteResult    `json:"suites,omitempty"`

	parent      *SuiteResult
	criticality *Criticality
}

// Stats is a passed/failed count over a set of tests
type Stats struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Criticality decides which tests count towards a suite's verdict.
// A test is critical when no critical tags are configured or it carries one of them,
// and it carries none of the non-critical tags.
type Criticality struct {
	CriticalTags    []string
	NonCriticalTags []string
}

// IsCritical reports whether a test with the given tags is critical
func (c *Criticality) IsCritical(tags []string) bool {
	if c == nil {
		return true
	}
	if len(c.CriticalTags) > 0 && !matchesAnyTag(tags, c.CriticalTags) {
		return false
	}
	return !matchesAnyTag(tags, c.NonCriticalTags)
}

func matchesAnyTag(tags []string, patterns []string) bool {
	for _, tag := range tags {
		for _, pattern := range patterns {
			if NormalizeName(tag) == NormalizeName(pattern) {
				return true
			}
		}
	}
	return false
}

// NormalizeName lower-cases a name and removes spaces and underscores from it.
// Keyword names, variable names and tags are all compared in this normalized form.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

// Parent returns the suite containing this test, or nil
func (t *TestResult) Parent() *SuiteResult {
	return t.parent
}

// LongName returns the dot separated name of the test including its parent suites
func (t *TestResult) LongName() string {
	if t.parent == nil {
		return t.Name
	}
	return t.parent.LongName() + "." + t.Name
}

// Critical reports whether the test counts towards the critical statistics
func (t *TestResult) Critical() bool {
	if t.parent == nil {
		return true
	}
	return t.parent.Criticality().IsCritical(t.Tags)
}

// Passed reports whether the test ended with a passing verdict
func (t *TestResult) Passed() bool {
	return t.Status == StatusPass
}

// ElapsedTime returns the time between start and end, or zero when either is unset
func (t *TestResult) ElapsedTime() time.Duration {
	return elapsed(t.StartTime, t.EndTime)
}

// Parent returns the suite containing this suite, or nil for the root suite
func (s *SuiteResult) Parent() *SuiteResult {
	return s.parent
}

// LongName returns the dot separated name of the suite including its parent suites
func (s *SuiteResult) LongName() string {
	if s.parent == nil {
		return s.Name
	}
	return s.parent.LongName() + "." + s.Name
}

// AddTest appends a test to the suite and makes the suite its parent
func (s *SuiteResult) AddTest(test *TestResult) *TestResult {
	test.parent = s
	s.Tests = append(s.Tests, test)
	return test
}

// CreateTest creates an empty test named name and appends it to the suite
func (s *SuiteResult) CreateTest(name string) *TestResult {
	return s.AddTest(&TestResult{Name: name})
}

// AddSuite appends a child suite and makes this suite its parent
func (s *SuiteResult) AddSuite(suite *SuiteResult) *SuiteResult {
	suite.parent = s
	s.Suites = append(s.Suites, suite)
	return suite
}

// CreateSuite creates an empty child suite named name
func (s *SuiteResult) CreateSuite(name string) *SuiteResult {
	return s.AddSuite(&SuiteResult{Name: name})
}

// SetCriticality sets the criticality used by this suite and every suite below it
// that has not set its own.
func (s *SuiteResult) SetCriticality(criticalTags, nonCriticalTags []string) {
	s.criticality = &Criticality{
		CriticalTags:    criticalTags,
		NonCriticalTags: nonCriticalTags,
	}
}

// Criticality returns the criticality in effect for this suite
func (s *SuiteResult) Criticality() *Criticality {
	for suite := s; suite != nil; suite = suite.parent {
		if suite.criticality != nil {
			return suite.criticality
		}
	}
	return nil
}

// Status returns FAIL if any critical test in the suite or its nested suites failed
func (s *SuiteResult) Status() Status {
	if s.CriticalStats().Failed > 0 {
		return StatusFail
	}
	return StatusPass
}

// CriticalStats returns the statistics of critical tests only
func (s *SuiteResult) CriticalStats() Stats {
	return s.stats(func(t *TestResult) bool { return t.Critical() })
}

// AllStats returns the statistics of all tests regardless of criticality
func (s *SuiteResult) AllStats() Stats {
	return s.stats(func(*TestResult) bool { return true })
}

func (s *SuiteResult) stats(include func(*TestResult) bool) Stats {
	var stats Stats
	s.VisitTests(func(t *TestResult) {
		if !include(t) {
			return
		}
		stats.Total++
		switch t.Status {
		case StatusPass:
			stats.Passed++
		case StatusFail:
			stats.Failed++
		}
	})
	return stats
}

// TestCount returns the number of tests in the suite and all of its nested suites
func (s *SuiteResult) TestCount() int {
	count := len(s.Tests)
	for _, suite := range s.Suites {
		count += suite.TestCount()
	}
	return count
}

// VisitTests calls fn for every test in the suite tree, depth first, in execution order
func (s *SuiteResult) VisitTests(fn func(*TestResult)) {
	for _, test := range s.Tests {
		fn(test)
	}
	for _, suite := range s.Suites {
		suite.VisitTests(fn)
	}
}

// ElapsedTime returns the time between start and end, or zero when either is unset
func (s *SuiteResult) ElapsedTime() time.Duration {
	return elapsed(s.StartTime, s.EndTime)
}

func elapsed(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}
