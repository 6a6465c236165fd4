package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	testCasePrefix     = "test_case_"
	responseCasePrefix = "response_case_"
)

// TestCase is a URL to fetch plus an optional expected response.
type TestCase struct {
	// Index is N from the test_case_N key.
	Index int
	// URL is the page to request.
	URL string
	// Expected is the optional response_case_N value. Empty means any
	// parseable response passes.
	Expected string
}

// HasExpectation reports whether the case carries a response_case_N entry.
func (tc TestCase) HasExpectation() bool {
	return tc.Expected != ""
}

// LoadTestCases reads a JSON object of test_case_N and response_case_N keys
// and returns the cases sorted by N.
func LoadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided test case path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTestCasesNotFound, path)
		}
		return nil, err
	}

	return ParseTestCases(data)
}

// ParseTestCases decodes the test-case JSON document.
func ParseTestCases(data []byte) ([]TestCase, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse test cases: %w", err)
	}

	cases := make(map[int]*TestCase)
	responses := make(map[int]string)

	for key, value := range raw {
		switch {
		case strings.HasPrefix(key, testCasePrefix):
			n, err := caseIndex(key, testCasePrefix)
			if err != nil {
				return nil, err
			}
			if _, dup := cases[n]; dup {
				return nil, fmt.Errorf("%w: %q repeats case %d", ErrInvalidCaseKey, key, n)
			}
			cases[n] = &TestCase{Index: n, URL: value}
		case strings.HasPrefix(key, responseCasePrefix):
			n, err := caseIndex(key, responseCasePrefix)
			if err != nil {
				return nil, err
			}
			if _, dup := responses[n]; dup {
				return nil, fmt.Errorf("%w: %q repeats case %d", ErrInvalidCaseKey, key, n)
			}
			responses[n] = value
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidCaseKey, key)
		}
	}

	for n, expected := range responses {
		tc, ok := cases[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s%d", ErrOrphanResponseCase, responseCasePrefix, n)
		}
		tc.Expected = expected
	}

	result := make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		result = append(result, *tc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })

	return result, nil
}

func caseIndex(key, prefix string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCaseKey, key)
	}
	return n, nil
}
