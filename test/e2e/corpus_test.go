package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus(t *testing.T) {
	c := BuildCorpus()
	if len(c.Documents) != len(topics)*PerTopic {
		t.Fatalf("documents = %d, want %d", len(c.Documents), len(topics)*PerTopic)
	}
	if len(c.TestCases) != 2*len(topics) {
		t.Fatalf("test cases = %d, want %d", len(c.TestCases), 2*len(topics))
	}
	seen := make(map[string]bool)
	for _, d := range c.Documents {
		if seen[d.ID] {
			t.Errorf("duplicate id %s", d.ID)
		}
		seen[d.ID] = true
		if !strings.Contains(d.Payloads, "|") {
			t.Errorf("%s: payloads %q carry no weights", d.ID, d.Payloads)
		}
	}
	for _, tc := range c.TestCases {
		if !seen[tc.ExpectedTop] {
			t.Errorf("%s: expected document %s not in corpus", tc.Description, tc.ExpectedTop)
		}
	}
}
