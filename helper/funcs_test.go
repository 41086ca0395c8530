package helper

import (
	"testing"
)

func TestHelper_StringInList(t *testing.T) {
	type stringTest struct {
		input    string
		expected bool
	}

	var stringTests = []stringTest{
		{"goo", false}, {"foo", true},
	}

	list := []string{"foo", "bar"}

	for _, test := range stringTests {
		actual := StringInSlice(test.input, list)

		if actual != test.expected {
			t.Fatalf("expected %v got %v", test.expected, actual)
		}
	}
}

func TestHelper_ParseCommaList(t *testing.T) {
	type listTest struct {
		input    string
		expected []string
	}

	var listTests = []listTest{
		{"r7i.48xlarge,r6id.32xlarge", []string{"r7i.48xlarge", "r6id.32xlarge"}},
		{" eu-central-1a, eu-central-1b ,eu-central-1c", []string{"eu-central-1a", "eu-central-1b", "eu-central-1c"}},
		{"single", []string{"single"}},
		{"", nil},
		{" , ,", nil},
	}

	for _, test := range listTests {
		actual := ParseCommaList(test.input)

		if len(actual) != len(test.expected) {
			t.Fatalf("expected %v got %v", test.expected, actual)
		}

		for i := range actual {
			if actual[i] != test.expected[i] {
				t.Fatalf("expected %v got %v", test.expected, actual)
			}
		}
	}
}

func TestHelper_MissingTags(t *testing.T) {
	required := map[string]string{
		"ManagedBy":  "aurora-autoscaler",
		"AutoScaler": "lambda-managed",
	}

	current := map[string]string{
		"ManagedBy":  "aurora-autoscaler",
		"AutoScaler": "lambda-managed",
		"Purpose":    "auto-scaling-reader",
	}

	if missing := MissingTags(current, required); len(missing) != 0 {
		t.Fatalf("expected no missing tags, got %v", missing)
	}

	delete(current, "AutoScaler")
	missing := MissingTags(current, required)
	if len(missing) != 1 || missing[0] != "AutoScaler" {
		t.Fatalf("expected [AutoScaler] got %v", missing)
	}

	current["AutoScaler"] = "operator-managed"
	missing = MissingTags(current, required)
	if len(missing) != 1 || missing[0] != "AutoScaler" {
		t.Fatalf("expected [AutoScaler] got %v", missing)
	}

	if missing := MissingTags(nil, required); len(missing) != 2 {
		t.Fatalf("expected 2 missing tags, got %v", missing)
	}
}
