package metadata_test

import (
	"testing"

	"satchel/internal/metadata"
)

func TestParseIssueTag(t *testing.T) {
	cases := []struct {
		content    string
		number     string
		supplLabel string
		suppl      string
	}{
		{"2", "2", "", ""},
		{"Suppl", "", "Suppl", ""},
		{"3 Suppl 1", "3", "Suppl", "1"},
		{"Suppl 1", "", "Suppl", "1"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		number, label, suppl := metadata.ParseIssueTag(tc.content)
		if number != tc.number || label != tc.supplLabel || suppl != tc.suppl {
			t.Errorf("ParseIssueTag(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tc.content, number, label, suppl, tc.number, tc.supplLabel, tc.suppl)
		}
	}
}

func TestIssueIdentification(t *testing.T) {
	cases := []struct {
		name       string
		volume     string
		number     string
		supplement string
		wantVol    string
		wantSVol   string
		wantNum    string
		wantSNum   string
	}{
		{"plain number", "29", "3", "", "29", "", "3", ""},
		{"leading zeros stripped", "09", "03", "", "9", "", "3", ""},
		{"supplement label only", "29", "Suppl", "", "29", "Suppl", "", ""},
		{"number supplement", "29", "3 Suppl 1", "1", "29", "", "3", "1"},
		{"volume supplement", "29", "", "1", "29", "1", "", ""},
	}
	for _, tc := range cases {
		vol, sVol, num, sNum := metadata.IssueIdentification(tc.volume, tc.number, tc.supplement)
		if vol != tc.wantVol || sVol != tc.wantSVol || num != tc.wantNum || sNum != tc.wantSNum {
			t.Errorf("%s: IssueIdentification(%q, %q, %q) = (%q, %q, %q, %q), want (%q, %q, %q, %q)",
				tc.name, tc.volume, tc.number, tc.supplement,
				vol, sVol, num, sNum, tc.wantVol, tc.wantSVol, tc.wantNum, tc.wantSNum)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := metadata.Normalize(" This is     a test for something good      ")
	want := "THIS IS A TEST FOR SOMETHING GOOD"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}
