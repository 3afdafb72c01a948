package flow

import "testing"

func TestTerminated(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"All done. TERMINATE", true},
		{"All done. TERMINATE\n  \t", true},
		{"TERMINATE", true},
		{"All done. TERMINATE.", false},
		{"All done. terminate", false},
		{"Keep going", false},
		{"", false},
		{"   \n", false},
	}
	for _, c := range cases {
		if got := Terminated(c.content); got != c.want {
			t.Errorf("Terminated(%q): expect %v, but got %v", c.content, c.want, got)
		}
	}
}

func TestStripSentinel(t *testing.T) {
	cases := map[string]string{
		"Summary of findings. TERMINATE":      "Summary of findings.",
		"Summary of findings. TERMINATE \n\t": "Summary of findings.",
		"TERMINATE":                           "",
		"No sentinel here":                    "No sentinel here",
		"TERMINATE in the middle":             "TERMINATE in the middle",
	}
	for in, want := range cases {
		if got := StripSentinel(in); got != want {
			t.Errorf("StripSentinel(%q): expect %q, but got %q", in, want, got)
		}
	}
	// only one trailing sentinel is stripped
	if got := StripSentinel("Done. TERMINATE TERMINATE"); got != "Done. TERMINATE" {
		t.Errorf("Expect single sentinel stripped, but got %q", got)
	}
}
