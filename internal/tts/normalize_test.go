package tts

import "testing"

func TestExpandAbbreviations(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123 Main St", "123 Main Street"},
		{"123 Main St, Apt 4", "123 Main Street, Apt 4"},
		{"123 Main St,Apt 4", "123 Main Street,Apt 4"},
		{"turn onto Elm Ave then Oak Blvd", "turn onto Elm Avenue then Oak Boulevard"},
		{"Dr Smith lives on Dr", "Drive Smith lives on Drive"},
		{"Stuart said hi", "Stuart said hi"},
		{"St. Louis", "St. Louis"},
		{"main st", "main st"},
		{"Rd\nLn", "Road\nLane"},
		{"Ct Pl", "Court Place"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExpandAbbreviations(tc.in); got != tc.want {
			t.Fatalf("ExpandAbbreviations(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
