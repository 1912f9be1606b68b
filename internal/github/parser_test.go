// File path: internal/github/parser_test.go
package github

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"angular/angular", "angular/angular"},
		{"github.com/angular/angular", "angular/angular"},
		{"https://github.com/angular/angular", "angular/angular"},
		{"https://www.github.com/angular/angular", "angular/angular"},
		{"https://github.com/angular/angular.git", "angular/angular"},
		{"https://github.com/angular/angular/tree/main/docs", "angular/angular"},
		{"  https://github.com/Rust-Lang/rust  ", "Rust-Lang/rust"},
	}
	for _, tc := range cases {
		got, err := ParseRepoURL(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseRepoURLRejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"",
		"angular",
		"https://gitlab.com/angular/angular",
		"https://github.com/",
		"owner//",
		"owner/na me",
	} {
		_, err := ParseRepoURL(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestBuildWebURL(t *testing.T) {
	got := BuildWebURL("angular/angular", "main", "docs/guide.md")
	require.Equal(t, "https://github.com/angular/angular/blob/main/docs/guide.md", got)
}
