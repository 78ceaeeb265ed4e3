package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tilsley/repomark/apps/server/internal/convert"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		in   string
		want convert.RepositoryReference
	}{
		{"https://github.com/acme/widgets", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"https://github.com/acme/widgets/", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"github.com/acme/widgets", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"acme/widgets", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"https://github.com/acme/widgets.git", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"  https://github.com/acme/widgets  ", convert.RepositoryReference{Owner: "acme", Name: "widgets"}},
		{"widgets", convert.RepositoryReference{Name: "widgets"}},
		{"", convert.RepositoryReference{}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, convert.ParseRepoURL(tc.in))
		})
	}
}

func TestParseRepoURL_NonRepositoryURL_StillWellFormed(t *testing.T) {
	ref := convert.ParseRepoURL("https://github.com/acme/widgets/tree/main")

	// Validity is left to the upstream.
	assert.Equal(t, convert.RepositoryReference{Owner: "tree", Name: "main"}, ref)
	assert.Equal(t, "tree/main", ref.String())
}
