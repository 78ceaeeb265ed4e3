package convert

import "strings"

// RepositoryReference identifies a repository on the upstream host.
type RepositoryReference struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r RepositoryReference) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL takes the last two non-empty "/"-separated segments of url as
// owner and name. Scheme and host are ignored and nothing is validated; a
// reference that does not exist fails later at the upstream.
func ParseRepoURL(url string) RepositoryReference {
	var segs []string
	for _, s := range strings.Split(strings.TrimSpace(url), "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}

	var ref RepositoryReference
	switch len(segs) {
	case 0:
	case 1:
		ref.Name = segs[0]
	default:
		ref.Owner = segs[len(segs)-2]
		ref.Name = segs[len(segs)-1]
	}
	ref.Name = strings.TrimSuffix(ref.Name, ".git")
	return ref
}
