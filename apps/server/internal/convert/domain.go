package convert

import "time"

// NodeKind is the type of an entry returned by a directory listing.
type NodeKind string

const (
	NodeFile      NodeKind = "file"
	NodeDirectory NodeKind = "dir"
	NodeSymlink   NodeKind = "symlink"
	NodeSubmodule NodeKind = "submodule"
	NodeUnknown   NodeKind = "unknown"
)

// TreeNode is a single entry from a directory listing.
type TreeNode struct {
	Path string
	Kind NodeKind
}

// RepoMetadata is the subset of repository metadata used for the document header.
type RepoMetadata struct {
	Name        string
	Description string
}

// FileFragment is one non-excluded file with its decoded content.
type FileFragment struct {
	Path    string
	Content string
}

// Request is a single conversion invocation.
type Request struct {
	RepoURL      string
	ExcludeTypes string // comma-separated
	ExcludeDirs  string // comma-separated
	ExcludeFiles string // comma-separated
	Credential   string
}

// Result is a successfully assembled document.
type Result struct {
	Markdown   string
	Repository RepositoryReference
	Files      int
}

// Conversion outcomes stored on ConversionEvent.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// ConversionEvent is recorded once per conversion, successful or not.
type ConversionEvent struct {
	ID         string
	Owner      string
	Repo       string
	Outcome    string
	ErrorKind  ErrorKind
	Files      int
	Bytes      int
	DurationMs int64
	CreatedAt  time.Time
}

// Overview aggregates recorded conversions.
type Overview struct {
	Total          int64            `json:"total"`
	Succeeded      int64            `json:"succeeded"`
	Failed         int64            `json:"failed"`
	FilesRendered  int64            `json:"filesRendered"`
	AvgDurationMs  float64          `json:"avgDurationMs"`
	FailuresByKind map[string]int64 `json:"failuresByKind"`
}
