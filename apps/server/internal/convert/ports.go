package convert

import "context"

// ContentFetcher lists and reads repository content from the upstream hosting API.
// Every call carries its own credential; implementations hold no per-user state.
// The adapters/github package provides the concrete implementation.
type ContentFetcher interface {
	GetRepository(ctx context.Context, owner, repo, credential string) (*RepoMetadata, error)
	// ListDirectory returns the entries under path. When path names a file the
	// result is a single-node listing.
	ListDirectory(ctx context.Context, owner, repo, path, credential string) ([]TreeNode, error)
	// FetchFileContent returns the decoded text of the file at path.
	FetchFileContent(ctx context.Context, owner, repo, path, credential string) (string, error)
}

// EventRecorder persists one event per finished conversion.
type EventRecorder interface {
	RecordConversion(ctx context.Context, event ConversionEvent) error
	Overview(ctx context.Context) (*Overview, error)
}
