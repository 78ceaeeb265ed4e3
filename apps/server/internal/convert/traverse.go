package convert

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Traverser walks a repository tree depth-first in listing order and fetches
// every file that survives the exclusion rules.
type Traverser struct {
	fetcher     ContentFetcher
	concurrency int
	log         *slog.Logger
}

// NewTraverser creates a Traverser. concurrency bounds how many sibling files
// in one directory are fetched at once; values below 1 mean sequential.
func NewTraverser(fetcher ContentFetcher, concurrency int, log *slog.Logger) *Traverser {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Traverser{fetcher: fetcher, concurrency: concurrency, log: log}
}

// frame is one directory on the work stack; next indexes the first
// unprocessed entry.
type frame struct {
	dir     string
	entries []TreeNode
	next    int
}

// Traverse returns one fragment per non-excluded file below root. Fragments
// follow listing order with directories expanded in place. The first upstream
// failure aborts the walk; nothing partial is returned.
func (t *Traverser) Traverse(ctx context.Context, owner, repo, root string, rules Rules, credential string) ([]FileFragment, error) {
	entries, err := t.list(ctx, owner, repo, root, credential)
	if err != nil {
		return nil, err
	}

	var out []FileFragment
	stack := []frame{{dir: root, entries: entries}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if err := ctx.Err(); err != nil {
			return nil, &TraversalError{Path: top.dir, Err: err}
		}
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}

		files, subdir := t.advance(top, rules)
		if len(files) > 0 {
			frags, err := t.fetchAll(ctx, owner, repo, files, credential)
			if err != nil {
				return nil, err
			}
			out = append(out, frags...)
		}
		if subdir == "" {
			continue
		}

		children, err := t.list(ctx, owner, repo, subdir, credential)
		if err != nil {
			return nil, err
		}
		stack = append(stack, frame{dir: subdir, entries: children})
	}
	return out, nil
}

// advance consumes entries from f up to and including the next directory that
// must be descended into. It returns the files seen before that directory and
// the directory path ("" when the frame ran out first).
func (t *Traverser) advance(f *frame, rules Rules) (files []TreeNode, subdir string) {
	for f.next < len(f.entries) {
		n := f.entries[f.next]
		f.next++

		if ShouldExclude(n.Path, rules) {
			t.log.Debug("excluding path", "path", n.Path)
			continue
		}

		switch n.Kind {
		case NodeFile:
			files = append(files, n)
		case NodeDirectory:
			if ExcludesSubtree(n.Path, rules) {
				t.log.Debug("pruning directory", "path", n.Path)
				continue
			}
			return files, n.Path
		default:
			t.log.Debug("skipping entry", "path", n.Path, "kind", n.Kind)
		}
	}
	return files, ""
}

func (t *Traverser) list(ctx context.Context, owner, repo, dir, credential string) ([]TreeNode, error) {
	t.log.Debug("listing directory", "repo", owner+"/"+repo, "path", dir)
	entries, err := t.fetcher.ListDirectory(ctx, owner, repo, dir, credential)
	if err != nil {
		return nil, &TraversalError{Path: dir, Err: err}
	}
	return entries, nil
}

// fetchAll fetches files, possibly concurrently, and returns fragments in the
// same order as files regardless of completion order.
func (t *Traverser) fetchAll(ctx context.Context, owner, repo string, files []TreeNode, credential string) ([]FileFragment, error) {
	frags := make([]FileFragment, len(files))

	if t.concurrency == 1 || len(files) == 1 {
		for i, f := range files {
			frag, err := t.fetch(ctx, owner, repo, f.Path, credential)
			if err != nil {
				return nil, err
			}
			frags[i] = frag
		}
		return frags, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, f := range files {
		g.Go(func() error {
			frag, err := t.fetch(gctx, owner, repo, f.Path, credential)
			if err != nil {
				return err
			}
			frags[i] = frag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frags, nil
}

func (t *Traverser) fetch(ctx context.Context, owner, repo, path, credential string) (FileFragment, error) {
	t.log.Debug("fetching file", "repo", owner+"/"+repo, "path", path)
	content, err := t.fetcher.FetchFileContent(ctx, owner, repo, path, credential)
	if err != nil {
		return FileFragment{}, &TraversalError{Path: path, Err: err}
	}
	return FileFragment{Path: path, Content: content}, nil
}
