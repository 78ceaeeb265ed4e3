package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const instrName = "github.com/tilsley/repomark"

// Options configures a Service.
type Options struct {
	// DefaultRules are merged into every request's rules.
	DefaultRules Rules
	// Timeout bounds a whole conversion. Zero means no deadline beyond the caller's.
	Timeout time.Duration
	// Concurrency bounds sibling file fetches within one directory.
	Concurrency int
}

// Service converts repositories into Markdown documents.
// It depends only on port interfaces and imports no HTTP framework.
type Service struct {
	fetcher   ContentFetcher
	traverser *Traverser
	recorder  EventRecorder
	opts      Options
	log       *slog.Logger
	now       func() time.Time

	conversions metric.Int64Counter
	files       metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewService creates a Service. recorder may be nil to disable event recording.
func NewService(fetcher ContentFetcher, recorder EventRecorder, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	m := otel.Meter(instrName)
	conversions, _ := m.Int64Counter("repomark.conversion.completed",
		metric.WithDescription("Number of conversions finished, by outcome"))
	files, _ := m.Int64Counter("repomark.conversion.files",
		metric.WithDescription("Number of files rendered into documents"))
	duration, _ := m.Float64Histogram("repomark.conversion.duration",
		metric.WithDescription("Conversion duration in milliseconds"),
		metric.WithUnit("ms"))

	return &Service{
		fetcher:     fetcher,
		traverser:   NewTraverser(fetcher, opts.Concurrency, log),
		recorder:    recorder,
		opts:        opts,
		log:         log,
		now:         time.Now,
		conversions: conversions,
		files:       files,
		duration:    duration,
	}
}

// Convert fetches the repository named by req.RepoURL and assembles it into a
// single Markdown document.
func (s *Service) Convert(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.RepoURL) == "" {
		return nil, InvalidRequestError{Reason: "repository URL is required"}
	}
	if req.Credential == "" {
		return nil, UnauthenticatedError{}
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := s.now()
	ref := ParseRepoURL(req.RepoURL)
	log := s.log.With("repo", ref.String())

	ctx, span := otel.Tracer(instrName).Start(ctx, "convert.Convert")
	span.SetAttributes(attribute.String("repo", ref.String()))
	defer span.End()

	res, err := s.convert(ctx, ref, req)
	elapsed := s.now().Sub(start)
	s.finish(ctx, ref, res, err, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		log.Error("conversion failed", "kind", KindOf(err), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", res.Files))
	log.Info("conversion completed", "files", res.Files, "bytes", len(res.Markdown), "durationMs", elapsed.Milliseconds())
	return res, nil
}

func (s *Service) convert(ctx context.Context, ref RepositoryReference, req Request) (*Result, error) {
	meta, err := s.fetcher.GetRepository(ctx, ref.Owner, ref.Name, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("get repository %s: %w", ref, err)
	}

	rules := ParseRules(req.ExcludeTypes, req.ExcludeDirs, req.ExcludeFiles).Merge(s.opts.DefaultRules)

	frags, err := s.traverser.Traverse(ctx, ref.Owner, ref.Name, "", rules, req.Credential)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", ref, err)
	}

	return &Result{
		Markdown:   Assemble(meta.Name, meta.Description, frags),
		Repository: ref,
		Files:      len(frags),
	}, nil
}

// finish emits metrics and records the conversion event. Recording failures
// are logged and never change the conversion's outcome.
func (s *Service) finish(ctx context.Context, ref RepositoryReference, res *Result, convErr error, elapsed time.Duration) {
	ev := ConversionEvent{
		ID:         uuid.NewString(),
		Owner:      ref.Owner,
		Repo:       ref.Name,
		Outcome:    OutcomeSucceeded,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	}
	if convErr != nil {
		ev.Outcome = OutcomeFailed
		ev.ErrorKind = KindOf(convErr)
	} else {
		ev.Files = res.Files
		ev.Bytes = len(res.Markdown)
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", ev.Outcome),
		attribute.String("error_kind", string(ev.ErrorKind)),
	)
	s.conversions.Add(ctx, 1, attrs)
	s.duration.Record(ctx, float64(ev.DurationMs), attrs)
	if ev.Files > 0 {
		s.files.Add(ctx, int64(ev.Files))
	}

	if s.recorder == nil {
		return
	}
	// The conversion context may already be past its deadline.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.recorder.RecordConversion(recCtx, ev); err != nil {
		s.log.Warn("failed to record conversion", "repo", ref.String(), "error", err)
	}
}

// Overview returns aggregate statistics over recorded conversions.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	if s.recorder == nil {
		return nil, ErrRecordingDisabled
	}
	o, err := s.recorder.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("conversion overview: %w", err)
	}
	return o, nil
}
