package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repomark/apps/server/internal/convert"
)

// ─── GET /api/conversions/overview ───────────────────────────────────────────

func TestOverview_RecordingDisabled_Returns501(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/conversions/overview", nil, "")

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestOverview_ReturnsAggregates(t *testing.T) {
	rec := &stubRecorder{overview: &convert.Overview{
		Total: 2, Succeeded: 1, Failed: 1, FilesRendered: 2, AvgDurationMs: 12.5,
		FailuresByKind: map[string]int64{"UpstreamNotFound": 1},
	}}
	ts := newTestServer(t, rec)

	w := ts.do(http.MethodGet, "/api/conversions/overview", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[convert.Overview](t, w)
	assert.Equal(t, *rec.overview, got)
}

func TestOverview_StoreError_Returns500(t *testing.T) {
	ts := newTestServer(t, &stubRecorder{err: errors.New("connection refused")})

	w := ts.do(http.MethodGet, "/api/conversions/overview", nil, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConvert_RecordsEvent(t *testing.T) {
	rec := &stubRecorder{}
	ts := newTestServer(t, rec)

	w := ts.do(http.MethodPost, "/api/convert", validBody, "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, rec.events, 1)
	assert.Equal(t, convert.OutcomeSucceeded, rec.events[0].Outcome)
	assert.Equal(t, 2, rec.events[0].Files)
}
