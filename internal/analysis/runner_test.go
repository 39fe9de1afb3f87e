package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semdiff/internal/cache"
	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/config"
	"github.com/rohankatakam/semdiff/internal/metrics"
	"github.com/rohankatakam/semdiff/internal/models"
)

// blockingWorker stalls on one path until its context is cancelled
type blockingWorker struct {
	stall string
	next  Worker
}

func (w blockingWorker) Analyze(ctx context.Context, pair FilePair) (*Outcome, error) {
	if pair.Path == w.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return w.next.Analyze(ctx, pair)
}

func reportsByPath(reports []models.FileReport) map[string]models.FileReport {
	out := make(map[string]models.FileReport, len(reports))
	for _, r := range reports {
		out[r.Path] = r
	}
	return out
}

func TestRunnerReportsEveryPair(t *testing.T) {
	runner, err := NewRunner(config.Default())
	require.NoError(t, err)

	pairs := []FilePair{
		{Path: "src/a.js", Base: []byte("const same = a == b\n"), Head: []byte("const same = a === b\n")},
		{Path: "src/a.test.js", Base: []byte("it()\n"), Head: []byte("it(1)\n")},
		{Path: "docs/guide.md", Head: []byte("# guide\n")},
		{Path: "src/broken.ts", Base: []byte("const x = 1\n"), Head: []byte("const x = {\n")},
	}

	reports := runner.Run(context.Background(), pairs)
	require.Len(t, reports, len(pairs))

	byPath := reportsByPath(reports)

	analyzed := byPath["src/a.js"]
	assert.Equal(t, models.FileAnalyzed, analyzed.Status)
	require.Len(t, analyzed.Changes, 1)
	assert.Equal(t, changes.KindComparisonOperatorChanged, analyzed.Changes[0].Kind)

	assert.Equal(t, models.FileSkipped, byPath["src/a.test.js"].Status)
	assert.Equal(t, SkipTest, byPath["src/a.test.js"].SkipReason)
	assert.Equal(t, SkipUnsupported, byPath["docs/guide.md"].SkipReason)

	failed := byPath["src/broken.ts"]
	assert.Equal(t, models.FileFailed, failed.Status)
	assert.Equal(t, "PARSE", failed.ErrorType)
	assert.Contains(t, failed.Error, "src/broken.ts")
}

func TestRunnerIsolatesTimeouts(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Timeout = 100 * time.Millisecond

	worker := blockingWorker{stall: "src/slow.ts", next: InProcessWorker{Config: cfg.Analyzer}}
	runner, err := NewRunner(cfg, WithWorker(worker))
	require.NoError(t, err)

	pairs := []FilePair{
		{Path: "src/one.ts", Base: []byte("function f() {}\n"), Head: []byte("function f(x) {}\n")},
		{Path: "src/slow.ts", Head: []byte("const a = 1\n")},
		{Path: "src/three.ts", Head: []byte("class A {}\n")},
	}

	start := time.Now()
	reports := runner.Run(context.Background(), pairs)
	assert.Less(t, time.Since(start), 10*time.Second)
	require.Len(t, reports, 3)

	byPath := reportsByPath(reports)
	slow := byPath["src/slow.ts"]
	assert.Equal(t, models.FileFailed, slow.Status)
	assert.Equal(t, "TIMEOUT", slow.ErrorType)
	assert.Contains(t, slow.Error, "100ms")

	assert.Equal(t, models.FileAnalyzed, byPath["src/one.ts"].Status)
	assert.NotEmpty(t, byPath["src/one.ts"].Changes)
	assert.Equal(t, models.FileAnalyzed, byPath["src/three.ts"].Status)
	assert.Equal(t, 1, changes.CountByKind(byPath["src/three.ts"].Changes)[changes.KindClassAdded])
}

func TestRunnerServesRepeatRunsFromCache(t *testing.T) {
	client, err := cache.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer client.Close()

	collector := metrics.NewCollector()
	runner, err := NewRunner(config.Default(), WithCache(client), WithMetrics(collector))
	require.NoError(t, err)

	pairs := []FilePair{{Path: "src/a.ts", Base: []byte("let x = a && b\n"), Head: []byte("let x = a || b\n")}}

	first := runner.Run(context.Background(), pairs)
	require.Len(t, first, 1)
	assert.False(t, first[0].Cached)

	second := runner.Run(context.Background(), pairs)
	require.Len(t, second, 1)
	assert.True(t, second[0].Cached)
	assert.Equal(t, first[0].Changes, second[0].Changes)

	// a config change invalidates the entry
	cfg := config.Default()
	cfg.Analyzer.SideEffectCallees = []string{"track*"}
	other, err := NewRunner(cfg, WithCache(client))
	require.NoError(t, err)
	third := other.Run(context.Background(), pairs)
	require.Len(t, third, 1)
	assert.False(t, third[0].Cached)
}

func TestRunnerIgnoresUnknownCachedKinds(t *testing.T) {
	client, err := cache.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer client.Close()

	runner, err := NewRunner(config.Default(), WithCache(client))
	require.NoError(t, err)

	pair := FilePair{Path: "src/a.ts", Base: []byte("let x = a && b\n"), Head: []byte("let x = a || b\n")}
	stale := Outcome{Language: "typescript", Changes: []changes.Change{{Kind: "renamedKind", Severity: changes.SeverityLow}}}
	require.NoError(t, client.Set(runner.cacheKey(pair), stale))

	reports := runner.Run(context.Background(), []FilePair{pair})
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Cached)
	assert.Equal(t, 1, changes.CountByKind(reports[0].Changes)[changes.KindLogicalOperatorChanged])
}

func TestNewRunnerSelectsWorker(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Isolation = config.IsolationSubprocess

	runner, err := NewRunner(cfg)
	require.NoError(t, err)
	assert.IsType(t, SubprocessWorker{}, runner.worker)

	cfg.Analyzer.Include = []string{"src/[x"}
	_, err = NewRunner(cfg)
	assert.Error(t, err)
}
