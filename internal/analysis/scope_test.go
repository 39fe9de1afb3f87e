package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/semdiff/internal/config"
)

func TestScopeCheck(t *testing.T) {
	cfg := config.Default().Analyzer
	cfg.Include = []string{"src/**"}

	scope, err := NewScope(cfg)
	require.NoError(t, err)

	tests := []struct {
		path   string
		want   bool
		reason string
	}{
		{"src/app.ts", true, ""},
		{"src/ui/Button.tsx", true, ""},
		{"src/legacy/util.cjs", true, ""},
		{"lib/app.ts", false, SkipNotIncluded},
		{"src/README.md", false, SkipUnsupported},
		{"src/node_modules/pkg/index.js", false, SkipExcluded},
		{"src/types/global.d.ts", false, SkipExcluded},
		{"src/app.test.ts", false, SkipTest},
		{"src/__tests__/app.ts", false, SkipTest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := scope.Check(tt.path)
			assert.Equal(t, tt.want, got.InScope)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestScopeWithoutIncludeAcceptsEverything(t *testing.T) {
	scope, err := NewScope(config.AnalyzerConfig{})
	require.NoError(t, err)
	assert.True(t, scope.Check("deep/nested/file.jsx").InScope)
}

func TestNewScopeRejectsMalformedGlob(t *testing.T) {
	_, err := NewScope(config.AnalyzerConfig{Exclude: []string{"src/[abc"}})
	assert.Error(t, err)
}

func TestBypassLabel(t *testing.T) {
	cfg := config.AnalyzerConfig{BypassLabels: []string{"semdiff:skip", "hotfix"}}

	label, ok := BypassLabel(cfg, []string{"docs", "hotfix"})
	assert.True(t, ok)
	assert.Equal(t, "hotfix", label)

	_, ok = BypassLabel(cfg, []string{"docs"})
	assert.False(t, ok)

	_, ok = BypassLabel(config.AnalyzerConfig{}, []string{"semdiff:skip"})
	assert.False(t, ok)
}
