package steps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/pkg/browser/browsertest"
)

const debugFeature = `@javascript
Feature: Article administration

  Scenario: Create an article
    Given I am on "/admin/article/create"
`

func writeFeature(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "article.feature")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFeatureTitle(t *testing.T) {
	path := writeFeature(t, debugFeature)
	assert.Equal(t, "Article administration", FeatureTitle(path))
	assert.Equal(t, "missing", FeatureTitle("features/missing.feature"))
	assert.Equal(t, "", FeatureTitle(""))
}

func TestCollectDebugAfterFailedStep(t *testing.T) {
	c, session := newTestContext(t)
	session.SetContent("<html><body>Oops</body></html>")
	session.SetScreenshot([]byte("png-bytes"))

	logsDir := t.TempDir()
	d := NewDebug(c, DebugOptions{LogsDir: logsDir, Screenshot: true, HTML: true})
	ctx := context.Background()

	sc := newScenario("create")
	sc.Uri = writeFeature(t, debugFeature)
	_, err := d.StartProfilingBeforeScenario(ctx, sc)
	require.NoError(t, err)

	step := &godog.Step{Text: `I press "Save"`}

	// Passed steps leave nothing behind
	_, err = d.CollectDebugAfterFailedStep(ctx, step, godog.StepPassed, nil)
	require.NoError(t, err)
	entries, _ := os.ReadDir(logsDir)
	assert.Empty(t, entries)

	_, err = d.CollectDebugAfterFailedStep(ctx, step, godog.StepFailed, assert.AnError)
	require.NoError(t, err)

	base := filepath.Join(logsDir, "article-administration.i-press-save")
	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>Oops</body></html>", string(html))

	png, err := os.ReadFile(base + ".png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(png))
}

func TestCollectDebugIgnoresSessionsWithoutScreenshots(t *testing.T) {
	session := browsertest.Plain(browsertest.NewSession())
	d := NewDebug(NewContext(session, arbor.NewLogger()), DebugOptions{})

	_, err := d.CollectDebugAfterFailedStep(context.Background(), &godog.Step{Text: "x"}, godog.StepFailed, assert.AnError)
	assert.NoError(t, err)
}

func TestCollectDebugRequiresLogsDir(t *testing.T) {
	c, _ := newTestContext(t)
	d := NewDebug(c, DebugOptions{Screenshot: true})

	_, err := d.CollectDebugAfterFailedStep(context.Background(), &godog.Step{Text: "x"}, godog.StepFailed, assert.AnError)
	assert.ErrorIs(t, err, ErrLogsDirRequired)
}

func TestProfiling(t *testing.T) {
	c, _ := newTestContext(t)
	d := NewDebug(c, DebugOptions{})
	ctx := context.Background()

	_, err := d.StartProfilingBeforeScenario(ctx, newScenario("plain"))
	require.NoError(t, err)
	assert.False(t, d.profiling)

	_, err = d.StartProfilingBeforeScenario(ctx, newScenario("profiled", TagProfile))
	require.NoError(t, err)
	assert.True(t, d.profiling)

	_, err = d.StopProfilingAfterScenario(ctx, newScenario("profiled", TagProfile), nil)
	require.NoError(t, err)
	assert.False(t, d.profiling)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.50 KiB", formatBytes(1536))
	assert.Equal(t, "-2.00 MiB", formatBytes(-2*1024*1024))
}
