package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	gherkin "github.com/cucumber/gherkin/go/v26"
	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/ternarybob/behat-helpers/internal/common"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// TagProfile enables scenario profiling
const TagProfile = "behat_helpers_profile"

// ErrLogsDirRequired is returned when a failed step must be dumped but no logs directory is set
var ErrLogsDirRequired = errors.New("a logs directory is required to save failed step artifacts")

// DebugOptions selects which artifacts are written for failed steps
type DebugOptions struct {
	LogsDir    string
	Screenshot bool
	HTML       bool
}

// Debug profiles tagged scenarios and dumps the page when a step fails
type Debug struct {
	*Context
	options DebugOptions

	featureTitle string
	profiling    bool
	startedAt    time.Time
	startAlloc   uint64
}

// NewDebug creates the debug step set
func NewDebug(c *Context, options DebugOptions) *Debug {
	return &Debug{Context: c, options: options}
}

func (d *Debug) Register(sc *godog.ScenarioContext) {
	sc.Before(d.StartProfilingBeforeScenario)
	sc.After(d.StopProfilingAfterScenario)
	sc.StepContext().After(d.CollectDebugAfterFailedStep)
}

// StartProfilingBeforeScenario starts the stopwatch when the profile tag is present
func (d *Debug) StartProfilingBeforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	d.featureTitle = FeatureTitle(sc.Uri)
	d.profiling = false

	if !hasTag(TagsOf(sc), TagProfile) {
		return ctx, nil
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	d.profiling = true
	d.startedAt = time.Now()
	d.startAlloc = stats.HeapAlloc
	return ctx, nil
}

// StopProfilingAfterScenario logs elapsed time and heap growth of a profiled scenario
func (d *Debug) StopProfilingAfterScenario(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	if !d.profiling {
		return ctx, nil
	}
	d.profiling = false

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	d.Logger().Info().
		Str("scenario", sc.Name).
		Str("duration", time.Since(d.startedAt).String()).
		Str("memory", formatBytes(int64(stats.HeapAlloc)-int64(d.startAlloc))).
		Msg("Scenario profile")
	return ctx, nil
}

// CollectDebugAfterFailedStep saves the page HTML and a screenshot of a failed step
func (d *Debug) CollectDebugAfterFailedStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, stepErr error) (context.Context, error) {
	if status != godog.StepFailed {
		return ctx, nil
	}

	snapshotter, ok := d.Session().(browser.Snapshotter)
	if !ok {
		return ctx, nil
	}

	if d.options.LogsDir == "" {
		return ctx, ErrLogsDirRequired
	}
	if err := os.MkdirAll(d.options.LogsDir, 0755); err != nil {
		return ctx, fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(d.options.LogsDir, fmt.Sprintf("%s.%s",
		common.Slugify(d.featureTitle),
		common.Slugify(st.Text),
	))

	if d.options.HTML {
		content, err := d.Session().Content(ctx)
		if err != nil {
			return ctx, err
		}
		if err := os.WriteFile(path+".html", []byte(content), 0644); err != nil {
			return ctx, fmt.Errorf("failed to save failed step content: %w", err)
		}
		d.Logger().Info().Str("path", path+".html").Msg("Saved failed step content")
	}

	if d.options.Screenshot {
		screenshot, err := snapshotter.Screenshot(ctx)
		if err != nil {
			return ctx, err
		}
		if err := os.WriteFile(path+".png", screenshot, 0644); err != nil {
			return ctx, fmt.Errorf("failed to save failed step screenshot: %w", err)
		}
		d.Logger().Info().Str("path", path+".png").Msg("Saved failed step screenshot")
	}

	return ctx, nil
}

var featureTitles sync.Map

// FeatureTitle returns the Feature: name of the file at uri, falling back to
// the file name when it cannot be read. Results are cached per uri.
func FeatureTitle(uri string) string {
	if uri == "" {
		return ""
	}
	if title, ok := featureTitles.Load(uri); ok {
		return title.(string)
	}

	title := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	if file, err := os.Open(uri); err == nil {
		doc, err := gherkin.ParseGherkinDocument(file, (&messages.Incrementing{}).NewId)
		file.Close()
		if err == nil && doc.Feature != nil && doc.Feature.Name != "" {
			title = doc.Feature.Name
		}
	}

	featureTitles.Store(uri, title)
	return title
}

func formatBytes(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%s%d B", sign, n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.2f %ciB", sign, float64(n)/float64(div), "KMGTPE"[exp])
}
