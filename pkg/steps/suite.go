package steps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cucumber/godog"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/internal/common"
	"github.com/ternarybob/behat-helpers/internal/cookiecache"
	"github.com/ternarybob/behat-helpers/internal/dbdump"
	"github.com/ternarybob/behat-helpers/internal/interfaces"
	"github.com/ternarybob/behat-helpers/internal/storage"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// Config is the helpers configuration, see LoadSuite for the file format
type Config = common.Config

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return common.NewDefaultConfig()
}

// Suite wires every step set around one browser session and one cookie cache
type Suite struct {
	config *Config
	logger arbor.ILogger

	mu            sync.Mutex
	session       browser.Session
	ownsSession   bool
	cache         *cookiecache.Cache
	cookieStorage interfaces.CookieStorage
	commandRunner dbdump.CommandRunner
	startErr      error
	started       bool
}

// SuiteOption customizes a Suite
type SuiteOption func(*Suite)

// WithSession drives an existing session instead of launching Chrome
func WithSession(session browser.Session) SuiteOption {
	return func(s *Suite) {
		s.session = session
	}
}

// WithCookieCache replaces the process-wide cookie cache
func WithCookieCache(cache *cookiecache.Cache) SuiteOption {
	return func(s *Suite) {
		s.cache = cache
	}
}

// WithCommandRunner replaces the runner of the database clients
func WithCommandRunner(runner dbdump.CommandRunner) SuiteOption {
	return func(s *Suite) {
		s.commandRunner = runner
	}
}

// NewSuite creates a suite; the browser starts with InitializeTestSuite or Start
func NewSuite(config *Config, logger arbor.ILogger, opts ...SuiteOption) *Suite {
	s := &Suite{
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cookiecache.Default()
	}
	return s
}

// LoadSuite reads configuration files (later files win), initializes logging
// and creates the suite
func LoadSuite(paths ...string) (*Suite, error) {
	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := common.InitLogger(config)

	logger.Info().
		Str("version", common.GetFullVersion()).
		Strs("config_files", paths).
		Str("base_url", config.BaseURL).
		Str("cache_backend", config.Cache.Backend).
		Msg("Behat helpers configuration loaded")

	return NewSuite(config, logger), nil
}

// Config returns the loaded configuration
func (s *Suite) Config() *Config {
	return s.config
}

// InitializeTestSuite starts the browser and cookie storage before the run and
// stops them after it
func (s *Suite) InitializeTestSuite(tsc *godog.TestSuiteContext) {
	tsc.BeforeSuite(func() {
		if err := s.Start(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("Failed to start test suite")
		}
	})
	tsc.AfterSuite(func() {
		if err := s.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop test suite")
		}
	})
}

// Start opens the cookie storage and the browser. A failure is also reported
// by every scenario.
func (s *Suite) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return s.startErr
	}
	s.started = true
	s.startErr = s.startLocked(ctx)
	return s.startErr
}

func (s *Suite) startLocked(ctx context.Context) error {
	cookieStorage, err := storage.NewCookieStorage(s.logger, &s.config.Cache)
	if err != nil {
		return err
	}
	if cookieStorage != nil {
		if err := s.cache.Attach(ctx, cookieStorage, s.config.Cache.Namespace); err != nil {
			cookieStorage.Close()
			return err
		}
		s.cookieStorage = cookieStorage
	}

	if s.session != nil {
		return nil
	}

	chrome, err := browser.NewChrome(ctx, browser.ChromeOptions{
		Headless:      s.config.Browser.Headless,
		DisableGPU:    s.config.Browser.DisableGPU,
		NoSandbox:     s.config.Browser.NoSandbox,
		WindowWidth:   s.config.Browser.WindowWidth,
		WindowHeight:  s.config.Browser.WindowHeight,
		UserAgent:     s.config.Browser.UserAgent,
		RemoteURL:     s.config.Browser.RemoteURL,
		ActionTimeout: s.config.Browser.ActionTimeout(),
	}, s.logger)
	if err != nil {
		return err
	}
	s.session = chrome
	s.ownsSession = true
	return nil
}

// Stop closes what Start opened
func (s *Suite) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.cookieStorage != nil {
		s.cache.Detach()
		if err := s.cookieStorage.Close(); err != nil {
			errs = append(errs, err)
		}
		s.cookieStorage = nil
	}
	if s.ownsSession {
		if closer, ok := s.session.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.session = nil
		s.ownsSession = false
	}
	s.started = false
	s.startErr = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to stop suite: %w", err)
	}
	return nil
}

// Session returns the browser session, nil before Start
func (s *Suite) Session() browser.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// InitializeScenario creates the scenario Context and registers every step set
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	s.mu.Lock()
	session, startErr := s.session, s.startErr
	s.mu.Unlock()

	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		if startErr != nil {
			return ctx, fmt.Errorf("test suite did not start: %w", startErr)
		}
		if session == nil {
			return ctx, fmt.Errorf("test suite did not start: no browser session")
		}
		return ctx, nil
	})
	if session == nil {
		return
	}

	c := NewContext(session, s.logger).WithWait(s.config.Wait.Poll(), s.config.Wait.Timeout())
	c.SetParameter(ParameterBaseURL, s.config.BaseURL)

	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		c.SetTags(TagsOf(scenario))
		return ctx, nil
	})

	cookies := NewReloadCookies(c, s.cache)
	admin := NewAdmin(c, AdminOptions{
		LoginRoute:    s.config.Admin.LoginRoute,
		UsernameField: s.config.Admin.UsernameField,
		PasswordField: s.config.Admin.PasswordField,
		LoginButton:   s.config.Admin.LoginButton,
	}, cookies)

	registrars := []interface {
		Register(sc *godog.ScenarioContext)
	}{
		NewBaseURL(c).SetBaseURL(s.config.BaseURL),
		NewRouterLocator(c, s.config.Routes),
		NewDebug(c, DebugOptions{
			LogsDir:    s.config.Debug.LogsDir,
			Screenshot: s.config.Debug.Screenshot,
			HTML:       s.config.Debug.HTML,
		}),
		NewReloadDatabase(c, dbdump.NewDumper(&s.config.Database, s.commandRunner, s.logger), s.config.DumpDir()),
		cookies,
		NewMink(c),
		NewExtraSession(c),
		NewExtraWebAssert(c),
		admin,
		NewPageComposer(c, admin),
	}
	for _, r := range registrars {
		r.Register(sc)
	}
}

// TestSuite returns a godog suite running this Suite with options
func (s *Suite) TestSuite(name string, options *godog.Options) godog.TestSuite {
	return godog.TestSuite{
		Name:                 name,
		TestSuiteInitializer: s.InitializeTestSuite,
		ScenarioInitializer:  s.InitializeScenario,
		Options:              options,
	}
}
