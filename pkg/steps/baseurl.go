package steps

import (
	"context"
	"sync"

	"github.com/cucumber/godog"
)

// BaseURL pushes one base URL into every registered context before each scenario
type BaseURL struct {
	mu      sync.Mutex
	baseURL string
	setters []ParameterSetter
}

// NewBaseURL creates an injector for setters
func NewBaseURL(setters ...ParameterSetter) *BaseURL {
	return &BaseURL{setters: setters}
}

// SetBaseURL changes the injected URL
func (b *BaseURL) SetBaseURL(baseURL string) *BaseURL {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.baseURL = baseURL
	return b
}

// AddContext registers another receiver of the base URL
func (b *BaseURL) AddContext(setter ParameterSetter) *BaseURL {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setters = append(b.setters, setter)
	return b
}

func (b *BaseURL) Register(sc *godog.ScenarioContext) {
	sc.Before(b.SetBaseURLBeforeScenario)
}

// SetBaseURLBeforeScenario sets the base_url parameter of every context.
// An unset base URL leaves the contexts untouched.
func (b *BaseURL) SetBaseURLBeforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.baseURL == "" {
		return ctx, nil
	}
	for _, setter := range b.setters {
		setter.SetParameter(ParameterBaseURL, b.baseURL)
	}
	return ctx, nil
}
