package steps

import (
	"context"
	"runtime"
	"strings"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/internal/cookiecache"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

const (
	// TagResetCache drops saved cookies and executed steps before DoOnce runs
	TagResetCache = "behat_helpers_reset_cache"

	// TagNoCache makes DoOnce always run and never replay cookies
	TagNoCache = "behat_helpers_no_cache"
)

// ReloadCookies replays the cookies of a previous scenario so expensive setup
// steps, such as logging in, only run once per test run
type ReloadCookies struct {
	*Context
	cache *cookiecache.Cache

	saveCookies     bool
	cookiesReloaded bool
}

// NewReloadCookies binds the step set to cache; nil uses cookiecache.Default()
func NewReloadCookies(c *Context, cache *cookiecache.Cache) *ReloadCookies {
	if cache == nil {
		cache = cookiecache.Default()
	}
	return &ReloadCookies{Context: c, cache: cache}
}

func (r *ReloadCookies) Register(sc *godog.ScenarioContext) {
	sc.Before(r.GetTagsBeforeScenario)
	sc.After(r.SaveCookiesAfterScenario)
}

// GetTagsBeforeScenario records feature and scenario tags and resets the per-scenario flags
func (r *ReloadCookies) GetTagsBeforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	r.SetTags(TagsOf(sc))
	r.saveCookies = false
	r.cookiesReloaded = false
	return ctx, nil
}

// SaveCookiesAfterScenario stores the browser cookies when a DoOnce callback ran
func (r *ReloadCookies) SaveCookiesAfterScenario(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	if !r.saveCookies {
		return ctx, nil
	}

	jar, jarErr := browser.RequireCookieJar(r.Session())
	if jarErr != nil {
		return ctx, jarErr
	}

	r.Logger().Info().Str("scenario", sc.Name).Msg("Saving cookies...")

	cookies, cookiesErr := jar.Cookies(ctx)
	if cookiesErr != nil {
		return ctx, cookiesErr
	}
	return ctx, r.cache.StoreCookies(ctx, cookies)
}

// DoOnce runs fn once per test run, keyed by the calling function
func (r *ReloadCookies) DoOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.DoOnceAs(ctx, callerName(2), fn)
}

// DoOnceAs runs fn once per test run for key. Saved cookies are replayed the
// first time a scenario reaches a cacheable call.
func (r *ReloadCookies) DoOnceAs(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	reset := r.HasTag(TagResetCache)
	cacheable := !r.HasTag(TagNoCache)

	if reset {
		if _, err := r.ResetCookies(ctx); err != nil {
			return err
		}
	}

	if !r.cookiesReloaded && !reset && cacheable {
		if _, err := r.ReloadCookies(ctx); err != nil {
			return err
		}
		r.cookiesReloaded = true
	}

	if !cacheable {
		return fn(ctx)
	}

	if r.cache.HasStep(key) {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	r.cache.RecordStep(key)
	r.saveCookies = true
	return nil
}

// ResetCookies clears the cache and the browser cookies; it reports false when nothing was saved
func (r *ReloadCookies) ResetCookies(ctx context.Context) (bool, error) {
	if !r.cache.HasCookies() {
		return false, nil
	}

	jar, err := browser.RequireCookieJar(r.Session())
	if err != nil {
		return false, err
	}
	if err := r.cache.Clear(ctx); err != nil {
		return false, err
	}

	r.Logger().Info().Msg("Resetting cookies...")

	if err := jar.DeleteAllCookies(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ReloadCookies sets every saved cookie on the browser; it reports false when nothing was saved
func (r *ReloadCookies) ReloadCookies(ctx context.Context) (bool, error) {
	if !r.cache.HasCookies() {
		return false, nil
	}

	jar, err := browser.RequireCookieJar(r.Session())
	if err != nil {
		return false, err
	}

	r.Logger().Info().Msg("Reloading cookies...")

	for _, cookie := range r.cache.Cookies() {
		if err := jar.SetCookie(ctx, cookie); err != nil {
			return false, err
		}
	}
	return true, nil
}

// callerName returns the short name of the function skip frames above
func callerName(skip int) string {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) == 0 {
		return "unknown"
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	name := frame.Function
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
