package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// ExtraSession adds waits, scrolling and text clicks
type ExtraSession struct {
	*Context
}

// NewExtraSession creates the session step set
func NewExtraSession(c *Context) *ExtraSession {
	return &ExtraSession{Context: c}
}

func (s *ExtraSession) Register(sc *godog.ScenarioContext) {
	sc.Before(s.MaximizeWindowBeforeScenario)

	sc.Step(`^I wait for (\d+) seconds?$`, s.WaitForSeconds)
	sc.Step(`^I wait for "([^"]*)" element being visible for (\d+) seconds$`, s.WaitForElementBeingVisible)
	sc.Step(`^I wait for "([^"]*)" element being invisible for (\d+) seconds$`, s.WaitForElementBeingInvisible)
	sc.Step(`^I scroll to (\d+) and (\d+)?$`, s.scrollTo)
	sc.Step(`^I wait (\d+) seconds that page contains text "([^"]*)"$`, s.WaitPageContains)
	sc.Step(`^I wait (\d+) seconds that page not contains text "([^"]*)"$`, s.WaitPageNotContains)
	sc.Step(`^I click on (?:link|button) containing "(?P<text>[^"]*)"$`, s.ClickOnText)
}

func (s *ExtraSession) MaximizeWindowBeforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	return ctx, s.Session().MaximizeWindow(ctx)
}

func (s *ExtraSession) WaitForSeconds(ctx context.Context, seconds int) error {
	return browser.Sleep(ctx, time.Duration(seconds)*time.Second)
}

// WaitForElementBeingVisible waits until the CSS selector matches a displayed element
func (s *ExtraSession) WaitForElementBeingVisible(ctx context.Context, element string, seconds int) error {
	return s.waitVisible(ctx, browser.CSS(element), time.Duration(seconds)*time.Second)
}

// WaitForElementBeingInvisible waits until the CSS selector matches nothing displayed
func (s *ExtraSession) WaitForElementBeingInvisible(ctx context.Context, element string, seconds int) error {
	return s.waitInvisible(ctx, browser.CSS(element), time.Duration(seconds)*time.Second)
}

// scrollTo accepts an empty y, the pattern makes it optional
func (s *ExtraSession) scrollTo(ctx context.Context, x int, y string) error {
	var top int
	if y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			return fmt.Errorf("invalid scroll position %q: %w", y, err)
		}
		top = parsed
	}
	return s.ScrollTo(ctx, x, top)
}

func (s *ExtraSession) ScrollTo(ctx context.Context, x, y int) error {
	return s.Session().Execute(ctx, fmt.Sprintf("(function(){window.scrollTo(%d, %d);})();", x, y))
}

func (s *ExtraSession) WaitPageContains(ctx context.Context, seconds int, text string) error {
	err := browser.Spin(ctx, time.Duration(seconds)*time.Second, s.PollInterval(), func(ctx context.Context) (bool, error) {
		return browser.PageContains(ctx, s.Session(), text)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(`page not contains text : "%s"`, text)
	}
	return nil
}

func (s *ExtraSession) WaitPageNotContains(ctx context.Context, seconds int, text string) error {
	err := browser.Spin(ctx, time.Duration(seconds)*time.Second, s.PollInterval(), func(ctx context.Context) (bool, error) {
		return browser.PageNotContains(ctx, s.Session(), text)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(`page contains text : "%s"`, text)
	}
	return nil
}

// ClickOnText clicks the first element whose text contains text
func (s *ExtraSession) ClickOnText(ctx context.Context, text string) error {
	el, err := s.Session().Find(ctx, browser.XPath(clickTextXPath(text)))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("text", "xpath", text)
	}
	return el.Click(ctx)
}

func clickTextXPath(text string) string {
	return fmt.Sprintf("//*[contains(.,%s)]", xpathLiteral(text))
}
