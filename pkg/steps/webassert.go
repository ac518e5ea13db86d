package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// ExtraWebAssert adds element assertions and clicks by CSS selector
type ExtraWebAssert struct {
	*Context
}

// NewExtraWebAssert creates the assertion step set
func NewExtraWebAssert(c *Context) *ExtraWebAssert {
	return &ExtraWebAssert{Context: c}
}

func (a *ExtraWebAssert) Register(sc *godog.ScenarioContext) {
	sc.Step(`^the "(?P<element>[^"]*)" element should have attribute "(?P<value>(?:[^"]|\\")*)"$`, a.AssertElementAttributeExists)
	sc.Step(`^I click the "(?P<element>[^"]*)" element$`, a.ClickElement)
	sc.Step(`^(?:|I )should see at least (?P<num>\d+) "(?P<element>[^"]*)" elements?$`, a.AssertAtLeastNumElements)
	sc.Step(`^(?:|I )should see exactly (?P<num>\d+) "(?P<element>[^"]*)" elements?$`, a.AssertExactlyNumElements)
}

func (a *ExtraWebAssert) AssertElementAttributeExists(ctx context.Context, element, value string) error {
	return a.ElementAttributeExists(ctx, element, FixStepArgument(value))
}

// ClickElement clicks the first match of the CSS selector
func (a *ExtraWebAssert) ClickElement(ctx context.Context, element string) error {
	el, err := a.Session().Find(ctx, browser.CSS(element))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "id|title|alt|text", element)
	}
	return el.Click(ctx)
}

func (a *ExtraWebAssert) AssertAtLeastNumElements(ctx context.Context, num int, selector string) error {
	count, err := a.countElements(ctx, selector)
	if err != nil {
		return err
	}
	if num > count {
		return fmt.Errorf(`%d "%s" found on the page, but should at least %d.`, count, selector, num)
	}
	return nil
}

func (a *ExtraWebAssert) AssertExactlyNumElements(ctx context.Context, num int, selector string) error {
	count, err := a.countElements(ctx, selector)
	if err != nil {
		return err
	}
	if count != num {
		return fmt.Errorf(`%d "%s" found on the page, but should find %d.`, count, selector, num)
	}
	return nil
}

// countElements fails when nothing matches at all
func (a *ExtraWebAssert) countElements(ctx context.Context, selector string) (int, error) {
	elements, err := a.Session().FindAll(ctx, browser.CSS(selector))
	if err != nil {
		return 0, err
	}
	if len(elements) == 0 {
		return 0, browser.NotFound("element", "css", selector)
	}
	return len(elements), nil
}

// SpinUntil polls predicate for up to seconds at the context poll interval
func (a *ExtraWebAssert) SpinUntil(ctx context.Context, seconds int, predicate browser.Predicate) error {
	return browser.Spin(ctx, time.Duration(seconds)*time.Second, a.PollInterval(), predicate)
}
