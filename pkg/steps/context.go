// Package steps provides godog step sets and hooks for browser acceptance
// suites: base URL injection, failure debugging, spin-waits, extra web
// assertions, cookie replay, database restore, named routes and admin
// backend helpers.
//
// Each step set is a struct bound to a per-scenario *Context. Register wires
// its steps and hooks into a godog.ScenarioContext; Suite does this for all
// of them.
package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// ParameterBaseURL is the parameter relative paths are resolved against
const ParameterBaseURL = "base_url"

// PathLocator turns a step path into the URL to visit
type PathLocator interface {
	LocatePath(path string) string
}

// ParameterSetter receives suite parameters such as the base URL
type ParameterSetter interface {
	SetParameter(name, value string)
}

// Context is the per-scenario state shared by every step set
type Context struct {
	session        browser.Session
	logger         arbor.ILogger
	pollInterval   time.Duration
	defaultTimeout time.Duration

	mu         sync.RWMutex
	parameters map[string]string
	locator    PathLocator
	tags       []string
}

// NewContext creates a scenario context driving session
func NewContext(session browser.Session, logger arbor.ILogger) *Context {
	return &Context{
		session:        session,
		logger:         logger,
		pollInterval:   browser.DefaultPollInterval,
		defaultTimeout: 5 * time.Second,
		parameters:     make(map[string]string),
	}
}

// WithWait overrides the spin-wait cadence and default timeout
func (c *Context) WithWait(pollInterval, defaultTimeout time.Duration) *Context {
	if pollInterval > 0 {
		c.pollInterval = pollInterval
	}
	if defaultTimeout > 0 {
		c.defaultTimeout = defaultTimeout
	}
	return c
}

func (c *Context) Session() browser.Session { return c.session }

func (c *Context) Logger() arbor.ILogger { return c.logger }

func (c *Context) PollInterval() time.Duration { return c.pollInterval }

func (c *Context) DefaultTimeout() time.Duration { return c.defaultTimeout }

func (c *Context) SetParameter(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parameters[name] = value
}

func (c *Context) Parameter(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parameters[name]
}

// SetLocator replaces the path resolution done by LocatePath
func (c *Context) SetLocator(locator PathLocator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locator = locator
}

// LocatePath resolves path with the plugged locator, or BaseLocatePath
func (c *Context) LocatePath(path string) string {
	c.mu.RLock()
	locator := c.locator
	c.mu.RUnlock()
	if locator != nil {
		return locator.LocatePath(path)
	}
	return c.BaseLocatePath(path)
}

// BaseLocatePath joins relative paths to the base URL; absolute URLs are kept
func (c *Context) BaseLocatePath(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	base := c.Parameter(ParameterBaseURL)
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// SetTags replaces the tags of the running scenario
func (c *Context) SetTags(tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append([]string(nil), tags...)
}

func (c *Context) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.tags...)
}

// HasTag reports whether the running scenario or its feature carries tag (without "@")
func (c *Context) HasTag(tag string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return hasTag(c.tags, tag)
}

// TagsOf returns the scenario tags, feature tags included, without the leading "@"
func TagsOf(sc *godog.Scenario) []string {
	if sc == nil {
		return nil
	}
	tags := make([]string, 0, len(sc.Tags))
	for _, tag := range sc.Tags {
		tags = append(tags, strings.TrimPrefix(tag.Name, "@"))
	}
	return tags
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FixStepArgument unescapes quotes in a step argument
func FixStepArgument(argument string) string {
	return strings.ReplaceAll(argument, `\"`, `"`)
}

// VisitPath opens the located path
func (c *Context) VisitPath(ctx context.Context, path string) error {
	return c.session.Visit(ctx, c.LocatePath(path))
}

// FillField sets value on the field found by id, name, label or placeholder
func (c *Context) FillField(ctx context.Context, field, value string) error {
	field = FixStepArgument(field)
	el, err := c.session.Find(ctx, browser.XPath(fieldXPath(field)))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("form field", "id|name|label|value|placeholder", field)
	}
	return el.SetValue(ctx, FixStepArgument(value))
}

// PressButton presses the button found by id, name, value or text
func (c *Context) PressButton(ctx context.Context, button string) error {
	button = FixStepArgument(button)
	el, err := c.session.Find(ctx, browser.XPath(buttonXPath(button)))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("button", "id|name|title|alt|value", button)
	}
	return el.Press(ctx)
}

// AssertNumElements checks exactly num elements match the CSS selector
func (c *Context) AssertNumElements(ctx context.Context, num int, selector string) error {
	elements, err := c.session.FindAll(ctx, browser.CSS(selector))
	if err != nil {
		return err
	}
	if len(elements) != num {
		noun := "element"
		if len(elements) != 1 {
			noun = "elements"
		}
		return fmt.Errorf(`%d %s matching css "%s" found on the page, but should be %d.`, len(elements), noun, selector, num)
	}
	return nil
}

// ElementContains checks the inner HTML of the first CSS match contains value
func (c *Context) ElementContains(ctx context.Context, selector, value string) error {
	return c.elementContains(ctx, browser.CSS(selector), value)
}

// ElementAttributeExists checks the first CSS match carries attribute
func (c *Context) ElementAttributeExists(ctx context.Context, selector, attribute string) error {
	_, err := c.attribute(ctx, browser.CSS(selector), attribute)
	return err
}

// ElementAttributeNotContains checks attribute of the first CSS match does not contain text
func (c *Context) ElementAttributeNotContains(ctx context.Context, selector, attribute, text string) error {
	return c.attributeNotContains(ctx, browser.CSS(selector), attribute, text)
}

func (c *Context) elementContains(ctx context.Context, sel browser.Selector, value string) error {
	el, err := c.requireElement(ctx, sel)
	if err != nil {
		return err
	}
	html, err := el.HTML(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(html), strings.ToLower(value)) {
		return fmt.Errorf(`The string "%s" was not found in the HTML of the element matching %s "%s".`, value, sel.Kind, sel.Value)
	}
	return nil
}

func (c *Context) attribute(ctx context.Context, sel browser.Selector, attribute string) (string, error) {
	el, err := c.requireElement(ctx, sel)
	if err != nil {
		return "", err
	}
	value, ok, err := el.Attribute(ctx, attribute)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf(`The attribute "%s" was not found in the element matching %s "%s".`, attribute, sel.Kind, sel.Value)
	}
	return value, nil
}

func (c *Context) attributeNotContains(ctx context.Context, sel browser.Selector, attribute, text string) error {
	value, err := c.attribute(ctx, sel, attribute)
	if err != nil {
		return err
	}
	if strings.Contains(value, text) {
		return fmt.Errorf(`The text "%s" was found in the attribute "%s" of the element matching %s "%s".`, text, attribute, sel.Kind, sel.Value)
	}
	return nil
}

func (c *Context) requireElement(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	el, err := c.session.Find(ctx, sel)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, browser.NotFound("element", string(sel.Kind), sel.Value)
	}
	return el, nil
}

// waitVisible is the spin-wait behind "element being visible"
func (c *Context) waitVisible(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	if err := browser.WaitVisible(ctx, c.session, sel, timeout, c.pollInterval); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(`Element "%s" not found`, sel.Value)
	}
	return nil
}

// waitInvisible is the spin-wait behind "element being invisible"
func (c *Context) waitInvisible(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	if err := browser.WaitInvisible(ctx, c.session, sel, timeout, c.pollInterval); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(`Element "%s" did not disappear`, sel.Value)
	}
	return nil
}
