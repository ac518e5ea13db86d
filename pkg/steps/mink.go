package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/internal/router"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// Mink holds the navigation and form steps every suite needs
type Mink struct {
	*Context
}

// NewMink creates the basic step set
func NewMink(c *Context) *Mink {
	return &Mink{Context: c}
}

func (m *Mink) Register(sc *godog.ScenarioContext) {
	sc.Step(`^(?:|I )am on (?:|the )homepage$`, m.iAmOnHomepage)
	sc.Step(`^(?:|I )am on "(?P<page>[^"]+)"$`, m.visit)
	sc.Step(`^(?:|I )go to "(?P<page>[^"]+)"$`, m.visit)
	sc.Step(`^(?:|I )fill in "(?P<field>(?:[^"]|\\")*)" with "(?P<value>(?:[^"]|\\")*)"$`, m.FillField)
	sc.Step(`^(?:|I )press "(?P<button>(?:[^"]|\\")*)"$`, m.PressButton)
	sc.Step(`^(?:|I )follow "(?P<link>(?:[^"]|\\")*)"$`, m.ClickLink)
	sc.Step(`^(?:|I )should be on "(?P<page>[^"]+)"$`, m.AssertPageAddress)
	sc.Step(`^(?:|I )should see "(?P<text>(?:[^"]|\\")*)"$`, m.AssertPageContainsText)
	sc.Step(`^(?:|I )should not see "(?P<text>(?:[^"]|\\")*)"$`, m.AssertPageNotContainsText)
	sc.Step(`^(?:|I )should see (?P<num>\d+) "(?P<element>[^"]*)" elements?$`, m.assertNumElements)
	sc.Step(`^(?:|I )should see "(?P<value>(?:[^"]|\\")*)" in the "(?P<element>[^"]*)" element$`, m.assertElementContains)
}

func (m *Mink) iAmOnHomepage(ctx context.Context) error {
	return m.VisitPath(ctx, "/")
}

func (m *Mink) visit(ctx context.Context, page string) error {
	return m.VisitPath(ctx, page)
}

func (m *Mink) assertNumElements(ctx context.Context, num int, element string) error {
	return m.AssertNumElements(ctx, num, element)
}

func (m *Mink) assertElementContains(ctx context.Context, value, element string) error {
	return m.ElementContains(ctx, element, FixStepArgument(value))
}

// ClickLink follows the link found by id, title, text or image alt
func (m *Mink) ClickLink(ctx context.Context, link string) error {
	link = FixStepArgument(link)
	el, err := m.Session().Find(ctx, browser.XPath(linkXPath(link)))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("link", "id|title|alt|text", link)
	}
	return el.Click(ctx)
}

// AssertPageAddress compares the current path and query with the located page
func (m *Mink) AssertPageAddress(ctx context.Context, page string) error {
	current, err := m.Session().CurrentURL(ctx)
	if err != nil {
		return err
	}
	expected := m.LocatePath(page)
	if trimHost(current) != trimHost(expected) {
		return fmt.Errorf(`Current page is "%s", but "%s" expected.`, trimHost(current), trimHost(expected))
	}
	return nil
}

// AssertPageContainsText checks the visible page text, case-insensitively
func (m *Mink) AssertPageContainsText(ctx context.Context, text string) error {
	text = FixStepArgument(text)
	ok, err := browser.PageContains(ctx, m.Session(), text)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf(`The text "%s" was not found anywhere in the text of the current page.`, text)
	}
	return nil
}

func (m *Mink) AssertPageNotContainsText(ctx context.Context, text string) error {
	text = FixStepArgument(text)
	ok, err := browser.PageNotContains(ctx, m.Session(), text)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf(`The text "%s" appears in the text of this page, but it should not.`, text)
	}
	return nil
}

// trimHost keeps the path, query and fragment of u
func trimHost(u string) string {
	path := router.RemoveHost(u)
	if path == "" || strings.HasPrefix(path, "?") || strings.HasPrefix(path, "#") {
		path = "/" + path
	}
	return path
}
