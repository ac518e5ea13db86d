package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

const popinTimeout = 5 * time.Second

var select2Separator = regexp.MustCompile(`,\s*`)

// AdminOptions describes the admin login form
type AdminOptions struct {
	LoginRoute    string
	UsernameField string
	PasswordField string
	LoginButton   string
}

// Admin holds steps for a Sonata admin backend: login, menus, navbar actions,
// modal popins and select2 fields
type Admin struct {
	*Context
	options AdminOptions
	session *ExtraSession
	assert  *ExtraWebAssert
	cookies *ReloadCookies
}

// NewAdmin creates the admin step set. cookies may be nil, login then always runs.
func NewAdmin(c *Context, options AdminOptions, cookies *ReloadCookies) *Admin {
	return &Admin{
		Context: c,
		options: options,
		session: NewExtraSession(c),
		assert:  NewExtraWebAssert(c),
		cookies: cookies,
	}
}

func (a *Admin) Register(sc *godog.ScenarioContext) {
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, a.IAmLoggedInAs)
	sc.Step(`^I open the menu "([^"]*)"$`, a.OpenMenuItemByText)
	sc.Step(`^I should see "([^"]*)" action in navbar$`, a.ShouldSeeActionInNavbar)
	sc.Step(`^I should not see "([^"]*)" action in navbar$`, a.ShouldNotSeeActionInNavbar)
	sc.Step(`^I click on "([^"]*)" action in navbar$`, a.ClickOnActionInNavbar)
	sc.Step(`^clicking on the "([^"]*)" element should open a popin "([^"]*)"$`, a.ClickingOnElementShouldOpenPopin)
	sc.Step(`^the popin "([^"]*)" should be closed$`, a.PopinShouldBeClosed)
	sc.Step(`^the popin "([^"]*)" should not be opened$`, a.PopinShouldNotBeOpened)
	sc.Step(`^the popin "([^"]*)" should be opened$`, a.PopinShouldBeOpened)
	sc.Step(`^(?:|I )set the select2 field "(?P<field>(?:[^"]|\\")*)" to "(?P<textValues>(?:[^"]|\\")*)"$`, a.FillInSelect2Field)
	sc.Step(`^(?:|I )set the select2 value "(?P<textValues>(?:[^"]|\\")*)" for "(?P<field>(?:[^"]|\\")*)"$`, a.fillInSelect2Value)
}

// Login submits the admin login form
func (a *Admin) Login(ctx context.Context, username, password string) error {
	if err := a.VisitPath(ctx, a.options.LoginRoute); err != nil {
		return err
	}
	if err := a.FillField(ctx, a.options.UsernameField, username); err != nil {
		return err
	}
	if err := a.FillField(ctx, a.options.PasswordField, password); err != nil {
		return err
	}
	return a.PressButton(ctx, a.options.LoginButton)
}

// IAmLoggedInAs logs in once per run and replays the session cookies afterwards
func (a *Admin) IAmLoggedInAs(ctx context.Context, username, password string) error {
	login := func(ctx context.Context) error {
		return a.Login(ctx, username, password)
	}
	if a.cookies == nil {
		return login(ctx)
	}
	return a.cookies.DoOnce(ctx, login)
}

func (a *Admin) OpenMenuItemByText(ctx context.Context, text string) error {
	el, err := a.Session().Find(ctx, browser.XPath(fmt.Sprintf(`//aside//span[text()=%s]`, xpathLiteral(text))))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "text", text)
	}
	return el.Click(ctx)
}

func (a *Admin) ShouldSeeActionInNavbar(ctx context.Context, text string) error {
	el, err := a.navbarAction(ctx, text)
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "text", text)
	}
	visible, err := el.Visible(ctx)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf(`Cannot find action "%s" in Navbar action`, text)
	}
	return nil
}

func (a *Admin) ShouldNotSeeActionInNavbar(ctx context.Context, text string) error {
	el, err := a.navbarAction(ctx, text)
	if err != nil {
		return err
	}
	if el != nil {
		return fmt.Errorf(`Action "%s" has been found in Navbar action`, text)
	}
	return nil
}

func (a *Admin) ClickOnActionInNavbar(ctx context.Context, text string) error {
	el, err := a.navbarAction(ctx, text)
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "text", text)
	}
	return el.Click(ctx)
}

func (a *Admin) navbarAction(ctx context.Context, text string) (browser.Element, error) {
	return a.Session().Find(ctx, browser.XPath(fmt.Sprintf(`//nav//a[contains(.,%s)]`, xpathLiteral(text))))
}

// ClickingOnElementShouldOpenPopin clicks element then waits for the modal whose id ends with popinIDEnding
func (a *Admin) ClickingOnElementShouldOpenPopin(ctx context.Context, element, popinIDEnding string) error {
	if err := a.assert.ClickElement(ctx, element); err != nil {
		return err
	}
	return a.session.WaitForElementBeingVisible(ctx, popinSelector(popinIDEnding), int(popinTimeout/time.Second))
}

func (a *Admin) PopinShouldBeClosed(ctx context.Context, popinIDEnding string) error {
	if err := a.session.WaitForElementBeingInvisible(ctx, popinSelector(popinIDEnding), int(popinTimeout/time.Second)); err != nil {
		return err
	}
	return a.PopinShouldNotBeOpened(ctx, popinIDEnding)
}

func (a *Admin) PopinShouldNotBeOpened(ctx context.Context, popinIDEnding string) error {
	selector := modalSelector(popinIDEnding)
	el, err := a.Session().Find(ctx, browser.CSS(selector))
	if err != nil || el == nil {
		return err
	}
	visible, err := el.Visible(ctx)
	if err != nil {
		return err
	}
	if visible {
		return fmt.Errorf("Popin %s was found and opened", selector)
	}
	return nil
}

func (a *Admin) PopinShouldBeOpened(ctx context.Context, popinIDEnding string) error {
	selector := modalSelector(popinIDEnding)
	el, err := a.Session().Find(ctx, browser.CSS(selector))
	if err != nil {
		return err
	}
	visible := false
	if el != nil {
		if visible, err = el.Visible(ctx); err != nil {
			return err
		}
	}
	if !visible {
		return fmt.Errorf("Modal %s should be opened and visible", selector)
	}
	return nil
}

// FillInSelect2Field selects the options labelled textValues ("a, b") and notifies select2
func (a *Admin) FillInSelect2Field(ctx context.Context, field, textValues string) error {
	field = FixStepArgument(field)
	textValues = FixStepArgument(textValues)

	values := []string{}
	for _, label := range select2Separator.Split(textValues, -1) {
		option, err := a.Session().Find(ctx, browser.XPath(select2OptionXPath(field, label)))
		if err != nil {
			return err
		}
		if option == nil {
			return browser.NotFound("option", "xpath", label)
		}
		value, _, err := option.Attribute(ctx, "value")
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode select2 values: %w", err)
	}
	return a.Session().Execute(ctx, fmt.Sprintf("jQuery('#%s').val(%s).trigger('change');", field, encoded))
}

func (a *Admin) fillInSelect2Value(ctx context.Context, textValues, field string) error {
	return a.FillInSelect2Field(ctx, field, textValues)
}

func popinSelector(popinIDEnding string) string {
	return fmt.Sprintf("[id$=%s].modal", popinIDEnding)
}

func modalSelector(popinIDEnding string) string {
	return fmt.Sprintf("div.modal[id$=%s]", popinIDEnding)
}

func select2OptionXPath(field, label string) string {
	return fmt.Sprintf(`//select[@id=%s]//option[text()=%s]`, xpathLiteral(field), xpathLiteral(label))
}
