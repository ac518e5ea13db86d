package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/behat-helpers/pkg/browser"
	"github.com/ternarybob/behat-helpers/pkg/browser/browsertest"
)

func newTestPageComposer(t *testing.T) (*PageComposer, *browsertest.Session) {
	t.Helper()
	c, session := newTestContext(t)
	return NewPageComposer(c, NewAdmin(c, testAdminOptions, nil)), session
}

func TestOpenContainerByText(t *testing.T) {
	p, session := newTestPageComposer(t)
	ctx := context.Background()

	link := browsertest.NewElement("a").WithText("Main content")
	session.Add(browser.XPath(containerLinkXPath("Main content")), link)

	require.NoError(t, p.OpenContainerByText(ctx, "Main content"))
	assert.Equal(t, 1, link.Clicks())
	assert.EqualError(t, p.OpenContainerByText(ctx, "Footer"), `Tag with text "Footer" not found.`)
}

func TestAddBlockWithName(t *testing.T) {
	p, session := newTestPageComposer(t)

	modal := browsertest.NewElement("div", "id", "sonata_blockSelectModal")
	modal.SetHidden(true)
	link := browsertest.NewElement("a").WithText("Text block")
	link.SetHidden(true)
	input := browsertest.NewElement("input")
	input.SetHidden(true)

	selector := browsertest.NewElement("button")
	selector.OnClick = func() {
		modal.SetHidden(false)
		link.SetHidden(false)
	}
	link.OnClick = func() {
		modal.SetHidden(true)
		input.SetHidden(false)
	}

	session.Add(browser.CSS(blockTypeSelectorButton), selector)
	session.Add(browser.CSS("[id$=blockSelectModal].modal"), modal)
	session.Add(browser.CSS("div.modal[id$=blockSelectModal]"), modal)
	session.Add(browser.XPath(blockSelectLinkXPath("Text block")), link)
	session.Add(browser.XPath(childNameInputXPath("Text block")), input)

	require.NoError(t, p.AddBlockWithName(context.Background(), "Text block", "Intro"))
	assert.Equal(t, "Intro", input.CurrentValue())
	assert.Equal(t, 1, selector.Clicks())
	assert.Equal(t, 1, link.Clicks())
}

func TestShouldSeeBlocks(t *testing.T) {
	p, session := newTestPageComposer(t)
	ctx := context.Background()

	assert.EqualError(t, p.ShouldSeeBlocks(ctx, 1), `Tag with elements "`+blocksSelector+`" not found.`)

	session.Add(browser.CSS(blocksSelector), browsertest.NewElement("li"), browsertest.NewElement("li"))
	require.NoError(t, p.ShouldSeeBlocks(ctx, 2))
	assert.Error(t, p.ShouldSeeBlocks(ctx, 3))
}

// addBlock registers the DOM of one composer block named name with id
func addBlock(session *browsertest.Session, id, name string) (edit, submit *browsertest.Element) {
	edit = browsertest.NewElement("a")
	submit = browsertest.NewElement("button", "type", "submit")
	session.Add(browser.XPath(blockXPath(name)), browsertest.NewElement("li", "data-block-id", id))
	session.Add(browser.XPath(blockEditLinkXPath(name)), edit)
	session.Add(browser.XPath(blockSubmitXPath(name)), submit)
	return edit, submit
}

func TestOpenAndSubmitBlock(t *testing.T) {
	p, session := newTestPageComposer(t)
	ctx := context.Background()
	edit, submit := addBlock(session, "42", "Intro")

	require.NoError(t, p.OpenBlock(ctx, "Intro"))
	require.NoError(t, p.SubmitBlock(ctx, "Intro"))
	assert.Equal(t, 1, edit.Clicks())
	assert.Equal(t, 1, submit.Clicks())

	assert.EqualError(t, p.SubmitBlock(ctx, "Missing"), `Tag with block "Missing" not found.`)
}

func TestGoToTabOfBlock(t *testing.T) {
	p, session := newTestPageComposer(t)
	tab := browsertest.NewElement("a").WithText("Settings")
	session.Add(browser.XPath(blockTabXPath("Intro", "Settings")), tab)

	require.NoError(t, p.GoToTabOfBlock(context.Background(), "Settings", "Intro"))
	assert.Equal(t, 1, tab.Clicks())
}

func TestDeleteBlock(t *testing.T) {
	p, session := newTestPageComposer(t)
	addBlock(session, "42", "Intro")

	deleteSelector := `li.page-composer__container__child[data-block-id="42"] * a.btn-danger`
	deleteButton := browsertest.NewElement("a")
	confirm := browsertest.NewElement("button")
	confirm.SetHidden(true)
	deleteButton.OnClick = func() { confirm.SetHidden(false) }

	session.Add(browser.CSS(deleteSelector), deleteButton)
	session.Add(browser.CSS(dangerButtonSelector), confirm)

	require.NoError(t, p.DeleteBlock(context.Background(), "Intro"))
	assert.Equal(t, 1, deleteButton.Clicks())
	assert.Equal(t, 1, confirm.Clicks())
	assert.Equal(t, []string{scrollIntoViewScript(deleteSelector)}, session.Scripts())
}

func TestRenameBlock(t *testing.T) {
	p, session := newTestPageComposer(t)
	addBlock(session, "42", "Intro")

	input := browsertest.NewElement("input")
	submit := browsertest.NewElement("button", "type", "submit")
	session.Add(browser.CSS(`li[data-block-id="42"] * input.page-composer__container__child__name__input`), input)
	session.Add(browser.CSS(`li[data-block-id="42"] * button[type=submit]`), submit)

	require.NoError(t, p.RenameBlock(context.Background(), "Intro", "Welcome"))
	assert.Equal(t, "Welcome", input.CurrentValue())
	assert.Equal(t, 1, submit.Clicks())
}

func TestBlockOpenedAndClosed(t *testing.T) {
	p, session := newTestPageComposer(t)
	ctx := context.Background()
	addBlock(session, "42", "Intro")

	content := browsertest.NewElement("div")
	content.InnerHTML = `<form method="post"></form>`
	session.Add(browser.CSS(`li.page-composer__container__child[data-block-id="42"] > div.page-composer__container__child__content`), content)
	require.NoError(t, p.BlockShouldBeOpened(ctx, "Intro"))

	child := browsertest.NewElement("li", "class", "page-composer__container__child "+expandedBlockClass)
	session.Add(browser.XPath(blockChildXPath("Intro")), child)
	assert.EqualError(t, p.BlockShouldBeClosed(ctx, "Intro"),
		`The text "`+expandedBlockClass+`" was found in the attribute "class" of the element matching xpath "`+blockChildXPath("Intro")+`".`)

	child.Attrs["class"] = "page-composer__container__child"
	require.NoError(t, p.BlockShouldBeClosed(ctx, "Intro"))
}

func TestBlockXPath(t *testing.T) {
	assert.Equal(t,
		`//li[@data-block-id and contains(string(.), 'Intro') and not(.//li[@data-block-id and contains(string(.), 'Intro')])]`,
		blockXPath("Intro"))
	assert.Equal(t,
		`//li[contains(concat(' ', normalize-space(@class), ' '), ' page-composer__container__child ') and contains(string(.), 'Intro')]/a[contains(concat(' ', normalize-space(@class), ' '), ' page-composer__container__child__edit ')]`,
		blockEditLinkXPath("Intro"))
}
