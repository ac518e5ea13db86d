package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/pkg/browser"
)

const (
	blockTypeSelectorButton = "div.page-composer__block-type-selector button"
	blockSelectModal        = "blockSelectModal"
	blocksSelector          = "div.page-composer__container__view > ul.page-composer__container__children > li"
	dangerButtonSelector    = "button.btn-danger"
	expandedBlockClass      = "page-composer__container__child--expanded"
)

// PageComposer holds steps for the Sonata page composer: containers and their blocks
type PageComposer struct {
	*Context
	admin *Admin
}

// NewPageComposer creates the page composer step set on top of the admin helpers
func NewPageComposer(c *Context, admin *Admin) *PageComposer {
	return &PageComposer{Context: c, admin: admin}
}

func (p *PageComposer) Register(sc *godog.ScenarioContext) {
	sc.Step(`^I open the container by text "([^"]*)"$`, p.OpenContainerByText)
	sc.Step(`^I add the block "([^"]*)" with the name "([^"]*)"$`, p.AddBlockWithName)
	sc.Step(`^I go to the tab "([^"]*)" of the block "([^"]*)"$`, p.GoToTabOfBlock)
	sc.Step(`^I should see (\d+) blocks$`, p.ShouldSeeBlocks)
	sc.Step(`^I open the block "([^"]*)"$`, p.OpenBlock)
	sc.Step(`^I submit the block "([^"]*)"$`, p.SubmitBlock)
	sc.Step(`^I delete the block "([^"]*)"$`, p.DeleteBlock)
	sc.Step(`^I rename the block "([^"]*)" with "([^"]*)"$`, p.RenameBlock)
	sc.Step(`^The block "([^"]*)" should be opened$`, p.BlockShouldBeOpened)
	sc.Step(`^The block "([^"]*)" should be closed$`, p.BlockShouldBeClosed)
}

func (p *PageComposer) OpenContainerByText(ctx context.Context, text string) error {
	return p.click(ctx, browser.XPath(containerLinkXPath(text)), browser.NotFound("", "text", text))
}

// AddBlockWithName picks the block type in the selector modal and names the new block
func (p *PageComposer) AddBlockWithName(ctx context.Context, blockType, name string) error {
	if err := p.waitVisible(ctx, browser.CSS(blockTypeSelectorButton), 2*time.Second); err != nil {
		return err
	}
	if err := p.admin.ClickingOnElementShouldOpenPopin(ctx, blockTypeSelectorButton, blockSelectModal); err != nil {
		return err
	}

	blockLink := browser.XPath(blockSelectLinkXPath(blockType))
	if err := p.waitVisible(ctx, blockLink, 2*time.Second); err != nil {
		return err
	}
	if err := p.click(ctx, blockLink, browser.NotFound("", "block", blockType)); err != nil {
		return err
	}
	if err := p.admin.PopinShouldBeClosed(ctx, blockSelectModal); err != nil {
		return err
	}

	input := browser.XPath(childNameInputXPath(blockType))
	if err := p.waitVisible(ctx, input, 2*time.Second); err != nil {
		return err
	}
	el, err := p.Session().Find(ctx, input)
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "input", blockType)
	}
	return el.SetValue(ctx, name)
}

func (p *PageComposer) GoToTabOfBlock(ctx context.Context, tab, block string) error {
	return p.click(ctx, browser.XPath(blockTabXPath(block, tab)), browser.NotFound("", "tab", tab))
}

func (p *PageComposer) ShouldSeeBlocks(ctx context.Context, num int) error {
	el, err := p.Session().Find(ctx, browser.CSS(blocksSelector))
	if err != nil {
		return err
	}
	if el == nil {
		return browser.NotFound("", "elements", blocksSelector)
	}
	return p.AssertNumElements(ctx, num, blocksSelector)
}

// OpenBlock clicks the edit link of the named block
func (p *PageComposer) OpenBlock(ctx context.Context, name string) error {
	edit := browser.XPath(blockEditLinkXPath(name))
	if err := p.waitVisible(ctx, edit, 2*time.Second); err != nil {
		return err
	}
	return p.click(ctx, edit, browser.NotFound("", "block", name))
}

func (p *PageComposer) SubmitBlock(ctx context.Context, name string) error {
	button, err := p.Session().Find(ctx, browser.XPath(blockSubmitXPath(name)))
	if err != nil {
		return err
	}
	if button == nil {
		return browser.NotFound("", "block", name)
	}
	return button.Press(ctx)
}

// DeleteBlock opens the block, presses its delete button and confirms
func (p *PageComposer) DeleteBlock(ctx context.Context, name string) error {
	id, err := p.blockID(ctx, name)
	if err != nil {
		return err
	}
	if err := p.OpenBlock(ctx, name); err != nil {
		return err
	}

	deleteSelector := fmt.Sprintf(`li.page-composer__container__child[data-block-id="%s"] * a.btn-danger`, id)
	if err := p.waitVisible(ctx, browser.CSS(deleteSelector), time.Second); err != nil {
		return err
	}
	button, err := p.Session().Find(ctx, browser.CSS(deleteSelector))
	if err != nil {
		return err
	}
	if button == nil {
		return browser.NotFound("", "button", deleteSelector)
	}
	if err := p.Session().Execute(ctx, scrollIntoViewScript(deleteSelector)); err != nil {
		return err
	}
	if err := button.Press(ctx); err != nil {
		return err
	}

	if err := p.waitVisible(ctx, browser.CSS(dangerButtonSelector), time.Second); err != nil {
		return err
	}
	return p.click(ctx, browser.CSS(dangerButtonSelector), browser.NotFound("", "button", dangerButtonSelector))
}

// RenameBlock opens the block, types the new name and submits
func (p *PageComposer) RenameBlock(ctx context.Context, oldName, newName string) error {
	if err := p.OpenBlock(ctx, oldName); err != nil {
		return err
	}
	id, err := p.blockID(ctx, oldName)
	if err != nil {
		return err
	}

	inputSelector := fmt.Sprintf(`li[data-block-id="%s"] * input.page-composer__container__child__name__input`, id)
	if err := p.waitVisible(ctx, browser.CSS(inputSelector), 2*time.Second); err != nil {
		return err
	}
	input, err := p.Session().Find(ctx, browser.CSS(inputSelector))
	if err != nil {
		return err
	}
	if input == nil {
		return browser.NotFound("", "input", oldName)
	}
	if err := input.SetValue(ctx, newName); err != nil {
		return err
	}

	submit, err := p.Session().Find(ctx, browser.CSS(fmt.Sprintf(`li[data-block-id="%s"] * button[type=submit]`, id)))
	if err != nil {
		return err
	}
	if submit == nil {
		return browser.NotFound("", "block", oldName)
	}
	return submit.Press(ctx)
}

// BlockShouldBeOpened checks the block content holds its edit form
func (p *PageComposer) BlockShouldBeOpened(ctx context.Context, name string) error {
	id, err := p.blockID(ctx, name)
	if err != nil {
		return err
	}
	content := fmt.Sprintf(`li.page-composer__container__child[data-block-id="%s"] > div.page-composer__container__child__content`, id)
	return p.ElementContains(ctx, content, "form")
}

// BlockShouldBeClosed checks the block is shown without the expanded class
func (p *PageComposer) BlockShouldBeClosed(ctx context.Context, name string) error {
	child := browser.XPath(blockChildXPath(name))
	if err := p.waitVisible(ctx, child, 2*time.Second); err != nil {
		return err
	}
	return p.attributeNotContains(ctx, child, "class", expandedBlockClass)
}

// blockID reads data-block-id of the innermost block containing name
func (p *PageComposer) blockID(ctx context.Context, name string) (string, error) {
	block, err := p.Session().Find(ctx, browser.XPath(blockXPath(name)))
	if err != nil {
		return "", err
	}
	if block == nil {
		return "", browser.NotFound("", "block", name)
	}
	id, _, err := block.Attribute(ctx, "data-block-id")
	return id, err
}

func (p *PageComposer) click(ctx context.Context, sel browser.Selector, notFound error) error {
	el, err := p.Session().Find(ctx, sel)
	if err != nil {
		return err
	}
	if el == nil {
		return notFound
	}
	return el.Click(ctx)
}

func containerLinkXPath(text string) string {
	return fmt.Sprintf(`//div[%s]//a[%s]`, hasClass("page-composer__page-preview"), containsText(text))
}

func blockSelectLinkXPath(blockType string) string {
	return fmt.Sprintf(`//a[%s and %s]`, hasClass("BlockSelectModal_SelectLink"), containsText(blockType))
}

func blockChildXPath(name string) string {
	return fmt.Sprintf(`//li[%s and %s]`, hasClass("page-composer__container__child"), containsText(name))
}

func childNameInputXPath(name string) string {
	return blockChildXPath(name) + fmt.Sprintf(`/*//input[%s]`, hasClass("page-composer__container__child__name__input"))
}

func blockTabXPath(block, tab string) string {
	return blockChildXPath(block) + fmt.Sprintf(`/*//a[%s]`, containsText(tab))
}

func blockEditLinkXPath(name string) string {
	return blockChildXPath(name) + fmt.Sprintf(`/a[%s]`, hasClass("page-composer__container__child__edit"))
}

func blockSubmitXPath(name string) string {
	return blockChildXPath(name) + `/*//button[@type='submit']`
}

func blockXPath(name string) string {
	match := fmt.Sprintf(`@data-block-id and %s`, containsText(name))
	return fmt.Sprintf(`//li[%s and not(.//li[%s])]`, match, match)
}

func scrollIntoViewScript(selector string) string {
	return fmt.Sprintf(`(function(){var el=document.querySelector(%q);if(el){el.scrollIntoView({block:'center'});}})();`, selector)
}
