package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/behat-helpers/pkg/browser"
	"github.com/ternarybob/behat-helpers/pkg/browser/browsertest"
)

func TestBaseLocatePath(t *testing.T) {
	c, _ := newTestContext(t)

	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"relative path", "http://localhost:8000", "admin/dashboard", "http://localhost:8000/admin/dashboard"},
		{"slashes trimmed", "http://localhost:8000/", "/admin", "http://localhost:8000/admin"},
		{"absolute url kept", "http://localhost:8000", "https://example.com/x", "https://example.com/x"},
		{"root", "http://localhost:8000", "/", "http://localhost:8000/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetParameter(ParameterBaseURL, tt.base)
			assert.Equal(t, tt.want, c.LocatePath(tt.path))
		})
	}
}

type prefixLocator struct{}

func (prefixLocator) LocatePath(path string) string { return "located:" + path }

func TestLocatePathUsesPluggedLocator(t *testing.T) {
	c, session := newTestContext(t)
	c.SetLocator(prefixLocator{})

	require.NoError(t, c.VisitPath(context.Background(), "home"))
	assert.Equal(t, []string{"located:home"}, session.Visits())
}

func TestTags(t *testing.T) {
	c, _ := newTestContext(t)
	sc := newScenario("tagged", "javascript", TagNoCache)

	assert.Equal(t, []string{"javascript", TagNoCache}, TagsOf(sc))
	assert.Nil(t, TagsOf(nil))

	c.SetTags(TagsOf(sc))
	assert.True(t, c.HasTag(TagNoCache))
	assert.False(t, c.HasTag(TagResetCache))
}

func TestFixStepArgument(t *testing.T) {
	assert.Equal(t, `a "quoted" value`, FixStepArgument(`a \"quoted\" value`))
}

func TestFillFieldAndPressButton(t *testing.T) {
	c, session := newTestContext(t)
	ctx := context.Background()

	username := browsertest.NewElement("input", "name", "_username")
	session.Add(browser.XPath(fieldXPath("_username")), username)
	button := browsertest.NewElement("button").WithText("Connexion")
	session.Add(browser.XPath(buttonXPath("Connexion")), button)

	require.NoError(t, c.FillField(ctx, "_username", "admin"))
	assert.Equal(t, "admin", username.CurrentValue())

	require.NoError(t, c.PressButton(ctx, "Connexion"))
	assert.Equal(t, 1, button.Clicks())

	err := c.FillField(ctx, "_password", "secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrElementNotFound))
	assert.Equal(t, `Form field with id|name|label|value|placeholder "_password" not found.`, err.Error())

	err = c.PressButton(ctx, "Save")
	assert.Equal(t, `Button with id|name|title|alt|value "Save" not found.`, err.Error())
}

func TestAssertNumElements(t *testing.T) {
	c, session := newTestContext(t)
	ctx := context.Background()
	session.Add(browser.CSS("li"), browsertest.NewElement("li"), browsertest.NewElement("li"))

	require.NoError(t, c.AssertNumElements(ctx, 2, "li"))

	err := c.AssertNumElements(ctx, 3, "li")
	assert.Equal(t, `2 elements matching css "li" found on the page, but should be 3.`, err.Error())
}

func TestElementAssertions(t *testing.T) {
	c, session := newTestContext(t)
	ctx := context.Background()

	block := browsertest.NewElement("div", "class", "block block--closed")
	block.InnerHTML = `<form name="block"></form>`
	session.Add(browser.CSS(".block"), block)

	require.NoError(t, c.ElementContains(ctx, ".block", "form"))
	err := c.ElementContains(ctx, ".block", "table")
	assert.Equal(t, `The string "table" was not found in the HTML of the element matching css ".block".`, err.Error())

	require.NoError(t, c.ElementAttributeExists(ctx, ".block", "class"))
	err = c.ElementAttributeExists(ctx, ".block", "data-id")
	assert.Equal(t, `The attribute "data-id" was not found in the element matching css ".block".`, err.Error())

	require.NoError(t, c.ElementAttributeNotContains(ctx, ".block", "class", "expanded"))
	err = c.ElementAttributeNotContains(ctx, ".block", "class", "closed")
	assert.Equal(t, `The text "closed" was found in the attribute "class" of the element matching css ".block".`, err.Error())

	err = c.ElementContains(ctx, ".missing", "x")
	assert.Equal(t, `Element matching css ".missing" not found.`, err.Error())
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'plain'`, xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('say "it', "'", 's"')`, xpathLiteral(`say "it's"`))
}
