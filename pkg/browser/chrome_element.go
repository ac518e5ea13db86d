package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	visibleFunction = `function() {
	if (!this.isConnected) { return false; }
	const style = window.getComputedStyle(this);
	if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') { return false; }
	return !!(this.offsetWidth || this.offsetHeight || this.getClientRects().length);
}`

	setValueFunction = `function(value) {
	if (this.tagName === 'SELECT') {
		for (const option of this.options) {
			if (option.value === value || option.text.trim() === value) { option.selected = true; break; }
		}
	} else if (this.type === 'checkbox' || this.type === 'radio') {
		this.checked = value !== '' && value !== '0' && value !== 'false';
	} else {
		this.value = value;
	}
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`
)

type chromeElement struct {
	session *Chrome
	node    *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// callFunction runs function with this bound to the element
func (e *chromeElement) callFunction(ctx context.Context, function string, res any, args ...any) error {
	return e.session.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		object, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		// Release fails after a navigation; the error is ignored
		defer runtime.ReleaseObject(object.ObjectID).Do(ctx)

		return chromedp.CallFunctionOn(function, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(object.ObjectID)
			},
			args...,
		).Do(ctx)
	}))
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := e.session.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("failed to click %s: %w", e.node.LocalName, err)
	}
	return nil
}

func (e *chromeElement) Press(ctx context.Context) error {
	return e.Click(ctx)
}

func (e *chromeElement) SetValue(ctx context.Context, value string) error {
	if err := e.callFunction(ctx, setValueFunction, nil, value); err != nil {
		return fmt.Errorf("failed to set value on %s: %w", e.node.LocalName, err)
	}
	return nil
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var value string
	var ok bool
	if err := e.session.run(ctx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return value, ok, nil
}

func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	var visible bool
	if err := e.callFunction(ctx, visibleFunction, &visible); err != nil {
		return false, fmt.Errorf("failed to check visibility: %w", err)
	}
	return visible, nil
}

func (e *chromeElement) HTML(ctx context.Context) (string, error) {
	var html string
	if err := e.session.run(ctx, chromedp.InnerHTML(e.ids(), &html, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read inner html: %w", err)
	}
	return html, nil
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.session.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}
