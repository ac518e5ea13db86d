// Package browser is the thin driver layer the step sets talk to: a Session over
// the remote browser, Elements inside the current document, and the polling
// helpers used to wait for the page to settle.
package browser

import (
	"context"
	"fmt"
)

// SelectorKind is the query language of a Selector
type SelectorKind string

const (
	KindCSS   SelectorKind = "css"
	KindXPath SelectorKind = "xpath"
)

// Selector locates nodes in the current document
type Selector struct {
	Kind  SelectorKind
	Value string
}

// CSS builds a CSS selector
func CSS(value string) Selector {
	return Selector{Kind: KindCSS, Value: value}
}

// XPath builds an XPath selector
func XPath(value string) Selector {
	return Selector{Kind: KindXPath, Value: value}
}

func (s Selector) String() string {
	return fmt.Sprintf("%s %q", s.Kind, s.Value)
}

// Element is a handle on a DOM node of the current page
type Element interface {
	Click(ctx context.Context) error
	// Press activates a button. Drivers without a distinct press treat it as a click.
	Press(ctx context.Context) error
	SetValue(ctx context.Context, value string) error
	// Attribute returns the attribute value and whether it is present
	Attribute(ctx context.Context, name string) (string, bool, error)
	Visible(ctx context.Context) (bool, error)
	// HTML returns the inner HTML
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
}

// Session drives one browser tab
type Session interface {
	Visit(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// Find returns the first match, or nil without error when nothing matches
	Find(ctx context.Context, sel Selector) (Element, error)
	FindAll(ctx context.Context, sel Selector) ([]Element, error)
	// Content returns the full HTML of the current document
	Content(ctx context.Context) (string, error)
	Execute(ctx context.Context, script string) error
	Evaluate(ctx context.Context, script string, res any) error
	MaximizeWindow(ctx context.Context) error
}

// Cookie is a browser cookie as exchanged with the driver
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // Seconds since epoch, <= 0 for session cookies
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site"`
}

// CookieJar is implemented by sessions that can read and write cookies
type CookieJar interface {
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookie(ctx context.Context, cookie Cookie) error
	DeleteAllCookies(ctx context.Context) error
}

// Snapshotter is implemented by sessions that can capture the rendered page
type Snapshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// RequireCookieJar returns the session as a CookieJar or ErrDriverUnsupported
func RequireCookieJar(s Session) (CookieJar, error) {
	jar, ok := s.(CookieJar)
	if !ok {
		return nil, fmt.Errorf("%w: saving cookies only works with a cookie capable driver, got %T", ErrDriverUnsupported, s)
	}
	return jar, nil
}
