// Package browsertest provides an in-memory browser.Session for step tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/behat-helpers/pkg/browser"
)

// Session is a scripted browser.Session. Elements are registered per selector
// string; nothing is parsed, so tests say exactly what a query returns.
type Session struct {
	mu sync.RWMutex

	url      string
	html     string
	pages    map[string]string
	elements map[browser.Selector][]*Element

	cookies    []browser.Cookie
	screenshot []byte

	visits    []string
	scripts   []string
	maximized int

	// EvaluateFunc answers Evaluate calls; nil leaves res untouched
	EvaluateFunc func(script string, res any) error
	// ExecuteFunc observes Execute calls after they are recorded
	ExecuteFunc func(script string) error
}

// NewSession creates an empty session on about:blank
func NewSession() *Session {
	return &Session{
		url:        "about:blank",
		pages:      make(map[string]string),
		elements:   make(map[browser.Selector][]*Element),
		screenshot: []byte("\x89PNG fake"),
	}
}

// SetPage makes Visit(url) load html
func (s *Session) SetPage(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

// SetContent replaces the current document
func (s *Session) SetContent(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
}

// Add registers elements returned by queries for sel
func (s *Session) Add(sel browser.Selector, elements ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[sel] = append(s.elements[sel], elements...)
}

// Remove forgets every element registered for sel
func (s *Session) Remove(sel browser.Selector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, sel)
}

// Visits returns the visited URLs in order
func (s *Session) Visits() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.visits...)
}

// Scripts returns the executed scripts in order
func (s *Session) Scripts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.scripts...)
}

// Maximized reports how many times the window was maximized
func (s *Session) Maximized() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maximized
}

// SetScreenshot sets the bytes returned by Screenshot
func (s *Session) SetScreenshot(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenshot = data
}

func (s *Session) Visit(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	s.visits = append(s.visits, url)
	if html, ok := s.pages[url]; ok {
		s.html = html
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url, nil
}

func (s *Session) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	elements, err := s.FindAll(ctx, sel)
	if err != nil || len(elements) == 0 {
		return nil, err
	}
	return elements[0], nil
}

func (s *Session) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	registered := s.elements[sel]
	elements := make([]browser.Element, 0, len(registered))
	for _, el := range registered {
		elements = append(elements, el)
	}
	return elements, nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html, nil
}

func (s *Session) Execute(ctx context.Context, script string) error {
	s.mu.Lock()
	s.scripts = append(s.scripts, script)
	fn := s.ExecuteFunc
	s.mu.Unlock()
	if fn != nil {
		return fn(script)
	}
	return nil
}

func (s *Session) Evaluate(ctx context.Context, script string, res any) error {
	s.mu.Lock()
	s.scripts = append(s.scripts, script)
	fn := s.EvaluateFunc
	s.mu.Unlock()
	if fn != nil {
		return fn(script, res)
	}
	return nil
}

func (s *Session) MaximizeWindow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maximized++
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.screenshot...), nil
}

func (s *Session) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]browser.Cookie(nil), s.cookies...), nil
}

func (s *Session) SetCookie(ctx context.Context, cookie browser.Cookie) error {
	if cookie.Name == "" {
		return errors.New("cookie name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.cookies {
		if existing.Name == cookie.Name && existing.Domain == cookie.Domain && existing.Path == cookie.Path {
			s.cookies[i] = cookie
			return nil
		}
	}
	s.cookies = append(s.cookies, cookie)
	return nil
}

func (s *Session) DeleteAllCookies(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}

// Plain hides the optional capabilities of s, leaving a bare browser.Session
func Plain(s browser.Session) browser.Session {
	return struct{ browser.Session }{s}
}

// Element is a scripted DOM node
type Element struct {
	mu sync.Mutex

	Tag       string
	Attrs     map[string]string
	InnerHTML string
	InnerText string
	Hidden    bool
	Value     string

	clicks int
	// OnClick runs after each click or press
	OnClick func()
}

// NewElement creates a visible element with the given attributes as name/value pairs
func NewElement(tag string, attrs ...string) *Element {
	el := &Element{Tag: tag, Attrs: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Attrs[attrs[i]] = attrs[i+1]
	}
	return el
}

// WithText sets both inner text and inner HTML to text
func (e *Element) WithText(text string) *Element {
	e.InnerText = text
	e.InnerHTML = text
	return e
}

// SetHidden toggles visibility
func (e *Element) SetHidden(hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Hidden = hidden
}

// Clicks returns how many times the element was clicked or pressed
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// CurrentValue returns the last value set on the element
func (e *Element) CurrentValue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Value
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if e.Hidden {
		e.mu.Unlock()
		return fmt.Errorf("element %s is not visible", e.describe())
	}
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *Element) Press(ctx context.Context) error {
	return e.Click(ctx)
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Value = value
	return nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.Attrs[name]
	return value, ok, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Hidden, nil
}

func (e *Element) HTML(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.InnerHTML, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.InnerText, nil
}

func (e *Element) describe() string {
	parts := []string{e.Tag}
	if id, ok := e.Attrs["id"]; ok {
		parts = append(parts, "#"+id)
	}
	return strings.Join(parts, "")
}
