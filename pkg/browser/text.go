package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageText returns the text of the document body with whitespace collapsed,
// which is what a reader sees and what text assertions compare against.
func PageText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}

	body := doc.Find("body")
	body.Find("script, style, noscript, template").Remove()

	return strings.Join(strings.Fields(body.Text()), " "), nil
}

// PageContains reports whether the current page text contains text.
// Comparison is case-insensitive and whitespace-normalized.
func PageContains(ctx context.Context, s Session, text string) (bool, error) {
	content, err := s.Content(ctx)
	if err != nil {
		return false, err
	}
	pageText, err := PageText(content)
	if err != nil {
		return false, err
	}
	needle := strings.Join(strings.Fields(text), " ")
	return strings.Contains(strings.ToLower(pageText), strings.ToLower(needle)), nil
}

// PageNotContains is the negation of PageContains
func PageNotContains(ctx context.Context, s Session, text string) (bool, error) {
	contains, err := PageContains(ctx, s, text)
	return !contains, err
}
