package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/behat-helpers/pkg/browser"
)

const formPage = `<html><body>
<form>
  <input id="title" name="title">
  <select id="status"><option value="d">Draft</option><option value="p">Published</option></select>
  <input id="featured" type="checkbox">
  <div id="hidden" style="display:none">secret</div>
  <p id="changes">0</p>
</form>
<script>
  let changes = 0;
  document.querySelectorAll('input, select').forEach(el => el.addEventListener('change', () => {
    document.getElementById('changes').textContent = String(++changes);
  }));
</script>
</body></html>`

// startChrome launches a headless browser, skipping when none is installed
func startChrome(t *testing.T) *browser.Chrome {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary on PATH")
	}

	chrome, err := browser.NewChrome(context.Background(), browser.ChromeOptions{
		Headless:      true,
		DisableGPU:    true,
		NoSandbox:     true,
		ActionTimeout: 10 * time.Second,
	}, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { chrome.Close() })
	return chrome
}

func TestChromeElementValueAndVisibility(t *testing.T) {
	chrome := startChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, formPage)
	}))
	defer server.Close()

	ctx := context.Background()
	require.NoError(t, chrome.Visit(ctx, server.URL))

	find := func(sel browser.Selector) browser.Element {
		t.Helper()
		el, err := chrome.Find(ctx, sel)
		require.NoError(t, err)
		require.NotNil(t, el, sel.String())
		return el
	}

	title := find(browser.CSS("#title"))
	require.NoError(t, title.SetValue(ctx, "Release notes"))
	var value string
	require.NoError(t, chrome.Evaluate(ctx, `document.getElementById('title').value`, &value))
	assert.Equal(t, "Release notes", value)

	// Options match by label as well as by value
	require.NoError(t, find(browser.CSS("#status")).SetValue(ctx, "Published"))
	require.NoError(t, chrome.Evaluate(ctx, `document.getElementById('status').value`, &value))
	assert.Equal(t, "p", value)

	require.NoError(t, find(browser.XPath(`//input[@id='featured']`)).SetValue(ctx, "1"))
	var checked bool
	require.NoError(t, chrome.Evaluate(ctx, `document.getElementById('featured').checked`, &checked))
	assert.True(t, checked)

	changes, err := find(browser.CSS("#changes")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", changes)

	visible, err := title.Visible(ctx)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = find(browser.CSS("#hidden")).Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)
}
