package steps

import (
	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/internal/router"
)

// RouterLocator lets steps name routes instead of paths: "admin_user_edit;id=12&foo=bar"
type RouterLocator struct {
	*Context
	routes *router.Table
}

// NewRouterLocator builds a locator over routes (name -> pattern)
func NewRouterLocator(c *Context, routes map[string]string) *RouterLocator {
	return &RouterLocator{Context: c, routes: router.NewTable(routes)}
}

// Register plugs the locator into the context; it adds no steps
func (l *RouterLocator) Register(sc *godog.ScenarioContext) {
	l.SetLocator(l)
}

// LocatePath generates the route when the table knows it, keeps the path
// otherwise, then resolves it against the base URL
func (l *RouterLocator) LocatePath(path string) string {
	located := l.BaseLocatePath(l.routes.Locate(path))

	l.Logger().Info().Str("path", path).Str("url", located).Msg("Located path")
	return located
}
