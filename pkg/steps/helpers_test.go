package steps

import (
	"testing"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/behat-helpers/pkg/browser/browsertest"
)

// newTestContext returns a context on a fresh fake session with fast polling
func newTestContext(t *testing.T) (*Context, *browsertest.Session) {
	t.Helper()
	session := browsertest.NewSession()
	c := NewContext(session, arbor.NewLogger()).WithWait(5*time.Millisecond, 200*time.Millisecond)
	c.SetParameter(ParameterBaseURL, "http://localhost:8000")
	return c, session
}

func newScenario(name string, tags ...string) *godog.Scenario {
	pickleTags := make([]*messages.PickleTag, 0, len(tags))
	for _, tag := range tags {
		pickleTags = append(pickleTags, &messages.PickleTag{Name: "@" + tag})
	}
	return &godog.Scenario{Id: name, Name: name, Uri: "features/" + name + ".feature", Tags: pickleTags}
}
