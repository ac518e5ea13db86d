package steps

import (
	"context"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/ternarybob/behat-helpers/internal/common"
)

// TagRestoreDB snapshots the database before the scenario and restores it afterwards
const TagRestoreDB = "behat_helpers_restore_db"

// DatabaseDumper saves the database to a file and loads it back
type DatabaseDumper interface {
	Dump(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}

// ReloadDatabase restores the database state touched by a tagged scenario
type ReloadDatabase struct {
	*Context
	dumper   DatabaseDumper
	cacheDir string

	databaseDump string
}

// NewReloadDatabase writes dumps into cacheDir
func NewReloadDatabase(c *Context, dumper DatabaseDumper, cacheDir string) *ReloadDatabase {
	return &ReloadDatabase{Context: c, dumper: dumper, cacheDir: cacheDir}
}

func (r *ReloadDatabase) Register(sc *godog.ScenarioContext) {
	sc.Before(r.DumpDatabaseBeforeScenario)
	sc.After(r.RestoreDatabaseAfterScenario)
}

// DumpDatabaseBeforeScenario dumps to <cache dir>/<scenario slug>.sql
func (r *ReloadDatabase) DumpDatabaseBeforeScenario(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	r.databaseDump = ""
	if !hasTag(TagsOf(sc), TagRestoreDB) {
		return ctx, nil
	}

	path := filepath.Join(r.cacheDir, common.Slugify(sc.Name)+".sql")
	if err := r.dumper.Dump(ctx, path); err != nil {
		return ctx, err
	}
	r.databaseDump = path
	return ctx, nil
}

// RestoreDatabaseAfterScenario loads the dump taken before the scenario, whatever its result
func (r *ReloadDatabase) RestoreDatabaseAfterScenario(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	if r.databaseDump == "" {
		return ctx, nil
	}
	path := r.databaseDump
	r.databaseDump = ""
	return ctx, r.dumper.Restore(ctx, path)
}
