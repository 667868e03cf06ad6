package main

import (
	"fmt"

	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/store"
)

// openStorage returns the alarm storage for cfg. The SQL store is also
// returned for the sqlite and postgres drivers so todos can share it.
func openStorage(cfg models.StorageConfig, prefs *store.PrefsStore) (alarm.Storage, *store.SQLStore, error) {
	switch cfg.Driver {
	case models.StorageDriverPrefs, "":
		if prefs == nil {
			return nil, nil, fmt.Errorf("storage driver %q needs the desktop app", models.StorageDriverPrefs)
		}
		return prefs, nil, nil
	case models.StorageDriverMemory:
		return store.NewMemoryStore(), nil, nil
	case models.StorageDriverSQLite, models.StorageDriverPostgres:
		dsn := cfg.DSN
		if dsn == "" && cfg.Driver == models.StorageDriverSQLite {
			dsn = models.DefaultDataPath()
		}
		if dsn == "" {
			return nil, nil, fmt.Errorf("storage driver %q needs a dsn", cfg.Driver)
		}
		s, err := store.NewSQLStore(cfg.Driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
