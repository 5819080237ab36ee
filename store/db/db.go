// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/internal/profile"
	"github.com/clinsense/clinsense/store"
	"github.com/clinsense/clinsense/store/db/postgres"
	"github.com/clinsense/clinsense/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", profile.Driver)
	}
}
