package providers

import (
	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the relational store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlstore.Open(sqlstore.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Logger:       log.Logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == sqlstore.DriverSQLite {
		log.Info("Database initialized", "driver", cfg.Database.Driver, "path", cfg.Database.DSN)
	} else {
		log.Info("Database initialized", "driver", cfg.Database.Driver)
	}

	return &StoreHandle{Store: db}, nil
}
