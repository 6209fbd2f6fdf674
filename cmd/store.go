package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/store"
)

// initStore opens the configured plan store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}
