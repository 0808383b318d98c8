/*
Package storage provides the pluggable storage abstraction for saved panels.

# Store Interface

A panel is a titled list of Graphite targets, the unit a dashboard saves.
Targets reference each other by ref id (#A, #B), so a panel is always stored
and loaded as a whole.

Backends:
  - memory: map backed store for tests and ephemeral servers
  - badger: BadgerDB (LSM tree + Snappy compression) for persistent storage

All backends implement the Store interface:

	type Store interface {
	    Save(ctx context.Context, panel *Panel) error
	    Get(ctx context.Context, id string) (*Panel, error)
	    List(ctx context.Context) ([]*Panel, error)
	    Delete(ctx context.Context, id string) error
	    Stats(ctx context.Context) (*Stats, error)
	    Close() error
	}

Get and Delete return ErrNotFound for unknown ids. Panels handed out are
copies; changing them does not change the store.

# Usage Example

	store, err := badger.New(badger.Config{Path: "./data"})
	if err != nil {
	    return err
	}
	defer store.Close()

	err = store.Save(ctx, &storage.Panel{
	    ID:    "cpu",
	    Title: "CPU",
	    Targets: []model.Target{
	        {RefID: "A", Target: "servers.*.cpu.user"},
	        {RefID: "B", Target: "sumSeries(#A)"},
	    },
	})
*/
package storage
