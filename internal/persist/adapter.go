package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/docktile/internal/layout"
)

// Adapter saves and loads snapshots under one storage key.
type Adapter struct {
	store Store
	codec Codec
	key   string
}

// NewAdapter returns an adapter writing with codec under key. Empty key
// means DefaultKey; nil codec means JSON.
func NewAdapter(store Store, codec Codec, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Adapter{store: store, codec: codec, key: key}
}

// Key returns the storage key.
func (a *Adapter) Key() string { return a.key }

// Codec returns the codec used for writes.
func (a *Adapter) Codec() Codec { return a.codec }

// Encode serializes snap with the adapter's codec.
func (a *Adapter) Encode(snap layout.Snapshot) ([]byte, error) {
	data, err := a.codec.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// Save encodes and stores snap.
func (a *Adapter) Save(ctx context.Context, snap layout.Snapshot) error {
	data, err := a.Encode(snap)
	if err != nil {
		return err
	}
	return a.store.Put(ctx, a.key, data)
}

// Load returns the stored snapshot. found is false on first run. Blobs
// written by either codec decode regardless of the configured one.
func (a *Adapter) Load(ctx context.Context) (snap layout.Snapshot, found bool, err error) {
	data, err := a.store.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return layout.Snapshot{}, false, nil
	}
	if err != nil {
		return layout.Snapshot{}, false, err
	}
	if err := sniff(data).Unmarshal(data, &snap); err != nil {
		return layout.Snapshot{}, true, fmt.Errorf("decode layout %q: %w", a.key, err)
	}
	return snap, true, nil
}

// Clear removes the stored snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	err := a.store.Delete(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Source says where a rehydrated workspace came from.
type Source string

const (
	SourceStored   Source = "stored"
	SourceDefault  Source = "default"
	SourceFallback Source = "fallback"
)

// Report describes a rehydration.
type Report struct {
	Source  Source
	Dropped int
	Err     error
}

// Rehydrate restores the stored workspace. Views unknown to known are
// dropped. When nothing is stored, or the blob cannot be decoded or
// rebuilt, the workspace is built from fallback instead and the failure is
// recorded in the report.
func Rehydrate(ctx context.Context, a *Adapter, known func(string) bool, fallback func() layout.Node, opts ...layout.Option) (*layout.Workspace, Report) {
	snap, found, err := a.Load(ctx)
	if err == nil && found {
		ws, dropped, rerr := layout.Restore(snap, known, opts...)
		if rerr == nil {
			return ws, Report{Source: SourceStored, Dropped: dropped}
		}
		err = fmt.Errorf("restore layout: %w", rerr)
	}
	var root layout.Node
	if fallback != nil {
		root = fallback()
	}
	ws := layout.New(root, opts...)
	if err != nil {
		return ws, Report{Source: SourceFallback, Err: err}
	}
	return ws, Report{Source: SourceDefault}
}
