package main

import (
	"fmt"
	"os"

	"github.com/voxelforge/voxwfc/stamp"
	"github.com/voxelforge/voxwfc/storage"
	"github.com/voxelforge/voxwfc/vox"
)

// worldFile is the on-disk form of a store: every stored chunk's snapshot.
type worldFile struct {
	Chunks []storage.ChunkSnapshot
}

func saveWorld(path string, store *storage.Store) error {
	var wf worldFile
	for _, cp := range store.ChunkPoints() {
		snapshot, err := store.Snapshot(cp)
		if err != nil {
			return err
		}
		wf.Chunks = append(wf.Chunks, snapshot)
	}
	return saveSerialized(path, wf)
}

func loadWorld(path string, store *storage.Store) error {
	var wf worldFile
	if err := loadSerialized(path, &wf); err != nil {
		return err
	}
	for _, snapshot := range wf.Chunks {
		if err := store.Restore(snapshot); err != nil {
			return err
		}
	}
	return nil
}

func saveLibrary(path string, lib *stamp.Library) error {
	return saveSerialized(path, lib.Snapshot())
}

func loadLibrary(path string) (*stamp.Library, error) {
	var snapshot stamp.Snapshot
	if err := loadSerialized(path, &snapshot); err != nil {
		return nil, err
	}
	return stamp.FromSnapshot(snapshot)
}

func saveSerialized(path string, object interface{}) error {
	data, err := vox.Serialize(object, config.ChunkCompression(), config.ChunkChecksum())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}
	return nil
}

func loadSerialized(path string, object interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %v", path, err)
	}
	return vox.Deserialize(data, object)
}
