package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxelforge/voxwfc/grid"
	"github.com/voxelforge/voxwfc/stamp"
	"github.com/voxelforge/voxwfc/storage"
	"github.com/voxelforge/voxwfc/vox"
	"github.com/voxelforge/voxwfc/wfc"
)

var (
	buildExample string
	buildOut     string
	buildMin     []int32
	buildSize    []int32

	genLibrary string
	genWorld   string
	genOut     string
	genMin     []int32
	genCells   []int32
	genSeed    int64

	infoLibrary string
	infoWorld   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a stamp library from an example world region",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := storage.NewStore(config)
		if err := loadWorld(buildExample, store); err != nil {
			return err
		}
		extent, err := vox.NewExtent(point(buildMin), point(buildSize))
		if err != nil {
			return err
		}
		view := grid.NewView(store, extent)
		example, err := view.MapIndex(func(_ uint32, v vox.VoxelID) vox.VoxelID {
			return v
		})
		if err != nil {
			return err
		}
		policy, err := stamp.BoundaryByName(config.Generate.Boundary)
		if err != nil {
			return err
		}
		lib, err := stamp.Build(example, config.StampShape(), policy)
		if err != nil {
			return err
		}
		fmt.Printf("%d stamps, total weight %d\n", lib.Len(), lib.TotalWeight())
		return saveLibrary(buildOut, lib)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run wave-function collapse over a region and save the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(genLibrary)
		if err != nil {
			return err
		}
		store := storage.NewStore(config)
		if genWorld != "" {
			if err := loadWorld(genWorld, store); err != nil {
				return err
			}
		}

		cells := point(genCells)
		size := cells.Mult(lib.Shape().Extents())
		extent, err := vox.NewExtent(point(genMin), size)
		if err != nil {
			return err
		}
		view := grid.NewView(store, extent)

		seed := genSeed
		if seed == 0 {
			seed = config.Generate.Seed
		}
		region, err := wfc.NewRegion(lib, view, cells, wfc.Params{
			Seed:           seed,
			BacktrackLimit: config.Generate.BacktrackLimit,
		})
		if err != nil {
			return err
		}

		steps := 0
		for {
			outcome, err := region.Step()
			switch outcome {
			case wfc.Continue:
				steps++
				if err := store.Maintain(); err != nil {
					return err
				}
				continue
			case wfc.Done:
				vox.Infof("Generation done after %d collapses\n", steps)
				if err := region.Commit(); err != nil {
					return err
				}
				return saveWorld(genOut, store)
			case wfc.Contradiction:
				if f := region.Failure(); f != nil {
					vox.Errorf("Generation failed at %s after %d collapses\n", f.Cell, steps)
				}
				return err
			}
		}
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe a saved library or world file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if infoLibrary != "" {
			lib, err := loadLibrary(infoLibrary)
			if err != nil {
				return err
			}
			e := lib.Shape().Extents()
			fmt.Printf("library: %d stamps of %dx%dx%d, total weight %d\n",
				lib.Len(), e[0], e[1], e[2], lib.TotalWeight())
		}
		if infoWorld != "" {
			store := storage.NewStore(config)
			if err := loadWorld(infoWorld, store); err != nil {
				return err
			}
			fmt.Printf("world: %s\n", store.Stats())
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildExample, "example", "", "world file holding the example region")
	buildCmd.Flags().StringVar(&buildOut, "out", "library.vxl", "output library file")
	buildCmd.Flags().Int32SliceVar(&buildMin, "min", []int32{0, 0, 0}, "minimum corner of the example region")
	buildCmd.Flags().Int32SliceVar(&buildSize, "size", []int32{16, 16, 16}, "size of the example region")
	buildCmd.MarkFlagRequired("example")

	generateCmd.Flags().StringVar(&genLibrary, "library", "", "stamp library file")
	generateCmd.Flags().StringVar(&genWorld, "world", "", "optional world file with pre-painted constraints")
	generateCmd.Flags().StringVar(&genOut, "out", "world.vxw", "output world file")
	generateCmd.Flags().Int32SliceVar(&genMin, "min", []int32{0, 0, 0}, "minimum corner of the generation region")
	generateCmd.Flags().Int32SliceVar(&genCells, "cells", []int32{8, 8, 8}, "region size in stamp-sized cells")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (overrides config)")
	generateCmd.MarkFlagRequired("library")

	infoCmd.Flags().StringVar(&infoLibrary, "library", "", "stamp library file")
	infoCmd.Flags().StringVar(&infoWorld, "world", "", "world file")
}

func point(v []int32) vox.Point3d {
	var p vox.Point3d
	for i := 0; i < len(v) && i < 3; i++ {
		p[i] = v[i]
	}
	return p
}
