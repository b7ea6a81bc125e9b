// extrudetool is a CLI utility for checking and inspecting footprint scenes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/extrude/internal/build"
	"github.com/Faultbox/extrude/internal/engine/extrusion"
	"github.com/Faultbox/extrude/internal/logger"
	"github.com/Faultbox/extrude/pkg/footprint"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "check":
		cmdCheck(args)
	case "build":
		cmdBuild(args)
	case "dump":
		cmdDump(args)
	case "fmt":
		cmdFmt(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`extrudetool - footprint scene utility

Usage:
  extrudetool <command> [options]

Commands:
  info <scene.yaml>               Show scene statistics
  check <scene.yaml>...           Validate scene files
  build [-workers N] <scene.yaml> Extrude all tiles and show mesh sizes
  dump <scene.yaml> <z/x/y>       Print the index buckets of one tile
  fmt <scene.yaml> [output]       Rewrite a scene in canonical form

Examples:
  extrudetool info scene.yaml
  extrudetool build -workers 4 scene.yaml
  extrudetool dump scene.yaml 16/35198/21494`)
}

func mustParse(path string) *footprint.Scene {
	s, err := footprint.ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return s
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: extrudetool info <scene.yaml>")
		os.Exit(1)
	}

	s := mustParse(args[0])
	st := s.Stats()

	fmt.Printf("Scene:     %s\n", s.Name)
	fmt.Printf("Tiles:     %d\n", st.Tiles)
	fmt.Printf("Buildings: %d (%d rings)\n", st.Buildings, st.Rings)
	fmt.Printf("Meshes:    %d (%d triangles)\n", st.Meshes, st.Triangles)
	fmt.Println()
	fmt.Println("Tiles:")
	for _, t := range s.Tiles {
		fmt.Printf("  %-20s %5d buildings %5d meshes  %.3f m/px\n",
			t.Key(), len(t.Buildings), len(t.Meshes), t.GroundResolution())
	}
}

func cmdCheck(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: extrudetool check <scene.yaml>...")
		os.Exit(1)
	}

	failed := 0
	for _, path := range args {
		if _, err := footprint.ParseFile(path); err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	workers := fs.Int("workers", 0, "Builder goroutines (0 = one per CPU)")
	verbose := fs.Bool("v", false, "Log builder progress")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: extrudetool build [-workers N] <scene.yaml>")
		os.Exit(1)
	}
	if *verbose {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	s := mustParse(fs.Arg(0))
	tiles := buildScene(s, *workers)

	var vertices, indices int
	for _, t := range tiles {
		for _, b := range []*extrusion.Batch{t.Buildings, t.Meshes} {
			if b == nil {
				continue
			}
			for m := b.First(); m != nil; m = m.Next() {
				fmt.Printf("%-20s level %-3d %6d vertices %6d indices  %v\n",
					t.Key, m.Level, m.NumVertices, m.NumIndices, bucketCounts(m))
				vertices += m.NumVertices
				indices += m.NumIndices
			}
		}
		t.Release(nil)
	}

	fmt.Printf("\n%d tiles, %d vertices (%.2f KB), %d indices (%.2f KB)\n",
		len(tiles), vertices, float64(vertices*extrusion.VertexBytes)/1024,
		indices, float64(indices*2)/1024)
}

func cmdDump(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: extrudetool dump <scene.yaml> <z/x/y>")
		os.Exit(1)
	}

	s := mustParse(args[0])
	key := args[1]

	var tile *footprint.Tile
	for i := range s.Tiles {
		if s.Tiles[i].Key() == key {
			tile = &s.Tiles[i]
			break
		}
	}
	if tile == nil {
		fmt.Fprintf(os.Stderr, "Tile not found: %s\n", key)
		os.Exit(1)
	}

	t, err := build.BuildTile(tile, s.Colors, extrusion.DefaultPools())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer t.Release(nil)

	dumpBatch("buildings", t.Buildings)
	dumpBatch("meshes", t.Meshes)
}

func dumpBatch(name string, b *extrusion.Batch) {
	if b == nil {
		return
	}
	buf := b.Buffers()
	fmt.Printf("[%s] %d meshes, %d vertices, %d indices\n",
		name, b.Len(), len(buf.Vertices)/extrusion.VertexStride, len(buf.Indices))

	for m := b.First(); m != nil; m = m.Next() {
		fmt.Printf("  level %d vertex offset %d index offset %d\n", m.Level, m.VertexOffset, m.IndexOffset)
		for bk := range extrusion.Bucket(extrusion.NumBuckets) {
			if m.Counts[bk] == 0 {
				continue
			}
			start := m.BucketOffset(bk)
			fmt.Printf("    %-8s %v\n", bk, buf.Indices[start:start+m.Counts[bk]])
		}
	}
}

func cmdFmt(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: extrudetool fmt <scene.yaml> [output]")
		os.Exit(1)
	}

	s := mustParse(args[0])
	data, err := s.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) < 2 {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(args[1], data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", args[1])
}

func buildScene(s *footprint.Scene, workers int) []*build.Tile {
	p := build.NewWorkerPool(build.Options{Workers: workers, QueueSize: 16})
	defer p.Shutdown()

	tiles, err := p.Build(context.Background(), s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return tiles
}

func bucketCounts(m *extrusion.Mesh) string {
	parts := make([]string, 0, extrusion.NumBuckets)
	for b := range extrusion.Bucket(extrusion.NumBuckets) {
		if m.Counts[b] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", b, m.Counts[b]))
		}
	}
	return strings.Join(parts, " ")
}
