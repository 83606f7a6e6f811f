package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/lintang-b-s/carpoolnav/pkg/config"
	"github.com/lintang-b-s/carpoolnav/pkg/graphio"
	"github.com/lintang-b-s/carpoolnav/pkg/kv"
	"github.com/lintang-b-s/carpoolnav/pkg/osmparser"
	"golang.org/x/sync/errgroup"
)

var (
	configFile = flag.String("config", "", "config file (default: search the usual locations)")
	mapFile    = flag.String("f", "", "openstreetmap file (.osm.pbf or .osm) for the road network graph")
	outFile    = flag.String("out", "", "binary graph file to write")
	kvDir      = flag.String("kv", "", "badger directory of the graph store")
	mapID      = flag.String("mapid", "", "id of the map")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		// ./bin/carpoolnav-preprocessing -cpuprofile=carpoolnavcpu.prof -memprofile=carpoolnavmem.mprof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("reading osm file %s", cfg.Graph.OSMFile)
	parser := osmparser.NewParser(cfg.Graph.MapID, cfg.Graph.MapName, cfg.Graph.SimplifyThreshold)
	g, err := parser.ParseFile(ctx, cfg.Graph.OSMFile)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "parsing_osm_data")

	kvDB, err := kv.OpenKVDB(cfg.Graph.KVDir)
	if err != nil {
		log.Fatal(err)
	}
	defer kvDB.Close()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Printf("saving graph to %s...", cfg.Graph.BinaryFile)
		return graphio.SaveGraphFile(cfg.Graph.BinaryFile, g)
	})
	eg.Go(func() error {
		if err := kvDB.SaveGraph(egCtx, g); err != nil {
			return err
		}
		return kvDB.BuildH3IndexedNodes(egCtx, g, cfg.Routing.SnapResolution)
	})
	if err := eg.Wait(); err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "saving_graph")

	fmt.Printf("\ngraph %s ready: %d nodes, %d arcs\n", g.MapID(), g.NumberOfNodes(), g.NumberOfArcs())
}

func loadConfig() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if *configFile != "" {
		cfg, path, err = config.LoadFromPath(*configFile)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Printf("using config %s", path)
	}

	if *mapFile != "" {
		cfg.Graph.OSMFile = *mapFile
	}
	if *outFile != "" {
		cfg.Graph.BinaryFile = *outFile
	}
	if *kvDir != "" {
		cfg.Graph.KVDir = *kvDir
	}
	if *mapID != "" {
		cfg.Graph.MapID = *mapID
	}
	return cfg, cfg.Validate()
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
