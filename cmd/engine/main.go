package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/lintang-b-s/carpoolnav/pkg/config"
	"github.com/lintang-b-s/carpoolnav/pkg/datastructure"
	"github.com/lintang-b-s/carpoolnav/pkg/graphio"
	"github.com/lintang-b-s/carpoolnav/pkg/kv"
	"github.com/lintang-b-s/carpoolnav/pkg/observer"
	"github.com/lintang-b-s/carpoolnav/pkg/server/rest"
	"github.com/lintang-b-s/carpoolnav/pkg/server/rest/service"
	"github.com/lintang-b-s/carpoolnav/pkg/snap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/go-chi/chi/v5/middleware"
)

var (
	configFile = flag.String("config", "", "config file (default: search the usual locations)")
	listenAddr = flag.String("listenaddr", "", "server listen address")
	graphFile  = flag.String("graph", "", "binary graph file written by the preprocessing binary")
	kvDir      = flag.String("kv", "", "badger directory of the graph store, used when the graph file is missing")
	useKVIndex = flag.Bool("kvindex", false, "snap with the h3 node index stored in the key-value db")
	eventLog   = flag.Bool("eventlog", false, "print every routing algorithm event to stdout")
	profiler   = flag.Bool("profiler", false, "mount the pprof handlers on /debug")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	g, kvDB, err := loadGraph(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if kvDB != nil {
		defer kvDB.Close()
	}
	recordMemProfile(memprofile, "load_graph")

	var index snap.CellIndex = snap.NewMemoryCellIndex(g, cfg.Routing.SnapResolution)
	if *useKVIndex {
		if kvDB == nil {
			if kvDB, err = kv.OpenKVDB(cfg.Graph.KVDir); err != nil {
				log.Fatal(err)
			}
			defer kvDB.Close()
		}
		index = kv.NewCellIndex(kvDB, g.MapID())
	}
	snapper := snap.NewNodeSnapper(g, index, cfg.Routing.SnapResolution, cfg.Routing.SnapMaxRing)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	routingSvc := service.NewRoutingService(g, snapper, observer.NewRoutingMetrics(reg), nil, cfg.Routing)
	if *eventLog {
		routingSvc.SetEventLog(os.Stdout)
	}
	recordMemProfile(memprofile, "service_init")

	r := rest.NewRouter(routingSvc, reg, cfg.Server)
	if *profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	fmt.Printf("\ngraph %s loaded: %d nodes, %d arcs", g.MapID(), g.NumberOfNodes(), g.NumberOfArcs())
	fmt.Printf("\nserver started at %s\n", cfg.Server.ListenAddr)

	log.Fatal(srv.ListenAndServe())
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

	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *graphFile != "" {
		cfg.Graph.BinaryFile = *graphFile
	}
	if *kvDir != "" {
		cfg.Graph.KVDir = *kvDir
	}
	return cfg, cfg.Validate()
}

// loadGraph reads the binary graph file, falling back to the key-value store. The store is returned open when it was used.
func loadGraph(cfg *config.Config) (*datastructure.Graph, *kv.KVDB, error) {
	g, err := graphio.LoadGraphFile(cfg.Graph.BinaryFile)
	if err == nil {
		log.Printf("graph loaded from %s", cfg.Graph.BinaryFile)
		return g, nil, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, err
	}

	log.Printf("graph file %s not found, loading map %s from %s", cfg.Graph.BinaryFile, cfg.Graph.MapID, cfg.Graph.KVDir)
	kvDB, err := kv.OpenKVDB(cfg.Graph.KVDir)
	if err != nil {
		return nil, nil, err
	}
	g, err = kvDB.LoadGraph(cfg.Graph.MapID)
	if err != nil {
		kvDB.Close()
		return nil, nil, err
	}
	return g, kvDB, nil
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
