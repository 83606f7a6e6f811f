// Package config loads the settings shared by the preprocessing and engine binaries.
//
// Values come from a YAML file (see FindConfigPath); fields left out of the file keep their defaults.
// Command-line flags of the binaries override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lintang-b-s/carpoolnav/pkg/arcfilter"
	"github.com/lintang-b-s/carpoolnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/carpoolnav/pkg/geo"
	"github.com/lintang-b-s/carpoolnav/pkg/snap"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Graph   GraphConfig   `yaml:"graph"`
	Routing RoutingConfig `yaml:"routing"`
}

type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MetricsPath    string        `yaml:"metrics_path"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type GraphConfig struct {
	MapID             string  `yaml:"map_id"`
	MapName           string  `yaml:"map_name"`
	OSMFile           string  `yaml:"osm_file"`
	BinaryFile        string  `yaml:"binary_file"`
	KVDir             string  `yaml:"kv_dir"`
	SimplifyThreshold float64 `yaml:"simplify_threshold"` // meter, 0 keeps every point
}

type RoutingConfig struct {
	DefaultAlgorithm string `yaml:"default_algorithm"`
	DefaultFilter    string `yaml:"default_filter"`
	PedestrianFilter string `yaml:"pedestrian_filter"`
	CarFilter        string `yaml:"car_filter"`
	SnapResolution   int    `yaml:"snap_resolution"`
	SnapMaxRing      int    `yaml:"snap_max_ring"`
}

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, path, nil
}

func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":5000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"https://*", "http://*"}
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = "/metrics"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}

	if c.Graph.MapID == "" {
		c.Graph.MapID = "solo_jogja"
	}
	if c.Graph.MapName == "" {
		c.Graph.MapName = "Solo - Jogja"
	}
	if c.Graph.OSMFile == "" {
		c.Graph.OSMFile = "solo_jogja.osm.pbf"
	}
	if c.Graph.BinaryFile == "" {
		c.Graph.BinaryFile = "./carpoolnav.graph"
	}
	if c.Graph.KVDir == "" {
		c.Graph.KVDir = "./carpoolnav_db"
	}
	if c.Graph.SimplifyThreshold == 0 {
		c.Graph.SimplifyThreshold = geo.DOUGLAS_PEUCKER_THRESHOLDS
	}

	if c.Routing.DefaultAlgorithm == "" {
		c.Routing.DefaultAlgorithm = routingalgorithm.Dijkstra
	}
	if c.Routing.DefaultFilter == "" {
		c.Routing.DefaultFilter = arcfilter.ShortestAllRoads
	}
	if c.Routing.PedestrianFilter == "" {
		c.Routing.PedestrianFilter = arcfilter.PedestrianOnly
	}
	if c.Routing.CarFilter == "" {
		c.Routing.CarFilter = arcfilter.FastestCarsOnly
	}
	if c.Routing.SnapResolution == 0 {
		c.Routing.SnapResolution = snap.DefaultResolution
	}
	if c.Routing.SnapMaxRing == 0 {
		c.Routing.SnapMaxRing = snap.DefaultMaxRing
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Routing.DefaultAlgorithm != routingalgorithm.Dijkstra && c.Routing.DefaultAlgorithm != routingalgorithm.BellmanFord {
		errs = append(errs, fmt.Errorf("%w: unknown routing.default_algorithm %q", ErrInvalidConfig, c.Routing.DefaultAlgorithm))
	}
	for key, name := range map[string]string{
		"routing.default_filter":    c.Routing.DefaultFilter,
		"routing.pedestrian_filter": c.Routing.PedestrianFilter,
		"routing.car_filter":        c.Routing.CarFilter,
	} {
		if _, err := arcfilter.ByName(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err))
		}
	}
	if c.Routing.SnapResolution < 0 || c.Routing.SnapResolution > 15 {
		errs = append(errs, fmt.Errorf("%w: routing.snap_resolution must be in [0, 15]", ErrInvalidConfig))
	}
	if c.Routing.SnapMaxRing < 0 {
		errs = append(errs, fmt.Errorf("%w: routing.snap_max_ring must not be negative", ErrInvalidConfig))
	}
	if c.Graph.SimplifyThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: graph.simplify_threshold must not be negative", ErrInvalidConfig))
	}
	if c.Graph.MapID == "" {
		errs = append(errs, fmt.Errorf("%w: graph.map_id is empty", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
