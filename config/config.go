// Package config resolves pipeline settings from the environment, an
// optional .env file, and an optional config.yaml, in that priority order.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config carries every tunable the pipeline components need. It is built
// once and passed down explicitly; nothing reads package-level state.
type Config struct {
	MongoURI   string
	DBName     string
	UseMongoDB bool

	// DefaultCRS is the module-wide projected CRS used for metric
	// buffering and subtraction when an input arrives in angular units.
	DefaultCRS     string
	GeographicCRS  string
	BufferLayerCRS string

	BufferDistanceFt     float64
	PointBufferDistance  float64 // meters, planning-layer type normalization
	LineBufferDistance   float64 // meters, LineString park pre-buffering
	MaxWorkers           int
	Parallel             bool
	OutputFormats        []string
	AllowOverwriteOutput bool
	DryRun               bool
}

type fileConfig struct {
	Database struct {
		MongoURI   string `yaml:"mongodb_uri"`
		DBName     string `yaml:"db_name"`
		UseMongoDB *bool  `yaml:"use_mongodb"`
	} `yaml:"database"`
	Spatial struct {
		DefaultCRS       string   `yaml:"default_crs"`
		GeographicCRS    string   `yaml:"geographic_crs"`
		BufferLayerCRS   string   `yaml:"buffer_layer_crs"`
		BufferDistanceFt *float64 `yaml:"default_buffer_distance_ft"`
	} `yaml:"spatial"`
	Output struct {
		Format         string `yaml:"output_format"`
		AllowOverwrite *bool  `yaml:"allow_overwrite_output"`
		DryRun         *bool  `yaml:"dry_run_mode"`
	} `yaml:"output"`
	Processing struct {
		MaxWorkers *int  `yaml:"max_workers"`
		Parallel   *bool `yaml:"parallel"`
	} `yaml:"processing"`
}

// Default returns the built-in settings without consulting any source.
func Default() *Config {
	return &Config{
		MongoURI:             "mongodb://localhost:27017/",
		DBName:               "gis_database",
		UseMongoDB:           false,
		DefaultCRS:           "EPSG:32633",
		GeographicCRS:        "EPSG:4326",
		BufferLayerCRS:       "EPSG:32610",
		BufferDistanceFt:     25.0,
		PointBufferDistance:  10.0,
		LineBufferDistance:   5.0,
		MaxWorkers:           5,
		Parallel:             false,
		OutputFormats:        []string{"shp"},
		AllowOverwriteOutput: false,
		DryRun:               false,
	}
}

// Load resolves settings with priority environment > config.yaml > defaults.
// A .env file in the working directory is folded into the environment first.
func Load(yamlPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if yamlPath == "" {
		yamlPath = "config.yaml"
	}
	if data, err := os.ReadFile(yamlPath); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		applyFileConfig(cfg, &fc)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc *fileConfig) {
	if fc.Database.MongoURI != "" {
		cfg.MongoURI = fc.Database.MongoURI
	}
	if fc.Database.DBName != "" {
		cfg.DBName = fc.Database.DBName
	}
	if fc.Database.UseMongoDB != nil {
		cfg.UseMongoDB = *fc.Database.UseMongoDB
	}
	if fc.Spatial.DefaultCRS != "" {
		cfg.DefaultCRS = fc.Spatial.DefaultCRS
	}
	if fc.Spatial.GeographicCRS != "" {
		cfg.GeographicCRS = fc.Spatial.GeographicCRS
	}
	if fc.Spatial.BufferLayerCRS != "" {
		cfg.BufferLayerCRS = fc.Spatial.BufferLayerCRS
	}
	if fc.Spatial.BufferDistanceFt != nil {
		cfg.BufferDistanceFt = *fc.Spatial.BufferDistanceFt
	}
	if fc.Output.Format != "" {
		cfg.OutputFormats = splitFormats(fc.Output.Format)
	}
	if fc.Output.AllowOverwrite != nil {
		cfg.AllowOverwriteOutput = *fc.Output.AllowOverwrite
	}
	if fc.Output.DryRun != nil {
		cfg.DryRun = *fc.Output.DryRun
	}
	if fc.Processing.MaxWorkers != nil {
		cfg.MaxWorkers = *fc.Processing.MaxWorkers
	}
	if fc.Processing.Parallel != nil {
		cfg.Parallel = *fc.Processing.Parallel
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v, ok := envBool("USE_MONGODB"); ok {
		cfg.UseMongoDB = v
	}
	if v := os.Getenv("DEFAULT_CRS"); v != "" {
		cfg.DefaultCRS = v
	}
	if v := os.Getenv("GEOGRAPHIC_CRS"); v != "" {
		cfg.GeographicCRS = v
	}
	if v := os.Getenv("BUFFER_LAYER_CRS"); v != "" {
		cfg.BufferLayerCRS = v
	}
	if v, ok := envFloat("DEFAULT_BUFFER_DISTANCE_FT"); ok {
		cfg.BufferDistanceFt = v
	}
	if v, ok := envInt("MAX_WORKERS"); ok {
		cfg.MaxWorkers = v
	}
	if v, ok := envBool("PARALLEL"); ok {
		cfg.Parallel = v
	}
	if v := os.Getenv("OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormats = splitFormats(v)
	}
	if v, ok := envBool("ALLOW_OVERWRITE_OUTPUT"); ok {
		cfg.AllowOverwriteOutput = v
	}
	if v, ok := envBool("DRY_RUN_MODE"); ok {
		cfg.DryRun = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

func envFloat(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitFormats(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		out = []string{"shp"}
	}
	return out
}

// PrimaryFormat returns the first configured output format.
func (c *Config) PrimaryFormat() string {
	if len(c.OutputFormats) == 0 {
		return "shp"
	}
	return c.OutputFormats[0]
}

// OutputExtension maps the primary configured format to a file extension.
func (c *Config) OutputExtension() string {
	switch c.PrimaryFormat() {
	case "geojson", "json":
		return ".geojson"
	case "csv":
		return ".csv"
	default:
		return ".shp"
	}
}

// DriverForExtension picks the output driver from a file extension.
func DriverForExtension(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".geojson" {
		return "GeoJSON"
	}
	return "ESRI Shapefile"
}
