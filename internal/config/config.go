package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "ARTICLE_RECOMMENDER_CONFIG"
	sparqlEndpointEnv = "SPARQL_ENDPOINT"
	sparqlDatasetEnv  = "SPARQL_DATASET"
	databaseDSNEnv    = "DATABASE_DSN"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	HTTP        HTTPConfig        `yaml:"http"`
	SPARQL      SPARQLConfig      `yaml:"sparql"`
	Database    DatabaseConfig    `yaml:"database"`
	Recommender RecommenderConfig `yaml:"recommender"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig describes the API listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// SPARQLConfig points at the Fuseki dataset holding the article graph.
type SPARQLConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Dataset         string        `yaml:"dataset"`
	Timeout         time.Duration `yaml:"timeout"`
	BreakerFailures uint32        `yaml:"breakerFailures"`
	BreakerCooldown time.Duration `yaml:"breakerCooldown"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN disables reader storage.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RecommenderConfig tunes the recommendation pipeline.
type RecommenderConfig struct {
	DefaultTopK        int           `yaml:"defaultTopK"`
	KeywordLimit       int           `yaml:"keywordLimit"`
	CandidateLimit     int           `yaml:"candidateLimit"`
	CandidateTimeout   time.Duration `yaml:"candidateTimeout"`
	MaterializeWorkers int           `yaml:"materializeWorkers"`
	HistoryDepth       int           `yaml:"historyDepth"`
}

// IngestConfig defines how article pages are fetched.
type IngestConfig struct {
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(sparqlEndpointEnv); v != "" {
		c.SPARQL.Endpoint = v
	}

	if v := os.Getenv(sparqlDatasetEnv); v != "" {
		c.SPARQL.Dataset = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ReadTimeout > 0 {
		base.HTTP.ReadTimeout = override.HTTP.ReadTimeout
	}
	if override.HTTP.WriteTimeout > 0 {
		base.HTTP.WriteTimeout = override.HTTP.WriteTimeout
	}
	if override.HTTP.ShutdownTimeout > 0 {
		base.HTTP.ShutdownTimeout = override.HTTP.ShutdownTimeout
	}

	if override.SPARQL.Endpoint != "" {
		base.SPARQL.Endpoint = override.SPARQL.Endpoint
	}
	if override.SPARQL.Dataset != "" {
		base.SPARQL.Dataset = override.SPARQL.Dataset
	}
	if override.SPARQL.Timeout > 0 {
		base.SPARQL.Timeout = override.SPARQL.Timeout
	}
	if override.SPARQL.BreakerFailures > 0 {
		base.SPARQL.BreakerFailures = override.SPARQL.BreakerFailures
	}
	if override.SPARQL.BreakerCooldown > 0 {
		base.SPARQL.BreakerCooldown = override.SPARQL.BreakerCooldown
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Recommender.DefaultTopK > 0 {
		base.Recommender.DefaultTopK = override.Recommender.DefaultTopK
	}
	if override.Recommender.KeywordLimit > 0 {
		base.Recommender.KeywordLimit = override.Recommender.KeywordLimit
	}
	if override.Recommender.CandidateLimit > 0 {
		base.Recommender.CandidateLimit = override.Recommender.CandidateLimit
	}
	if override.Recommender.CandidateTimeout > 0 {
		base.Recommender.CandidateTimeout = override.Recommender.CandidateTimeout
	}
	if override.Recommender.MaterializeWorkers > 0 {
		base.Recommender.MaterializeWorkers = override.Recommender.MaterializeWorkers
	}
	if override.Recommender.HistoryDepth > 0 {
		base.Recommender.HistoryDepth = override.Recommender.HistoryDepth
	}

	if override.Ingest.UserAgent != "" {
		base.Ingest.UserAgent = override.Ingest.UserAgent
	}
	if override.Ingest.Timeout > 0 {
		base.Ingest.Timeout = override.Ingest.Timeout
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		SPARQL: SPARQLConfig{
			Endpoint:        "http://localhost:3030",
			Dataset:         "articles",
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Database: DatabaseConfig{DSN: ""},
		Recommender: RecommenderConfig{
			DefaultTopK:        10,
			KeywordLimit:       10,
			CandidateLimit:     100,
			CandidateTimeout:   10 * time.Second,
			MaterializeWorkers: 4,
			HistoryDepth:       20,
		},
		Ingest: IngestConfig{
			UserAgent: "ArticleRecommender/1.0",
			Timeout:   20 * time.Second,
		},
	}
}
