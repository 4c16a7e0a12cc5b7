// Package config loads server settings from GRAPH_* environment variables
// and command line flags. A flag given on the command line overrides the
// environment; both override the defaults.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hanpama/blockql/internal/querycache"
)

// EnvPrefix is prepended to every key, upper cased, to form its environment
// variable: GRAPH_QUERY_CACHE_BLOCKS for query_cache_blocks.
const EnvPrefix = "GRAPH"

// Config is the full set of settings of a blockql process.
type Config struct {
	Addr     string `mapstructure:"addr"`
	Store    string `mapstructure:"store"`
	Schema   string `mapstructure:"schema"`
	SchemaID string `mapstructure:"schema_id"`

	// CachedSubgraphIDs lists the schema ids whose answers are cached; "*"
	// caches every schema.
	CachedSubgraphIDs []string      `mapstructure:"cached_subgraph_ids"`
	QueryCacheBlocks  int           `mapstructure:"query_cache_blocks"`
	MaxFirst          uint32        `mapstructure:"graphql_max_first"`
	QueryTimeout      time.Duration `mapstructure:"graphql_query_timeout"`
	Introspection     bool          `mapstructure:"graphql_introspection"`

	Pretty       bool   `mapstructure:"pretty"`
	LogLevel     string `mapstructure:"log_level"`
	OTelEndpoint string `mapstructure:"otel_endpoint"`
	OTelService  string `mapstructure:"otel_service"`
}

type setting struct {
	key   string
	def   any
	usage string
}

var settings = []setting{
	{"addr", ":8000", "HTTP listen address"},
	{"store", "blockql.db", "sqlite database file"},
	{"schema", "", "GraphQL SDL file"},
	{"schema_id", "", "schema id used for caching (default: schema file name)"},
	{"cached_subgraph_ids", []string{}, "schema ids whose answers are cached, * for all"},
	{"query_cache_blocks", 0, "number of recent blocks kept in the query cache"},
	{"graphql_max_first", uint32(1000), "largest first argument accepted"},
	{"graphql_query_timeout", time.Duration(0), "query execution timeout, 0 for none"},
	{"graphql_introspection", true, "answer __schema and __type"},
	{"pretty", false, "indent JSON responses"},
	{"log_level", "info", "log level: debug, info, warn or error"},
	{"otel_endpoint", "", "OTLP collector endpoint, empty disables tracing"},
	{"otel_service", "blockql", "OpenTelemetry service name"},
}

// FlagName turns a key into its flag name: query_cache_blocks becomes
// query-cache-blocks.
func FlagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// RegisterFlags defines one flag per setting on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		name := FlagName(s.key)
		switch def := s.def.(type) {
		case string:
			fs.String(name, def, s.usage)
		case []string:
			fs.StringSlice(name, def, s.usage)
		case int:
			fs.Int(name, def, s.usage)
		case uint32:
			fs.Uint32(name, def, s.usage)
		case bool:
			fs.Bool(name, def, s.usage)
		case time.Duration:
			fs.Duration(name, def, s.usage)
		}
	}
}

// Load reads the settings. fs may be nil or hold only some of the flags
// RegisterFlags defines.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if fs == nil {
			continue
		}
		if f := fs.Lookup(FlagName(s.key)); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CachedSubgraphIDs = splitList(cfg.CachedSubgraphIDs)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.QueryCacheBlocks < 0 {
		return fmt.Errorf("query_cache_blocks must not be negative, got %d", c.QueryCacheBlocks)
	}
	if c.MaxFirst == 0 {
		return fmt.Errorf("graphql_max_first must be positive")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("graphql_query_timeout must not be negative, got %s", c.QueryTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Cache is the query cache configuration.
func (c *Config) Cache() querycache.Config {
	return querycache.Config{CachedIDs: c.CachedSubgraphIDs, Blocks: c.QueryCacheBlocks}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// splitList accepts both repeated values and comma or space separated ones.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
