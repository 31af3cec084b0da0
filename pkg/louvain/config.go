package louvain

import (
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RandomSource drives the node visiting order of the local search.
// *rand.Rand satisfies it; tests inject deterministic sequences.
type RandomSource interface {
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// Config manages algorithm configuration using Viper
type Config struct {
	v      *viper.Viper
	rng    RandomSource
	output io.Writer
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.precision", 0.000001)
	v.SetDefault("algorithm.gain_epsilon", 1e-12)
	v.SetDefault("algorithm.max_levels", 0)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Feature extraction parameters
	v.SetDefault("features.max_clause_size", 400)
	v.SetDefault("features.min_x", 0)
	v.SetDefault("features.max_x", 6)
	v.SetDefault("features.max_radius", 15)
	v.SetDefault("features.max_xmin", 10)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", false)

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")
	v.SetDefault("analysis.verify", false)

	// Server parameters
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_body_bytes", int64(256<<20))
	v.SetDefault("server.max_jobs", 4)
	v.SetDefault("server.job_ttl", time.Hour)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetEnvPrefix("SATFEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v, output: os.Stderr}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// BindFlag binds a command line flag to a configuration key
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

// Getters for algorithm parameters
func (c *Config) Precision() float64 { return c.v.GetFloat64("algorithm.precision") }
func (c *Config) GainEpsilon() float64 { return c.v.GetFloat64("algorithm.gain_epsilon") }
func (c *Config) MaxLevels() int { return c.v.GetInt("algorithm.max_levels") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) MaxClauseSize() int { return c.v.GetInt("features.max_clause_size") }
func (c *Config) MinX() int { return c.v.GetInt("features.min_x") }
func (c *Config) MaxX() int { return c.v.GetInt("features.max_x") }
func (c *Config) MaxRadius() int { return c.v.GetInt("features.max_radius") }
func (c *Config) MaxXmin() int { return c.v.GetInt("features.max_xmin") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) EnableMoveTracking() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }
func (c *Config) Verify() bool { return c.v.GetBool("analysis.verify") }

func (c *Config) ServerAddress() string { return c.v.GetString("server.address") }
func (c *Config) ReadTimeout() time.Duration { return c.v.GetDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration { return c.v.GetDuration("server.write_timeout") }
func (c *Config) MaxBodyBytes() int64 { return c.v.GetInt64("server.max_body_bytes") }
func (c *Config) MaxJobs() int { return c.v.GetInt("server.max_jobs") }
func (c *Config) JobTTL() time.Duration { return c.v.GetDuration("server.job_ttl") }
func (c *Config) AllowedOrigins() []string { return c.v.GetStringSlice("server.allowed_origins") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// SetRandomSource replaces the seeded generator with rs for every
// subsequent run. A shared source makes runs order dependent, so callers
// that parallelize must not share one.
func (c *Config) SetRandomSource(rs RandomSource) {
	c.rng = rs
}

// HasRandomSource reports whether a random source was injected
func (c *Config) HasRandomSource() bool { return c.rng != nil }

// RandomSource returns the injected source, or a generator seeded from
// algorithm.random_seed offset by stream.
func (c *Config) RandomSource(stream int64) RandomSource {
	if c.rng != nil {
		return c.rng
	}
	return rand.New(rand.NewSource(c.RandomSeed() + stream))
}

// SetOutput redirects log output
func (c *Config) SetOutput(w io.Writer) {
	c.output = w
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        c.output,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "satfeat").Logger()
}
