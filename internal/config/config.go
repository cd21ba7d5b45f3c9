package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"rangestream/pkg/httprange"
)

var ErrInvalidConfig = errors.New("invalid config")

var LogFormats = []string{"text", "json", "dev"}

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "RANGESTREAM_"

type HttpTimeoutsConfig struct {
	Read     time.Duration `env:"READ"`
	Idle     time.Duration `env:"IDLE"`
	Write    time.Duration `env:"WRITE"`
	Shutdown time.Duration `env:"SHUTDOWN"` // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Addr         string             `env:"ADDR"`
	TrustedProxy bool               `env:"TRUSTED_PROXY"`
	Timeouts     HttpTimeoutsConfig `envPrefix:"TIMEOUT_"`
}

type ShutdownTimersConfig struct {
	InactiveLimit time.Duration `env:"INACTIVE"`
	SleepTimer    time.Duration `env:"SLEEP"`
	TimeToEnd     time.Time
}

type MediaConfig struct {
	Root          string   `env:"ROOT"`
	MaxRegionSize ByteSize `env:"MAX_REGION_SIZE"` // upper bound of one 206 body
	ReadChunkSize ByteSize `env:"READ_CHUNK_SIZE"` // sub-chunk pulled from disk per write
	MaxIO         int      `env:"MAX_IO"`          // concurrent disk reads
}

type RateLimitConfig struct {
	RPS   int `env:"RPS"` // 0 disables the limiter
	Burst int `env:"BURST"`
}

type LogConfig struct {
	Level  slog.Level `env:"LEVEL"`
	Format string     `env:"FORMAT"` // text, json or dev
}

type Config struct {
	HTTP           HTTPConfig           `envPrefix:"HTTP_"`
	ShutdownTimers ShutdownTimersConfig `envPrefix:"SHUTDOWN_"`
	Media          MediaConfig          `envPrefix:"MEDIA_"`
	RateLimit      RateLimitConfig      `envPrefix:"RATELIMIT_"`
	Logger         LogConfig            `envPrefix:"LOG_"`
}

// ByteSize is a size in bytes that reads human units such as "10MB" or "512KB".
type ByteSize int64

func (b ByteSize) String() string {
	return strconv.FormatInt(int64(b), 10)
}

func (b *ByteSize) Set(value string) error {
	return b.UnmarshalText([]byte(value))
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := parseBytes(string(text))
	if err != nil {
		return err
	}
	*b = ByteSize(size)
	return nil
}

const (
	defaultReadChunkSize = 32 * 1024
	defaultMaxIO         = 10
	noTimeout            = time.Duration(0)
)

func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr: ":8081",
			Timeouts: HttpTimeoutsConfig{
				Read:     5 * time.Second,
				Idle:     30 * time.Second,
				Write:    1 * time.Hour,
				Shutdown: 15 * time.Second,
			},
		},
		Media: MediaConfig{
			Root:          ".",
			MaxRegionSize: ByteSize(httprange.DefaultMaxCount),
			ReadChunkSize: defaultReadChunkSize,
			MaxIO:         defaultMaxIO,
		},
		ShutdownTimers: ShutdownTimersConfig{
			InactiveLimit: noTimeout,
			SleepTimer:    noTimeout,
			TimeToEnd:     time.Time{},
		},
		RateLimit: RateLimitConfig{
			RPS:   0,
			Burst: 20,
		},
		Logger: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
	}
}

// ParseEnv overlays RANGESTREAM_* variables from environ onto cfg.
// Unset variables leave the current values untouched.
func ParseEnv(cfg *Config, environ map[string]string) error {
	err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to parse environment: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load builds the configuration from defaults, the process environment and args,
// in that order of precedence, and validates it.
func Load(args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if err := ParseEnv(cfg, env.ToMap(os.Environ())); err != nil {
		return nil, err
	}

	if err := ParseArgs(cfg, args, stderr); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseArgs overlays command line flags onto cfg and validates the result.
// Flag defaults are the values cfg already holds.
func ParseArgs(cfg *Config, args []string, stderr io.Writer) error {
	current := *cfg

	fs := flag.NewFlagSet("rangestream", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [options] [path]\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "Serves the media files of one directory over HTTP with byte-range support.")
		fmt.Fprintln(fs.Output(), "\nOptions:")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nArguments:")
		fmt.Fprintln(fs.Output(), "  path    Media root directory (default: current directory)")
		fmt.Fprintf(fs.Output(), "\nEvery option can also be set through %s* environment variables.\n", EnvPrefix)
	}

	fs.StringVar(&cfg.HTTP.Addr, "http.addr", current.HTTP.Addr, "http address to listen on")
	fs.BoolVar(&cfg.HTTP.TrustedProxy, "http.trustedProxy", current.HTTP.TrustedProxy, "Trust X-Forwarded-* headers")
	fs.DurationVar(&cfg.HTTP.Timeouts.Shutdown, "http.shutdownTimeout", current.HTTP.Timeouts.Shutdown, "Graceful shutdown delay")

	fs.Var(&cfg.Media.MaxRegionSize, "media.maxRegion", "Largest partial response body (e.g. 1MB, 512KB)")
	fs.Var(&cfg.Media.ReadChunkSize, "media.readChunk", "Bytes read from disk per write (e.g. 32KB)")
	fs.IntVar(&cfg.Media.MaxIO, "media.maxIO", current.Media.MaxIO, "Max concurrent disk reads")

	fs.IntVar(&cfg.RateLimit.RPS, "ratelimit.rps", current.RateLimit.RPS, "Requests per second per client IP (0 disables)")
	fs.IntVar(&cfg.RateLimit.Burst, "ratelimit.burst", current.RateLimit.Burst, "Burst size per client IP")

	var logLevelStr string
	fs.StringVar(&logLevelStr, "logger.level", current.Logger.Level.String(), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Logger.Format, "logger.format", current.Logger.Format, "Log format (text, json, dev)")

	fs.DurationVar(&cfg.ShutdownTimers.InactiveLimit, "shutdown.inactive", current.ShutdownTimers.InactiveLimit, "Shutdown after duration of inactivity (e.g. 30m)")
	fs.DurationVar(&cfg.ShutdownTimers.SleepTimer, "shutdown.sleep", current.ShutdownTimers.SleepTimer, "Shutdown after specific duration (e.g. 2h)")

	var timeToEndStr string
	fs.StringVar(&timeToEndStr, "shutdown.at", "", "Shutdown at specific time (format HH:MM, e.g. 23:30)")

	// parse all flags
	if err := fs.Parse(args); err != nil {
		return err
	}

	// validate logger.level
	level, err := validateLoggerLevel(logLevelStr)
	if err != nil {
		return err
	}
	cfg.Logger.Level = level

	// validate timeToEnd
	timeToEnd, err := validateTimeToEnd(timeToEndStr)
	if err != nil {
		return err
	}
	cfg.ShutdownTimers.TimeToEnd = timeToEnd

	switch paths := fs.Args(); len(paths) {
	case 0:
	case 1:
		cfg.Media.Root = paths[0]
	default:
		return fmt.Errorf("%w: expected at most one media path, got %d", ErrInvalidConfig, len(paths))
	}

	return cfg.Validate()
}

// Validate checks every field once, at startup.
func (cfg *Config) Validate() error {
	if err := validateRoot(cfg.Media.Root); err != nil {
		return err
	}

	if cfg.Media.MaxRegionSize <= 0 {
		return fmt.Errorf("%w: max region size must be positive", ErrInvalidConfig)
	}

	if cfg.Media.ReadChunkSize <= 0 {
		return fmt.Errorf("%w: read chunk size must be positive", ErrInvalidConfig)
	}

	// check if it fits in architecture (as in potentially 32 bits)
	// do a xor on 0 to flip all bits to 1 and shift one bit to the right (leaving msb at zero)
	const maxInt = int(^uint(0) >> 1)
	if int64(cfg.Media.ReadChunkSize) > int64(maxInt) {
		return fmt.Errorf("%w: read chunk size too large for this system architecture", ErrInvalidConfig)
	}

	if cfg.Media.MaxIO < 1 {
		return fmt.Errorf("%w: max concurrent reads must be at least 1", ErrInvalidConfig)
	}

	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate limit values cannot be negative", ErrInvalidConfig)
	}

	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst == 0 {
		return fmt.Errorf("%w: rate limit burst must be positive when the limiter is enabled", ErrInvalidConfig)
	}

	if cfg.ShutdownTimers.InactiveLimit < 0 || cfg.ShutdownTimers.SleepTimer < 0 {
		return fmt.Errorf("%w: shutdown timers cannot be negative", ErrInvalidConfig)
	}

	if !lo.Contains(LogFormats, cfg.Logger.Format) {
		return fmt.Errorf("%w: invalid log format %q (expected one of %s)", ErrInvalidConfig, cfg.Logger.Format, strings.Join(LogFormats, ", "))
	}

	return nil
}

func validateRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("%w: media root cannot be empty", ErrInvalidConfig)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: media root %q: %w", ErrInvalidConfig, root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: media root %q is not a directory", ErrInvalidConfig, root)
	}
	return nil
}

func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)

	// find the index of first rune representing size suffix
	i := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})

	// there is no unit
	if i == -1 {
		return strconv.ParseInt(s, 10, 64)
	}

	// numeric string in one var, unitStr in another
	numericStr := s[:i]
	unitStr := strings.TrimSpace(s[i:])

	val, err := strconv.ParseFloat(numericStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte string: %w", err)
	}

	var multiplier float64
	switch unitStr {
	case "B":
		multiplier = 1
	case "KB", "KIB":
		multiplier = 1024
	case "MB", "MIB":
		multiplier = 1024 * 1024
	case "GB", "GIB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown unit %q (expected B, KB, MB, GB)", unitStr)
	}

	return int64(val * multiplier), nil
}

func validateLoggerLevel(logLevelStr string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevelStr)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", logLevelStr, err)
	}
	return level, nil
}

func validateTimeToEnd(timeToEndStr string) (time.Time, error) {
	if timeToEndStr == "" {
		return time.Time{}, nil
	}

	now := time.Now()
	parsed, err := time.Parse("15:04", timeToEndStr) // 15:04 is the layout for HH:MM
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q (expected HH:MM): %w", timeToEndStr, err)
	}

	// Combine today's date with the parsed hour/min
	result := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())

	// If the time has already passed today, assume they mean tomorrow
	if result.Before(now) {
		result = result.Add(24 * time.Hour)
	}

	return result, nil
}
