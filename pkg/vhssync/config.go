package vhssync

import "github.com/vhs-sync/timecode/pkg/vhs"

// Config configures NewService, built through functional options.
type Config struct {
	DBPath       string
	TempDir      string
	SampleRate   int
	Format       vhs.FormatParameters
	PhaseLengths vhs.PhaseLengths
	Logger       Logger
	Store        RunStore
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) { c.DBPath = path }
}

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

func WithFormat(format vhs.FormatParameters) Option {
	return func(c *Config) { c.Format = format }
}

func WithPhaseLengths(lengths vhs.PhaseLengths) Option {
	return func(c *Config) { c.PhaseLengths = lengths }
}

func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func WithRunStore(store RunStore) Option {
	return func(c *Config) { c.Store = store }
}

func defaultConfig() *Config {
	format := vhs.PAL()
	return &Config{
		DBPath:       "vhssync.sqlite3",
		TempDir:      "/tmp",
		SampleRate:   format.AudioSampleRate,
		Format:       format,
		PhaseLengths: vhs.DefaultPhaseLengthsPAL(),
		Logger:       nil,
	}
}
