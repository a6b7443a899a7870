// Command vhssyncd exposes the run store and the analyze operation over
// HTTP.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhssync"
)

var (
	port           int
	dbPath         string
	tempDir        string
	sampleRate     int
	allowedOrigins string
	ntsc           bool
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("VHSSYNC_DB_PATH", "vhssync.sqlite3"), "Path to SQLite run-history database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("VHSSYNC_TEMP_DIR", "/tmp"), "Temporary directory for demux output")
	flag.IntVar(&sampleRate, "rate", 48000, "Audio sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.BoolVar(&ntsc, "ntsc", false, "Use NTSC format parameters instead of PAL")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	format := vhs.PAL()
	lengths := vhs.DefaultPhaseLengthsPAL()
	if ntsc {
		format = vhs.NTSC()
		lengths = vhs.DefaultPhaseLengthsNTSC()
	}
	format.AudioSampleRate = sampleRate

	service, err := vhssync.NewService(
		vhssync.WithDBPath(dbPath),
		vhssync.WithTempDir(tempDir),
		vhssync.WithSampleRate(sampleRate),
		vhssync.WithFormat(format),
		vhssync.WithPhaseLengths(lengths),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
