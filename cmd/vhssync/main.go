// Command vhssync is the CLI front end for the orchestration layer:
// generating test-pattern captures, analyzing captured footage, listing
// past analysis runs, and a couple of debug subcommands (spectrogram,
// simulate-jitter).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vhs-sync/timecode/pkg/logger"
	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhssync"
)

var (
	dbPath     string
	tempDir    string
	sampleRate int
	ntsc       bool
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("VHSSYNC_DB_PATH", "vhssync.sqlite3"), "Path to the SQLite run-history database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("VHSSYNC_TEMP_DIR", "/tmp"), "Directory for temporary demux output")
	flag.IntVar(&sampleRate, "rate", 48000, "Audio sample rate")
	flag.BoolVar(&ntsc, "ntsc", false, "Use NTSC format parameters instead of PAL")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func createService() (vhssync.Service, error) {
	format := vhs.PAL()
	lengths := vhs.DefaultPhaseLengthsPAL()
	if ntsc {
		format = vhs.NTSC()
		lengths = vhs.DefaultPhaseLengthsNTSC()
	}
	format.AudioSampleRate = sampleRate

	return vhssync.NewService(
		vhssync.WithDBPath(dbPath),
		vhssync.WithTempDir(tempDir),
		vhssync.WithSampleRate(sampleRate),
		vhssync.WithFormat(format),
		vhssync.WithPhaseLengths(lengths),
	)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	flag.CommandLine.Parse(os.Args[2:])
	log.Infof("Executing command: %s", command)

	switch command {
	case "generate":
		handleGenerate()
	case "analyze":
		handleAnalyze()
	case "runs":
		handleRuns()
	case "spectrogram":
		handleSpectrogram()
	case "simulate-jitter":
		handleSimulateJitter()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleGenerate() {
	log := logger.GetLogger()
	args := flag.CommandLine.Args()
	if len(args) < 2 {
		fmt.Println("Usage: vhssync generate <audio.wav> <frames-dir> [--cycles N]")
		os.Exit(1)
	}
	audioPath, framesDir := args[0], args[1]

	genCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	cycles := genCmd.Int("cycles", 1, "Number of cycles to generate")
	genCmd.Parse(args[2:])

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	meta, err := svc.GenerateCycles(ctx, audioPath, framesDir, *cycles)
	if err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		log.Errorf("GenerateCycles failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s cycle(s), %s frames\n", humanize.Comma(int64(*cycles)), humanize.Comma(int64(meta.FrameCount)))
	fmt.Printf("  audio:  %s\n", meta.AudioPath)
	fmt.Printf("  frames: %s\n", meta.FramesDir)
	fmt.Printf("  format: %s @ %.3f fps\n", meta.FormatType, meta.Fps)
}

func handleAnalyze() {
	log := logger.GetLogger()
	args := flag.CommandLine.Args()
	if len(args) < 1 {
		fmt.Println("Usage: vhssync analyze <capture-file>")
		os.Exit(1)
	}
	capturePath := args[0]

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := svc.AnalyzeFile(ctx, capturePath)
	if err != nil {
		fmt.Printf("Analyze failed: %v\n", err)
		log.Errorf("AnalyzeFile failed: %v", err)
		os.Exit(1)
	}

	printReport(report)
}

func handleRuns() {
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runs, err := svc.ListRuns(ctx)
	if err != nil {
		fmt.Printf("Failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return
	}

	for _, r := range runs {
		fmt.Printf("%s  %-24s  matches=%-4d  mean_offset=%8.6fs  %s ago\n",
			r.RunID, r.SourceLabel, r.MatchCount, r.MeanOffset, humanize.Time(r.CreatedAt))
	}
}

func printReport(report vhs.OffsetReport) {
	fmt.Printf("Matches:          %d\n", report.MatchCount)
	fmt.Printf("Mean offset:      %.6fs\n", report.MeanOffset)
	fmt.Printf("Std dev:          %.6fs\n", report.StdDev)
	fmt.Printf("Min/Max offset:   %.6fs / %.6fs\n", report.MinOffset, report.MaxOffset)
	fmt.Printf("Mean confidence:  %.2f\n", report.MeanConfidence)
	if report.OutliersTrimmed > 0 {
		fmt.Printf("Outliers trimmed: %d\n", report.OutliersTrimmed)
	}
}

func printUsage() {
	fmt.Println("vhssync - VHS timecode generator and sync-offset analyzer")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>     Run-history database (env: VHSSYNC_DB_PATH)")
	fmt.Println("  --temp <dir>    Temp directory for demux output (env: VHSSYNC_TEMP_DIR)")
	fmt.Println("  --rate <hz>     Audio sample rate (default: 48000)")
	fmt.Println("  --ntsc          Use NTSC format parameters")
	fmt.Println("\nUsage:")
	fmt.Println("  vhssync generate <audio.wav> <frames-dir> [--cycles N]")
	fmt.Println("  vhssync analyze <capture-file>")
	fmt.Println("  vhssync runs")
	fmt.Println("  vhssync spectrogram <audio.wav> <output.png>")
	fmt.Println("  vhssync simulate-jitter <in.wav> <out.wav> [--depth 0.002]")
}
