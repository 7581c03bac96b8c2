// Package main provides the CLI entry point for fieldlapse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fieldlapse/fieldlapse"
	"github.com/fieldlapse/fieldlapse/internal/util"
)

const (
	appName    = "fieldlapse"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "process":
		if err := runProcess(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "batch":
		if err := runBatch(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "analyze":
		if err := runAnalyze(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("%s version %s\n", appName, appVersion)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - motion-adaptive video re-encoding

Usage:
  %s <command> [options]

Commands:
  process   Re-encode a single video file
  batch     Re-encode every video file in a directory
  analyze   Run motion analysis only and write an analysis report
  version   Print version information
  help      Show this help message

Run '%s process --help' for options.
`, appName, appName, appName)
}

// jobArgs holds the flags shared by the process and batch commands.
type jobArgs struct {
	inputPath  string
	outputPath string
	logDir     string
	verbose    bool
	profile    string
	priority   string
	roi        bool
	workers    uint
	jsonOutput bool
	noLog      bool
}

func parseJobArgs(cmdName string, args []string) (jobArgs, *flag.FlagSet) {
	fs := flag.NewFlagSet(cmdName, flag.ExitOnError)
	var ja jobArgs
	fs.StringVar(&ja.inputPath, "i", "", "Input video file or directory")
	fs.StringVar(&ja.inputPath, "input", "", "Input video file or directory")
	fs.StringVar(&ja.outputPath, "o", "", "Output path")
	fs.StringVar(&ja.outputPath, "output", "", "Output path")
	fs.StringVar(&ja.logDir, "l", "", "Log directory")
	fs.StringVar(&ja.logDir, "log-dir", "", "Log directory")
	fs.BoolVar(&ja.verbose, "v", false, "Enable verbose logging")
	fs.BoolVar(&ja.verbose, "verbose", false, "Enable verbose logging")
	fs.StringVar(&ja.profile, "profile", "", "Compression profile (default: balanced)")
	fs.StringVar(&ja.priority, "priority", "normal", "Queue priority: low, normal, high, urgent")
	fs.BoolVar(&ja.roi, "roi", false, "Enable region-of-interest adjusted settings")
	fs.UintVar(&ja.workers, "workers", 0, "Concurrent job workers (0: size from available memory)")
	fs.BoolVar(&ja.jsonOutput, "json", false, "Emit newline-delimited JSON progress events instead of a terminal display")
	fs.BoolVar(&ja.noLog, "no-log", false, "Disable log file creation")
	return ja, fs
}

func buildSystem(ja jobArgs) (*fieldlapse.System, error) {
	opts := []fieldlapse.Option{fieldlapse.WithWorkers(int(ja.workers))}
	if !ja.noLog {
		logDir := ja.logDir
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			logDir = filepath.Join(homeDir, ".local", "state", appName, "logs")
		}
		opts = append(opts, fieldlapse.WithLogDir(logDir))
	}
	if ja.verbose {
		opts = append(opts, fieldlapse.WithVerbose())
	}
	return fieldlapse.New(opts...)
}

func buildRequest(ja jobArgs, input, output string) fieldlapse.Request {
	return fieldlapse.Request{
		InputPath:   input,
		OutputPath:  output,
		ProfileName: ja.profile,
		ROIEnabled:  ja.roi,
		Priority:    fieldlapse.Priority(ja.priority),
	}
}

func runProcess(args []string) error {
	ja, fs := parseJobArgs("process", args)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Re-encode a single video file.\n\nUsage:\n  %s process -i <input> -o <output> [options]\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ja.inputPath == "" {
		return fmt.Errorf("input path is required (-i/--input)")
	}
	if ja.outputPath == "" {
		return fmt.Errorf("output path is required (-o/--output)")
	}

	sys, err := buildSystem(ja)
	if err != nil {
		return err
	}
	defer sys.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyOnSignal(cancel)

	var sub func(fieldlapse.Event)
	if ja.jsonOutput {
		sub = newJSONSubscriber(os.Stdout).handle
	} else {
		sub = newTerminalSubscriber().handle
	}

	// -o may be either an explicit filename (recognized video extension)
	// or a directory the output name is derived into.
	outInfo, err := util.ResolveOutputArg(ja.inputPath, ja.outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", ja.outputPath, err)
	}
	outPath := util.ResolveOutputPath(ja.inputPath, outInfo.OutputDir, outInfo.FilenameOverride, "mp4")

	started := time.Now()
	jobID, err := sys.Submit(buildRequest(ja, ja.inputPath, outPath))
	if err != nil {
		return err
	}
	sys.Subscribe(jobID, sub)

	if err := waitForTerminal(ctx, sys, jobID); err != nil {
		return err
	}
	if snap, ok := sys.Status(jobID); ok && !ja.jsonOutput {
		printJobSummary(snap, time.Since(started))
	}
	return nil
}

func printJobSummary(snap fieldlapse.Snapshot, elapsed time.Duration) {
	fmt.Printf("\n  output:     %s\n", snap.OutputPath)
	fmt.Printf("  original:   %s\n", util.FormatBytesReadable(snap.OriginalSizeBytes))
	fmt.Printf("  compressed: %s\n", util.FormatBytesReadable(snap.CompressedSizeBytes))
	fmt.Printf("  reduction:  %.1f%%\n", util.CalculateSizeReduction(snap.OriginalSizeBytes, snap.CompressedSizeBytes))
	fmt.Printf("  elapsed:    %s\n", util.FormatDuration(elapsed.Seconds()))
	if snap.Validation != nil && !snap.Validation.IsValid() {
		for _, failure := range snap.Validation.GetFailures() {
			fmt.Printf("  validation: %s\n", failure)
		}
	}
}

func runAnalyze(args []string) error {
	ja, fs := parseJobArgs("analyze", args)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Run motion analysis only, writing <output>/analysis/<job id>/analysis_report.json.\n\nUsage:\n  %s analyze -i <input> -o <output dir> [options]\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ja.inputPath == "" {
		return fmt.Errorf("input path is required (-i/--input)")
	}
	if ja.outputPath == "" {
		ja.outputPath = "."
	}

	sys, err := buildSystem(ja)
	if err != nil {
		return err
	}
	defer sys.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyOnSignal(cancel)

	var sub func(fieldlapse.Event)
	if ja.jsonOutput {
		sub = newJSONSubscriber(os.Stdout).handle
	} else {
		sub = newTerminalSubscriber().handle
	}

	req := buildRequest(ja, ja.inputPath, ja.outputPath)
	req.AnalysisOnly = true
	jobID, err := sys.Submit(req)
	if err != nil {
		return err
	}
	sys.Subscribe(jobID, sub)

	if err := waitForTerminal(ctx, sys, jobID); err != nil {
		return err
	}
	fmt.Printf("analysis report: %s\n", filepath.Join(ja.outputPath, "analysis", jobID, "analysis_report.json"))
	return nil
}

func runBatch(args []string) error {
	ja, fs := parseJobArgs("batch", args)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Re-encode every video file in a directory.\n\nUsage:\n  %s batch -i <input dir> -o <output dir> [options]\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if ja.inputPath == "" {
		return fmt.Errorf("input directory is required (-i/--input)")
	}
	if ja.outputPath == "" {
		return fmt.Errorf("output directory is required (-o/--output)")
	}

	sys, err := buildSystem(ja)
	if err != nil {
		return err
	}
	defer sys.Close()

	files, err := sys.FindVideos(ja.inputPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyOnSignal(cancel)

	var sub func(fieldlapse.Event)
	if ja.jsonOutput {
		sub = newJSONSubscriber(os.Stdout).handle
	} else {
		sub = newTerminalSubscriber().handle
	}
	sys.SubscribeAll(sub)

	reqs := make([]fieldlapse.Request, len(files))
	for i, f := range files {
		out := util.ResolveOutputPath(f, ja.outputPath, "", "mp4")
		reqs[i] = buildRequest(ja, f, out)
	}

	_, jobIDs, err := sys.SubmitBatch(reqs)
	if err != nil {
		return err
	}

	var failed int
	for _, id := range jobIDs {
		if err := waitForTerminal(ctx, sys, id); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobIDs))
	}
	return nil
}

// waitForTerminal polls jobID's status until it reaches a terminal state or
// ctx is cancelled. The orchestrator's own progress delivery is
// event-driven; this poll only gates CLI process exit.
func waitForTerminal(ctx context.Context, sys *fieldlapse.System, jobID string) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sys.Cancel(jobID)
			return ctx.Err()
		case <-ticker.C:
			snap, ok := sys.Status(jobID)
			if !ok {
				return fmt.Errorf("job %s vanished", jobID)
			}
			if !snap.Status.Terminal() {
				continue
			}
			if snap.Status != fieldlapse.StatusCompleted {
				if snap.ErrorMessage != "" {
					return fmt.Errorf("job %s %s: %s", jobID, snap.Status, snap.ErrorMessage)
				}
				return fmt.Errorf("job %s %s", jobID, snap.Status)
			}
			return nil
		}
	}
}

func notifyOnSignal(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
}
