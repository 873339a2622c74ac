package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
	"github.com/kozaktomas/classroom-monitor/internal/vision"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <frames-dir>",
	Short: "Analyze a directory of captured frames",
	Long: `Analyze a sequence of captured webcam frames with the face detector and
replay the resulting signals through the attention tracker.

Frames are read from the directory in file-name order (jpg, jpeg, png, gif,
webp and bmp). Detection runs in parallel; the tracker then consumes the
frames in order on a virtual clock at --fps. Frames that cannot be decoded or
analyzed are skipped but still advance the clock.

Examples:
  # Analyze frames exported at 30 fps
  classroom-monitor analyze ./capture

  # Use a detector on another host with more parallel requests
  classroom-monitor analyze ./capture --detector-url http://gpu-box:8000 --concurrency 8

  # JSON output for scripting
  classroom-monitor analyze ./capture --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("concurrency", constants.AnalyzeConcurrency, "Number of frames analyzed in parallel")
	analyzeCmd.Flags().String("detector-url", "", "Face detector URL (overrides DETECTOR_URL)")
	analyzeCmd.Flags().Int("fps", constants.DefaultReplayFPS, "Frame rate the frames were captured at")
	analyzeCmd.Flags().String("session", "analyze", "Session ID used for the analysis")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// signalSource turns a decoded frame into tracker signals.
type signalSource interface {
	Analyze(ctx context.Context, frame *vision.Frame) (attention.Signals, error)
}

// frameOutcome is the analysis result of one frame file.
type frameOutcome struct {
	signals attention.Signals
	err     error
}

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// listFrames returns the image files of dir sorted by name.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frames directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func analyzeFile(ctx context.Context, source signalSource, path string) (attention.Signals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attention.Signals{}, fmt.Errorf("reading %s: %w", path, err)
	}
	frame, err := vision.DecodeFrame(data)
	if err != nil {
		return attention.Signals{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return source.Analyze(ctx, frame)
}

// analyzeFrames analyzes paths with at most concurrency requests in flight.
// Outcomes keep the order of paths.
func analyzeFrames(ctx context.Context, source signalSource, paths []string, concurrency int, onDone func()) []frameOutcome {
	outcomes := make([]frameOutcome, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			signals, err := analyzeFile(ctx, source, path)
			outcomes[i] = frameOutcome{signals: signals, err: err}

			if onDone != nil {
				onDone()
			}
		}(i, path)
	}

	wg.Wait()
	return outcomes
}

// replayOutcomes feeds analyzed frames to a fresh tracker in order.
func replayOutcomes(policy attention.Policy, outcomes []frameOutcome, sessionID string, fps int, start time.Time) RunResult {
	runner := newSequenceRunner(policy, sessionID, fps, start)
	for _, o := range outcomes {
		if o.err != nil {
			runner.skip()
			continue
		}
		runner.feed(o.signals)
	}
	return runner.finish()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	detectorURL := mustGetString(cmd, "detector-url")
	fps := mustGetInt(cmd, "fps")
	sessionID := mustGetString(cmd, "session")
	jsonOutput := mustGetBool(cmd, "json")

	if fps <= 0 {
		return errors.New("--fps must be positive")
	}
	if concurrency <= 0 {
		return errors.New("--concurrency must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if detectorURL == "" {
		detectorURL = cfg.Detector.URL
	}

	paths, err := listFrames(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image frames found in %s", args[0])
	}

	detector := vision.NewRemoteDetector(detectorURL, cfg.Detector.Timeout)
	analyzer := vision.NewRemoteAnalyzer(detector)

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Analyzing %d frames with detector at %s\n\n", len(paths), detector.BaseURL())
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Analyzing frames"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	outcomes := analyzeFrames(context.Background(), analyzer, paths, concurrency, func() {
		if bar != nil {
			bar.Add(1)
		}
	})
	failed := 0
	var firstErr error
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.err
			}
		}
	}

	result := replayOutcomes(cfg.Policy, outcomes, sessionID, fps, time.Now().UTC())

	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Println()
	fmt.Println()
	if failed > 0 {
		fmt.Printf("Skipped %d frames, first error: %v\n\n", failed, firstErr)
	}
	printWarnings(result.Warnings)
	printSummary(result.Summary)
	return nil
}
