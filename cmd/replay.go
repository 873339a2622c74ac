package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <signals.jsonl>",
	Short: "Replay recorded per-frame signals through the attention tracker",
	Long: `Replay a recording of per-frame detection signals through the attention
tracker and report the warnings it would have produced.

The input holds one JSON object per line, one line per frame, in the same
shape the /api/attention/signals endpoint accepts:

  {"faces":[{"bbox":{"x":120,"y":80,"w":200,"h":200},"eyes_detected":2,"head_tilt":"center","head_nod":"center"}]}
  {"faces":[]}

Frames are replayed on a virtual clock at --fps, so eye-closure timing matches
the original capture rate and the replay runs as fast as the CPU allows.

Examples:
  # Replay a recording captured at 30 fps
  classroom-monitor replay lesson.jsonl

  # Recording captured at 15 fps, with stricter thresholds
  classroom-monitor replay lesson.jsonl --fps 15 --policy strict.yaml

  # JSON output for scripting
  classroom-monitor replay lesson.jsonl --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Int("fps", constants.DefaultReplayFPS, "Frame rate the signals were captured at")
	replayCmd.Flags().String("session", "replay", "Session ID used for the replay")
	replayCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// FrameWarning is a warning together with its position in a frame sequence.
type FrameWarning struct {
	Frame         int               `json:"frame"` // 1-based
	OffsetSeconds float64           `json:"offset_seconds"`
	Warning       attention.Warning `json:"warning"`
}

// Offset returns the position of the frame from the start of the sequence.
func (w FrameWarning) Offset() time.Duration {
	return time.Duration(w.OffsetSeconds * float64(time.Second))
}

// RunResult is the outcome of feeding a frame sequence through a tracker.
type RunResult struct {
	Frames   int               `json:"frames"`
	Skipped  int               `json:"skipped,omitempty"`
	FPS      int               `json:"fps"`
	Warnings []FrameWarning    `json:"warnings"`
	Summary  attention.Summary `json:"summary"`
}

// sequenceRunner feeds frames to a tracker on a virtual clock advancing one
// frame interval per frame.
type sequenceRunner struct {
	tracker   *attention.Tracker
	sessionID string
	fps       int
	interval  time.Duration
	start     time.Time
	now       time.Time
	frames    int
	skipped   int
	warnings  []FrameWarning
}

func newSequenceRunner(policy attention.Policy, sessionID string, fps int, start time.Time) *sequenceRunner {
	r := &sequenceRunner{
		tracker:   attention.NewTracker(policy, attention.NewStore(0)),
		sessionID: sessionID,
		fps:       fps,
		interval:  time.Second / time.Duration(fps),
		start:     start,
		now:       start,
		warnings:  []FrameWarning{},
	}
	r.tracker.SetClock(func() time.Time { return r.now })
	r.tracker.Start(sessionID)
	return r
}

// feed processes one frame and advances the clock.
func (r *sequenceRunner) feed(signals attention.Signals) attention.Result {
	r.frames++
	res := r.tracker.Process(r.sessionID, signals)
	if res.Warning != nil {
		r.warnings = append(r.warnings, FrameWarning{
			Frame:         r.frames,
			OffsetSeconds: r.now.Sub(r.start).Seconds(),
			Warning:       *res.Warning,
		})
	}
	r.now = r.now.Add(r.interval)
	return res
}

// skip advances the clock over a frame that could not be analyzed.
func (r *sequenceRunner) skip() {
	r.frames++
	r.skipped++
	r.now = r.now.Add(r.interval)
}

// finish stops the session and returns the run result.
func (r *sequenceRunner) finish() RunResult {
	return RunResult{
		Frames:   r.frames,
		Skipped:  r.skipped,
		FPS:      r.fps,
		Warnings: r.warnings,
		Summary:  r.tracker.Stop(r.sessionID),
	}
}

// readSignalsFile parses a JSON-lines recording. Blank lines are ignored.
func readSignalsFile(path string) ([]attention.Signals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	var frames []attention.Signals
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var signals attention.Signals
		if err := json.Unmarshal([]byte(text), &signals); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, signals)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	return frames, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	fps := mustGetInt(cmd, "fps")
	sessionID := mustGetString(cmd, "session")
	jsonOutput := mustGetBool(cmd, "json")

	if fps <= 0 {
		return errors.New("--fps must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	frames, err := readSignalsFile(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames found in %s", args[0])
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Replaying %d frames at %d fps\n\n", len(frames), fps)
		bar = progressbar.NewOptions(len(frames),
			progressbar.OptionSetDescription("Replaying"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	runner := newSequenceRunner(cfg.Policy, sessionID, fps, time.Now().UTC())
	for _, signals := range frames {
		runner.feed(signals)
		if bar != nil {
			bar.Add(1)
		}
	}
	result := runner.finish()

	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Println()
	fmt.Println()
	printWarnings(result.Warnings)
	printSummary(result.Summary)
	return nil
}
