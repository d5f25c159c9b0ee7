// Package report implements the reporting sinks the trial runner pushes
// metrics to: structured log lines, a terminal chart drawn at completion,
// and an append-only CSV analysis log.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"cipherprobe/trial"
)

// Zerolog emits one structured line per round and one at completion.
type Zerolog struct {
	log zerolog.Logger
}

func NewZerolog(log zerolog.Logger) *Zerolog {
	return &Zerolog{log: log}
}

func (z *Zerolog) Report(round int, loss, accuracy float64) {
	z.log.Info().Int("round", round).Float64("loss", loss).Float64("accuracy", accuracy).Msg("round")
}

func (z *Zerolog) ReportFinal(res *trial.Result) {
	if res.State == trial.Failed {
		z.log.Error().Str("trial", res.Name).Err(res.Err).Msg("trial failed")
		return
	}
	z.log.Info().
		Str("trial", res.Name).
		Float64("loss", res.FinalLoss).
		Float64("accuracy", res.FinalAccuracy).
		Str("verdict", res.Verdict.String()).
		Bool("success", res.Success).
		Msg("trial completed")
}

// Chart collects round metrics and draws a terminal accuracy chart plus a
// summary once the trial finishes.
type Chart struct {
	out    io.Writer
	rounds []trial.RoundMetrics
}

// NewChart writes to out; pass os.Stdout for interactive runs.
func NewChart(out io.Writer) *Chart {
	return &Chart{out: out}
}

func (c *Chart) Report(round int, loss, accuracy float64) {
	c.rounds = append(c.rounds, trial.RoundMetrics{Round: round, Loss: loss, Accuracy: accuracy})
}

// maxBars keeps long trials readable; rounds are downsampled evenly.
const maxBars = 25

func (c *Chart) ReportFinal(res *trial.Result) {
	section := pterm.DefaultSection.WithWriter(c.out)
	if res.State == trial.Failed {
		section.Printfln("Trial %s", res.Name)
		pterm.Error.WithWriter(c.out).Printfln("failed: %v", res.Err)
		return
	}
	section.Printfln("Trial %s", res.Name)

	if len(c.rounds) > 0 {
		step := 1
		if len(c.rounds) > maxBars {
			step = (len(c.rounds) + maxBars - 1) / maxBars
		}
		var bars []pterm.Bar
		for i := 0; i < len(c.rounds); i += step {
			m := c.rounds[i]
			bars = append(bars, pterm.Bar{
				Label: strconv.Itoa(m.Round),
				Value: int(m.Accuracy * 100),
			})
		}
		if err := pterm.DefaultBarChart.WithWriter(c.out).WithBars(bars).Render(); err != nil {
			pterm.Error.WithWriter(c.out).Printfln("rendering accuracy chart: %v", err)
		}
	}

	data := pterm.TableData{
		{"final loss", fmt.Sprintf("%.4f", res.FinalLoss)},
		{"final accuracy", fmt.Sprintf("%.4f", res.FinalAccuracy)},
		{"verdict", res.Verdict.String()},
		{"took", res.Duration.Round(time.Millisecond).String()},
	}
	if err := pterm.DefaultTable.WithWriter(c.out).WithData(data).Render(); err != nil {
		pterm.Error.WithWriter(c.out).Printfln("rendering summary: %v", err)
	}
	if res.Success {
		pterm.Success.WithWriter(c.out).Println("success")
	} else {
		pterm.Warning.WithWriter(c.out).Println("no success under the configured thresholds")
	}
}

// CSV appends one row per finished trial to an analysis log, writing the
// header when it creates the file.
type CSV struct {
	path    string
	summary string
	log     zerolog.Logger
}

// NewCSV records rows at path. The summary column carries a one-line
// description of the trial configuration.
func NewCSV(path, summary string, log zerolog.Logger) *CSV {
	return &CSV{path: path, summary: summary, log: log}
}

func (c *CSV) Report(round int, loss, accuracy float64) {}

func (c *CSV) ReportFinal(res *trial.Result) {
	if err := c.append(res); err != nil {
		c.log.Error().Err(err).Str("path", c.path).Msg("writing analysis log")
	}
}

func (c *CSV) append(res *trial.Result) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var needsHeader bool
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		needsHeader = true
	}
	file, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if needsHeader {
		if err := w.Write([]string{
			"Name", "Config", "State", "Rounds", "FinalLoss", "FinalAccuracy",
			"Verdict", "Success", "Error", "EndTime", "SecondsToRun",
		}); err != nil {
			return err
		}
	}
	failure := ""
	if res.Err != nil {
		failure = res.Err.Error()
	}
	if err := w.Write([]string{
		res.Name,
		c.summary,
		res.State.String(),
		strconv.Itoa(len(res.Rounds)),
		fmt.Sprintf("%.6f", res.FinalLoss),
		fmt.Sprintf("%.6f", res.FinalAccuracy),
		res.Verdict.String(),
		strconv.FormatBool(res.Success),
		failure,
		time.Now().UTC().Format(time.RFC3339),
		fmt.Sprintf("%.1f", res.Duration.Seconds()),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
