package gradectl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"graded/pkg/types"
)

// assessmentFile is the on-disk shape accepted by `gradectl batch`.
type assessmentFile struct {
	Items []assessmentItem `json:"items" yaml:"items"`
}

type assessmentItem struct {
	Question     string `json:"question" yaml:"question"`
	MarkingGuide string `json:"marking_guide" yaml:"marking_guide"`
	MaxScore     int    `json:"max_score" yaml:"max_score"`
	Answer       string `json:"answer" yaml:"answer"`
	ImagePath    string `json:"image_path" yaml:"image_path"`
}

// loadItems reads an assessment file (.yaml/.yml/.json) into grading
// requests, loading any referenced answer images from disk.
func loadItems(path string) ([]types.GradingRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var af assessmentFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &af); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(b, &af); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported assessment extension: %s", ext)
	}
	if len(af.Items) == 0 {
		return nil, fmt.Errorf("assessment file has no items")
	}
	items := make([]types.GradingRequest, 0, len(af.Items))
	for i, it := range af.Items {
		req := types.GradingRequest{
			QuestionText: it.Question,
			MarkingGuide: it.MarkingGuide,
			MaxScore:     it.MaxScore,
			StudentText:  it.Answer,
		}
		if it.ImagePath != "" {
			img, err := os.ReadFile(it.ImagePath)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: read image: %w", i, err)
			}
			req.StudentImage = img
		}
		items = append(items, req)
	}
	return items, nil
}

func newBatchCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <assessment.yaml|json>",
		Short: "Grade a batch of answers, streaming per-item progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadItems(args[0])
			if err != nil {
				return err
			}
			return runBatch(cfg, items)
		},
	}
}

// runBatch posts the items and renders the NDJSON progress stream. It
// returns an error when the batch did not complete.
func runBatch(cfg *Config, items []types.GradingRequest) error {
	body, err := json.Marshal(types.BatchGradeRequest{Items: items})
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 0} // generation can take minutes per item
	resp, err := client.Post(cfg.Addr+"/grade/batch", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var report *types.BatchReport
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	start := time.Now()
	for sc.Scan() {
		var line types.BatchProgressLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return fmt.Errorf("bad progress line: %w", err)
		}
		switch {
		case line.Progress != nil:
			p := line.Progress
			score := "-"
			if p.Result.Score != nil {
				score = fmt.Sprintf("%d", *p.Result.Score)
			}
			fmt.Fprintf(cfg.Out, "item %d done (%d/%d) score=%s %s\n",
				p.Index+1, p.Completed, p.Completed+p.Remaining, score, p.Result.Feedback)
		case line.Report != nil:
			report = line.Report
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("stream ended without a final report")
	}
	fmt.Fprintf(cfg.Out, "batch %s: %d graded, %d remaining in %s\n",
		report.Status, report.Completed, report.Remaining, time.Since(start).Round(time.Second))
	if report.Status != types.BatchCompleted {
		return fmt.Errorf("batch %s: %s", report.Status, report.Reason)
	}
	return nil
}

// getJSON fetches a path and pretty-prints the JSON body.
func getJSON(cfg *Config, path string) error {
	resp, err := http.Get(cfg.Addr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, b, "", "  "); err != nil {
		pretty.Write(b)
	}
	fmt.Fprintln(cfg.Out, pretty.String())
	return nil
}
