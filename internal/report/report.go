// Package report writes the per-task run report: a markdown file holding
// the last run's output plus an HTML rendering used as the notification
// click target.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pietz/trigr/internal/models"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
pre { background: #f4f4f4; padding: 0.75rem; overflow-x: auto; }
</style>
</head>
<body>
`

// Write renders the run's output into <outputsDir>/<task>.md and
// <outputsDir>/<task>.html and returns the HTML path. Each run overwrites
// the previous report; history lives in the store.
func Write(outputsDir string, rec *models.RunRecord) (string, error) {
	if err := os.MkdirAll(outputsDir, 0755); err != nil {
		return "", fmt.Errorf("create outputs directory: %w", err)
	}

	md := buildMarkdown(rec)
	mdPath := filepath.Join(outputsDir, rec.TaskName+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, htmlHeader, rec.TaskName)
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render run report: %w", err)
	}
	buf.WriteString("</body>\n</html>\n")

	htmlPath := filepath.Join(outputsDir, rec.TaskName+".html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write run report html: %w", err)
	}
	return htmlPath, nil
}

func buildMarkdown(rec *models.RunRecord) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", rec.TaskName)
	fmt.Fprintf(&b, "- Classification: **%s**\n", rec.Classification)
	fmt.Fprintf(&b, "- Exit code: %d\n", rec.ExitCode)
	fmt.Fprintf(&b, "- Started: %s\n", rec.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n\n", rec.Duration().Round(time.Millisecond))

	switch {
	case rec.Stdout != "":
		fmt.Fprintf(&b, "## Output\n\n```\n%s\n```\n", rec.Stdout)
	case rec.Stderr == "":
		b.WriteString("(no output)\n")
	}
	if rec.Stderr != "" {
		fmt.Fprintf(&b, "## Errors\n\n```\n%s\n```\n", rec.Stderr)
	}
	return b.String()
}
