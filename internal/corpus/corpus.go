// Package corpus reads raw corpus files into lines of text. Plain text, CSV
// and JSON exports are understood, optionally gzip-compressed.
package corpus

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// Format is the shape of a corpus file.
type Format int

const (
	Plain Format = iota
	CSV
	JSON
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case JSON:
		return "json"
	default:
		return "plaintext"
	}
}

// DetectFormat picks the format from the file extension. A trailing .gz marks
// the file as compressed and the extension before it names the format.
func DetectFormat(path string) (Format, bool) {
	name := strings.ToLower(filepath.Base(path))
	gz := false
	if strings.HasSuffix(name, ".gz") {
		gz = true
		name = strings.TrimSuffix(name, ".gz")
	}
	switch filepath.Ext(name) {
	case ".json":
		return JSON, gz
	case ".csv":
		return CSV, gz
	default:
		return Plain, gz
	}
}

// Reader loads corpus files. Malformed records are dropped with a warning;
// only I/O failures are returned as errors.
type Reader struct {
	Logger *slog.Logger
	// Concurrency bounds how many files are decoded at once. Zero means 4.
	Concurrency int
	// Clean applies to status records in JSON files.
	Clean CleanOptions
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// ReadAll reads every path and returns their lines in path order.
func (r *Reader) ReadAll(ctx context.Context, paths []string) ([]string, error) {
	results := make([][]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lines, err := r.ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, lines := range results {
		out = append(out, lines...)
	}
	return out, nil
}

// ReadFile reads one corpus file.
func (r *Reader) ReadFile(path string) ([]string, error) {
	format, gz := DetectFormat(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if gz {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip corpus %s: %w", path, err)
		}
		defer zr.Close()
		src = zr
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	log := r.logger().With("path", path, "format", format.String(), "gzip", gz)
	log.Info("reading corpus")

	var lines []string
	switch format {
	case JSON:
		lines = ParseJSON(data, r.Clean, log)
	case CSV:
		lines = ParseCSV(data, log)
	default:
		lines = ParsePlain(data)
	}
	log.Info("corpus read", "lines", len(lines))
	return lines, nil
}

// ParsePlain splits newline-delimited text.
func ParsePlain(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// ParseCSV extracts the "text" column of a CSV export with a header row.
func ParseCSV(data []byte, log *slog.Logger) []string {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		log.Warn("skipping csv corpus without a readable header", "error", err)
		return nil
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == "text" {
			col = i
			break
		}
	}
	if col < 0 {
		log.Warn("skipping csv corpus without a text column", "header", header)
		return nil
	}

	var lines []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Warn("skipping malformed csv record", "line", perr.Line, "error", err)
			continue
		}
		if err != nil {
			log.Warn("stopping at unreadable csv record", "error", err)
			break
		}
		if col >= len(rec) {
			continue
		}
		lines = append(lines, rec[col])
	}
	return lines
}

// ParseJSON extracts text from a tweet-style array of {"text": ...} objects,
// a {"statuses": [...]} export, or a bare array of statuses. Status content
// goes through CleanStatus with opts.
func ParseJSON(data []byte, opts CleanOptions, log *slog.Logger) []string {
	var records []json.RawMessage

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		var wrapper struct {
			Statuses []json.RawMessage `json:"statuses"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil || wrapper.Statuses == nil {
			log.Warn("skipping json corpus of unrecognized shape", "error", err)
			return nil
		}
		records = wrapper.Statuses
	default:
		if err := json.Unmarshal(trimmed, &records); err != nil {
			log.Warn("skipping json corpus of unrecognized shape", "error", err)
			return nil
		}
	}

	var lines []string
	dropped := 0
	for _, raw := range records {
		text, ok := recordText(raw, opts)
		if !ok {
			dropped++
			continue
		}
		lines = append(lines, text)
	}
	if dropped > 0 {
		log.Warn("dropped json records without usable text", "dropped", dropped)
	}
	return lines
}

func recordText(raw json.RawMessage, opts CleanOptions) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", false
	}
	if _, isStatus := fields["content"]; isStatus {
		var st Status
		if err := json.Unmarshal(raw, &st); err != nil {
			return "", false
		}
		return CleanStatus(st, opts)
	}
	var text string
	if err := json.Unmarshal(fields["text"], &text); err != nil || text == "" {
		return "", false
	}
	return text, true
}
