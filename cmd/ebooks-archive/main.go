package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/cognicore/ebooks/internal/corpus"
	"github.com/cognicore/ebooks/internal/logging"
)

func main() {
	var (
		inPath     = flag.String("in", "archive.json", "Fediverse archive export")
		outPath    = flag.String("o", "corpus.txt", "Plain-text corpus to write")
		linebreaks = flag.Bool("html-linebreaks", false, "Keep status line breaks as &#10;")
		logLevel   = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	closer, err := logging.Setup(logging.Options{Level: *logLevel})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	n, err := archive(*inPath, *outPath, corpus.CleanOptions{HTMLLinebreaks: *linebreaks}, logging.WithComponent("archive"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %d statuses to %s\n", n, *outPath)
}

// archive converts the statuses of a JSON export into one corpus line each.
func archive(in, out string, opts corpus.CleanOptions, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return 0, fmt.Errorf("read archive: %w", err)
	}
	lines := corpus.ParseJSON(data, opts, logger.With("path", in))

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create corpus: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	return len(lines), nil
}
