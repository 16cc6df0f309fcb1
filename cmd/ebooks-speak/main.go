package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/ebooks/internal/logging"
	"github.com/cognicore/ebooks/pkg/ebooks"
	"github.com/cognicore/ebooks/pkg/ebooks/config"
	"github.com/cognicore/ebooks/pkg/ebooks/generate"
	"github.com/cognicore/ebooks/pkg/ebooks/metrics"
	"github.com/cognicore/ebooks/pkg/ebooks/store/sqlite"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file (optional)")
		modelPath   = flag.String("model", "", "Model path (overrides model_path)")
		reply       = flag.String("reply", "", "Reply to this text instead of making a statement")
		interactive = flag.Bool("i", false, "Reply to each line read from stdin")
		count       = flag.Int("n", 1, "Number of texts to produce")
		limit       = flag.Int("limit", 0, "Character limit (overrides statement_limit/reply_limit)")
		seed        = flag.Uint64("seed", 0, "Random seed for reproducible output (0 = random)")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	closer, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		shutdown := metrics.StartServer(cfg.Metrics.Addr, reg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	var rnd generate.Rand
	if *seed != 0 {
		rnd = generate.NewSeeded(*seed)
	}
	bot, err := openModel(ctx, cfg, met, rnd)
	if err != nil {
		log.Fatal(err)
	}

	s := speaker{
		Bot:            bot,
		Out:            os.Stdout,
		Warn:           os.Stderr,
		StatementLimit: cfg.StatementLimit,
		ReplyLimit:     cfg.ReplyLimit,
	}
	if *limit > 0 {
		s.StatementLimit, s.ReplyLimit = *limit, *limit
	}

	switch {
	case *interactive:
		err = s.replyLines(os.Stdin)
	case *reply != "":
		err = s.replies(*reply, *count)
	default:
		err = s.statements(*count)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openModel(ctx context.Context, cfg *config.Config, met *metrics.Metrics, rnd generate.Rand) (*ebooks.Model, error) {
	comp, err := (&config.Loader{StoplistPath: cfg.Stoplist}).Load()
	if err != nil {
		return nil, err
	}

	st, err := sqlite.Open(ctx, cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return ebooks.Open(ctx, st, ebooks.Options{
		Language:   comp.Language,
		Rand:       rnd,
		RetryLimit: cfg.RetryLimit,
		Passes:     cfg.Passes,
		Metrics:    met,
		Logger:     logging.WithComponent("speak"),
	})
}

// speaker prints bot output, flagging texts that missed a constraint.
type speaker struct {
	Bot            ebooks.Bot
	Out            io.Writer
	Warn           io.Writer
	StatementLimit int
	ReplyLimit     int
}

func (s *speaker) statements(n int) error {
	for i := 0; i < n; i++ {
		res, err := s.Bot.Statement(s.StatementLimit)
		if err != nil {
			return err
		}
		s.print(res.Text, res.Exhausted)
	}
	return nil
}

func (s *speaker) replies(input string, n int) error {
	for i := 0; i < n; i++ {
		res, err := s.Bot.Reply(input, s.ReplyLimit)
		if err != nil {
			return err
		}
		s.print(res.Text, res.Exhausted)
	}
	return nil
}

func (s *speaker) replyLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if err := s.replies(input, 1); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *speaker) print(text string, exhausted bool) {
	if exhausted {
		fmt.Fprintln(s.Warn, "warning: retry limit reached, text may be over length or verbatim")
	}
	fmt.Fprintln(s.Out, text)
}
