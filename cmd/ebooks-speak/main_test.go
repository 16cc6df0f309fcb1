package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/ebooks/pkg/ebooks"
	"github.com/cognicore/ebooks/pkg/ebooks/compose"
	"github.com/cognicore/ebooks/pkg/ebooks/config"
	"github.com/cognicore/ebooks/pkg/ebooks/generate"
	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/store/sqlite"
)

type fakeBot struct {
	limits  []int
	inputs  []string
	results []compose.Result
}

func (b *fakeBot) next() compose.Result {
	res := b.results[0]
	if len(b.results) > 1 {
		b.results = b.results[1:]
	}
	return res
}

func (b *fakeBot) Statement(limit int) (compose.Result, error) {
	b.limits = append(b.limits, limit)
	return b.next(), nil
}

func (b *fakeBot) Reply(input string, limit int) (compose.Result, error) {
	b.limits = append(b.limits, limit)
	b.inputs = append(b.inputs, input)
	return b.next(), nil
}

func TestSpeakerStatements(t *testing.T) {
	bot := &fakeBot{results: []compose.Result{
		{Text: "one fine day"},
		{Text: "too long to fit", Exhausted: true},
	}}
	var out, warn bytes.Buffer
	s := speaker{Bot: bot, Out: &out, Warn: &warn, StatementLimit: 280, ReplyLimit: 140}

	if err := s.statements(2); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "one fine day\ntoo long to fit\n" {
		t.Errorf("output = %q", got)
	}
	if strings.Count(warn.String(), "warning") != 1 {
		t.Errorf("expected one warning, got %q", warn.String())
	}
	if len(bot.limits) != 2 || bot.limits[0] != 280 {
		t.Errorf("limits = %v", bot.limits)
	}
}

func TestSpeakerReplyLines(t *testing.T) {
	bot := &fakeBot{results: []compose.Result{{Text: "ok"}}}
	var out, warn bytes.Buffer
	s := speaker{Bot: bot, Out: &out, Warn: &warn, StatementLimit: 280, ReplyLimit: 140}

	if err := s.replyLines(strings.NewReader("hello there\n\n  how are you  \n")); err != nil {
		t.Fatal(err)
	}
	if len(bot.inputs) != 2 || bot.inputs[1] != "how are you" {
		t.Errorf("inputs = %q", bot.inputs)
	}
	if bot.limits[0] != 140 {
		t.Errorf("reply limit = %d, want 140", bot.limits[0])
	}
	if warn.Len() != 0 {
		t.Errorf("unexpected warning %q", warn.String())
	}
}

func TestOpenModel(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ModelPath = filepath.Join(dir, "model.db")

	if _, err := openModel(ctx, cfg, nil, nil); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Fatalf("missing model: %v, want ErrStoreUnavailable", err)
	}

	built := ebooks.IngestLines([]string{
		"the cat sat on the mat.",
		"the dog sat on the rug.",
		"a cat and a dog sat together on the mat.",
	}, ebooks.Options{})
	if _, err := sqlite.Publish(ctx, cfg.ModelPath, built.Snapshot()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	model, err := openModel(ctx, cfg, nil, generate.NewSeeded(1))
	if err != nil {
		t.Fatalf("openModel: %v", err)
	}
	var out, warn bytes.Buffer
	s := speaker{Bot: model, Out: &out, Warn: &warn, StatementLimit: 140, ReplyLimit: 140}
	if err := s.replies("cat", 3); err != nil {
		t.Fatalf("replies: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out.String()), "\n"); len(lines) != 3 {
		t.Errorf("expected 3 replies, got %q", out.String())
	}
}
