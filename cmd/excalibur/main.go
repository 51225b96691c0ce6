// Command excalibur is a local flashcard review tool. Card content lives in
// per-card markdown files, scheduling state in a sqlite database, and the
// review schedule is driven by an FSRS scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Illyarb/Excalibur/internal/config"
	"github.com/Illyarb/Excalibur/internal/content"
	"github.com/Illyarb/Excalibur/internal/deck"
	"github.com/Illyarb/Excalibur/internal/domain"
	"github.com/Illyarb/Excalibur/internal/editor"
	"github.com/Illyarb/Excalibur/internal/engine"
	"github.com/Illyarb/Excalibur/internal/scheduler"
	"github.com/Illyarb/Excalibur/internal/stats"
	"github.com/Illyarb/Excalibur/internal/storage"
)

const usage = `usage: excalibur [flags] <command> [args]

commands:
  due [tags...]              list cards due for review, optionally filtered by tags
  review <id> <rating>       review a card (rating: 1-4 or again/hard/good/easy)
  preview <id>               show the next interval for each rating
  add <front> <back> [tags]  create a card
  show <id>                  print a card's content and schedule
  edit <id> <front|back>     edit a card side in the external editor
  delete <id>                delete a card and its review history
  duplicate <id> [tags...]   copy a card's content into a fresh card
  reset <id>                 reset a card's schedule, keeping its history
  tags [name]                list tags with due counts, or register a new tag
  retag <id> [tags...]       replace a card's tags
  stats                      print collection statistics
  import <dir|git-url> [tags...]  import deck files

flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("excalibur", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	configFile := flags.String("config", defaultConfigPath(), "path to the config file")
	flags.String("data_dir", "", "data directory")
	flags.String("editor", "", "editor command")
	flags.String("log_level", "", "log level (debug|info|warn|error)")
	flags.Float64("desired_retention", 0, "target recall probability")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ed := &editor.Editor{Command: cfg.Editor}
	e := engine.New(db, content.NewStore(cfg.ContentDir()), scheduler.NewFSRS(cfg.DesiredRetention), ed, log)

	app := &app{cfg: cfg, engine: e, stats: stats.New(db), log: log}
	ctx := context.Background()

	cmd, rest := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "due":
		return app.due(ctx, rest)
	case "review":
		return app.review(ctx, rest)
	case "preview":
		return app.preview(ctx, rest)
	case "add":
		return app.add(ctx, rest)
	case "show":
		return app.show(ctx, rest)
	case "edit":
		return app.edit(ctx, rest)
	case "delete":
		return app.delete(ctx, rest)
	case "duplicate":
		return app.duplicate(ctx, rest)
	case "reset":
		return app.reset(ctx, rest)
	case "tags":
		return app.tags(ctx, rest)
	case "retag":
		return app.retag(ctx, rest)
	case "stats":
		return app.showStats(ctx)
	case "import":
		return app.importDecks(ctx, rest)
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".excalibur", "config.yaml")
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

type app struct {
	cfg    *config.Config
	engine *engine.Engine
	stats  *stats.Aggregator
	log    *slog.Logger
}

func (a *app) due(ctx context.Context, tags []string) error {
	cards, err := a.engine.DueCards(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	cards = engine.FilterByTags(cards, tags)
	if len(cards) == 0 {
		fmt.Println("No cards due.")
		return nil
	}
	for _, card := range cards {
		front, _, err := a.engine.CardContent(card.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  [%s]  %s\n", card.ID, card.State, firstLine(front))
	}
	fmt.Printf("%d cards due.\n", len(cards))
	return nil
}

func (a *app) review(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: review <id> <rating>")
	}
	rating, err := domain.ParseRating(args[1])
	if err != nil {
		return err
	}
	card, err := a.engine.Review(ctx, args[0], rating)
	if err != nil {
		return err
	}
	fmt.Printf("Rated %s. Next review: %s (%s)\n",
		rating, card.Due.Format(time.RFC3339),
		engine.FormatInterval(time.Until(card.Due)))
	return nil
}

func (a *app) preview(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: preview <id>")
	}
	intervals, err := a.engine.PreviewNextDue(ctx, args[0])
	if err != nil {
		return err
	}
	for _, rating := range domain.Ratings() {
		fmt.Printf("%-6s %s\n", rating, intervals[rating])
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: add <front> <back> [tags...]")
	}
	id, err := a.engine.CreateCard(ctx, args[0], args[1], args[2:])
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <id>")
	}
	card, err := a.engine.Card(ctx, args[0])
	if err != nil {
		return err
	}
	front, back, err := a.engine.CardContent(card.ID)
	if err != nil {
		return err
	}

	fmt.Printf("id:     %s\n", card.ID)
	fmt.Printf("state:  %s\n", card.State)
	fmt.Printf("due:    %s\n", card.Due.Format(time.RFC3339))
	fmt.Printf("reps:   %d  lapses: %d\n", card.Reps, card.Lapses)
	if len(card.Tags) > 0 {
		fmt.Printf("tags:   %s\n", strings.Join(card.Tags, ", "))
	}
	fmt.Printf("\n%s\n\n---\n\n%s\n", front, back)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: edit <id> <front|back>")
	}
	_, err := a.engine.EditCard(ctx, args[0], content.Side(args[1]))
	return err
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	return a.engine.DeleteCard(ctx, args[0])
}

func (a *app) duplicate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: duplicate <id> [tags...]")
	}
	var tags []string
	if len(args) > 1 {
		tags = args[1:]
	}
	id, err := a.engine.DuplicateCard(ctx, args[0], tags)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reset <id>")
	}
	return a.engine.ResetCard(ctx, args[0])
}

func (a *app) tags(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.engine.NewTag(ctx, args[0])
	}
	counts, err := a.engine.TagDueCounts(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-20s %d due\n", name, counts[name])
	}
	return nil
}

func (a *app) retag(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: retag <id> [tags...]")
	}
	return a.engine.UpdateCardTags(ctx, args[0], args[1:])
}

func (a *app) showStats(ctx context.Context) error {
	now := time.Now().UTC()
	s, err := a.stats.Summarize(ctx, now)
	if err != nil {
		return err
	}

	fmt.Printf("cards:      %d (%d due)\n", s.TotalCards, s.DueCount)
	fmt.Printf("reviews:    %d\n", s.TotalReviews)
	fmt.Printf("retention:  %.1f%%\n", s.Retention)
	fmt.Printf("avg rating: %.2f   stability: %.1f   difficulty: %.1f\n",
		s.AverageRating, s.AverageStability, s.AverageDifficulty)
	fmt.Printf("per day:    %.1f cards, %.1f reviews\n", s.CardsPerDay, s.ReviewsPerDay)

	fmt.Print("states:    ")
	for _, st := range domain.States() {
		fmt.Printf(" %s=%d", st, s.CardsByState[st])
	}
	fmt.Println()

	fmt.Print("ratings:   ")
	for _, r := range domain.Ratings() {
		fmt.Printf(" %s=%d", r, s.RatingCounts[r])
	}
	fmt.Println()

	forecast, err := a.stats.DueForecast(ctx, now, 7)
	if err != nil {
		return err
	}
	fmt.Print("next 7d:   ")
	for _, n := range forecast {
		fmt.Printf(" %d", n)
	}
	fmt.Println()

	return a.printHeatmap(ctx, now)
}

// printHeatmap renders the trailing year of review activity as one banded
// row, oldest day first.
func (a *app) printHeatmap(ctx context.Context, now time.Time) error {
	const window = 365
	byDay, err := a.stats.ReviewHistoryByDay(ctx, now, window)
	if err != nil {
		return err
	}

	max := 0
	for _, n := range byDay {
		if n > max {
			max = n
		}
	}

	glyphs := []rune{' ', '▁', '▂', '▃', '▅', '█'}
	var row strings.Builder
	for d := window - 1; d >= 0; d-- {
		day := now.AddDate(0, 0, -d).Format("2006-01-02")
		row.WriteRune(glyphs[stats.HeatmapLevel(byDay[day], max)])
	}
	fmt.Printf("activity:  [%s]\n", row.String())
	return nil
}

func (a *app) importDecks(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: import <dir|git-url> [tags...]")
	}
	source := args[0]
	tags := args[1:]

	imp := deck.NewImporter(a.engine, a.log)

	var report deck.Report
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "git@") || strings.HasSuffix(source, ".git") {
		report, err = imp.ImportGit(ctx, source, a.cfg.RepoCacheDir(), tags)
	} else {
		report, err = imp.ImportDir(ctx, source, tags)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d cards from %d files (%d duplicates skipped, %d failed).\n",
		report.Imported, report.Files, report.Skipped, report.Failed)
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
