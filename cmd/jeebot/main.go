// jeebot CLI: ask doubts, read questions from images, manage the quiz bank
// and print progress reports.
//
// Usage:
//
//	jeebot <command> [flags]
//
// Commands:
//
//	ask       Ask the assistant a question
//	ocr       Read the text of an image
//	import    Import question files into the quiz bank
//	quiz      List subjects, chapters and questions
//	report    Print a performance report
//	version   Print version information
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Mr-Dark-debug/jeebot/internal/analysis"
	"github.com/Mr-Dark-debug/jeebot/internal/chat"
	"github.com/Mr-Dark-debug/jeebot/internal/config"
	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/ingestion"
	"github.com/Mr-Dark-debug/jeebot/internal/logger"
	"github.com/Mr-Dark-debug/jeebot/internal/ocr"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("jeebot v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "ask":
		err = cmdAsk(ctx, cfg, args)
	case "ocr":
		err = cmdOCR(ctx, cfg, args)
	case "import":
		err = cmdImport(ctx, cfg, args)
	case "quiz":
		err = cmdQuiz(cfg, args)
	case "report":
		err = cmdReport(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		stop()
		fatalf("%v", err)
	}
}

func printUsage() {
	fmt.Println(`jeebot: a study assistant for Physics, Chemistry and Biology

Usage:
  jeebot <command> [flags]

Commands:
  ask <question>             Ask the assistant a question
  ocr [--ask] <image>        Read the text of an image
  import [--watch] <path>    Import question files into the quiz bank
  quiz list                  List subjects, chapters and questions
  report                     Print a performance report
  version                    Print version information

Run 'jeebot <command> --help' for details on each command.
Run 'jeebot-tui' for the interactive app.`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// openStore opens the quiz bank, creating it and loading the built-in
// questions on first use.
func openStore(cfg *config.Config) (*database.DBService, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := database.NewDBService(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", cfg.Database.Path, err)
	}
	if _, err := ingestion.Seed(store); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// cmdAsk sends a question to the chat backend and reveals the reply.
func cmdAsk(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	instant := fs.Bool("instant", false, "Print the reply without the typing animation")
	fs.Parse(args)

	input := strings.Join(fs.Args(), " ")
	if chat.Blank(input) {
		return errors.New("ask needs a question, e.g. jeebot ask \"What is Newton's second law?\"")
	}

	responder, err := chat.NewResponder(cfg.Chat)
	if err != nil {
		return err
	}

	reply := chat.ReplyText(ctx, responder, input)
	present(ctx, os.Stdout, reply, cfg.Reveal.Delay, !*instant)
	return nil
}

// cmdOCR prints the text recognized in an image. With --ask the text is
// sent on to the chat backend as a question.
func cmdOCR(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)
	ask := fs.Bool("ask", false, "Send the recognized text to the assistant")
	instant := fs.Bool("instant", false, "Print without the typing animation")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("ocr needs exactly one image path")
	}
	path := fs.Arg(0)

	rec := ocr.NewTesseract(cfg.OCR.Command, cfg.OCR.Language, cfg.OCR.Timeout)
	text := ocr.ReplyText(ctx, rec, path)
	present(ctx, os.Stdout, text, cfg.Reveal.Delay, !*instant)

	if !*ask || text == ocr.FailureMessage || text == ocr.EmptyMessage {
		return nil
	}

	responder, err := chat.NewResponder(cfg.Chat)
	if err != nil {
		return err
	}
	fmt.Println()
	present(ctx, os.Stdout, chat.ReplyText(ctx, responder, text), cfg.Reveal.Delay, !*instant)
	return nil
}

// cmdImport loads question files. With --watch it keeps importing files
// dropped into the directory until interrupted.
func cmdImport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	watch := fs.Bool("watch", false, "Keep watching the directory for new files")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("import needs exactly one file or directory")
	}
	path := fs.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if *watch && !info.IsDir() {
		return errors.New("--watch needs a directory")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	importer := ingestion.NewFileImporter(ingestion.DefaultConfig(), store)

	if *watch {
		fmt.Printf("Watching %s for question files. Press Ctrl+C to stop.\n", path)
		if err := importer.Watch(ctx, path); err != nil {
			return err
		}
		printMetrics(importer.Metrics())
		return nil
	}

	var n int
	if info.IsDir() {
		n, err = importer.ImportDir(path)
	} else {
		n, err = importer.ImportFile(path)
	}
	fmt.Printf("Imported %d questions.\n", n)
	return err
}

func printMetrics(m ingestion.ImportMetrics) {
	fmt.Println()
	fmt.Printf("  Files imported:      %d\n", m.FilesImported)
	fmt.Printf("  Questions imported:  %d\n", m.QuestionsImported)
	fmt.Printf("  Errors:              %d\n", m.ErrorCount)
}

// cmdQuiz lists the quiz bank.
func cmdQuiz(cfg *config.Config, args []string) error {
	if len(args) == 0 || args[0] != "list" {
		return errors.New("usage: jeebot quiz list [--subject S] [--chapter C] [--search Q] [--json]")
	}

	fs := flag.NewFlagSet("quiz list", flag.ExitOnError)
	subject := fs.String("subject", "", "List the questions of a subject")
	chapter := fs.String("chapter", "", "List the questions of a chapter")
	search := fs.String("search", "", "Search question text and explanations")
	limit := fs.Int("limit", 20, "Maximum questions to list")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Parse(args[1:])

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var questions []*database.Question
	switch {
	case *search != "":
		questions, err = store.SearchQuestions(*search, *limit)
	case *subject != "" || *chapter != "":
		filter := database.QuestionFilter{Limit: *limit}
		if *subject != "" {
			filter.Subject = subject
		}
		if *chapter != "" {
			filter.Chapter = chapter
		}
		questions, err = store.QueryQuestions(filter)
	default:
		return listSubjects(store, *asJSON)
	}
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(questions)
	}
	for _, q := range questions {
		fmt.Printf("%s  [%s / %s]  %s\n", shortID(q.QuestionID, 8), q.Subject, q.Chapter, q.Text)
	}
	return nil
}

func listSubjects(store database.Store, asJSON bool) error {
	stats, err := store.GetSubjectStats()
	if err != nil {
		return err
	}
	subjects, err := store.ListSubjects()
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(subjects)
	}

	counts := make(map[string]int, len(stats))
	for _, st := range stats {
		counts[st.Subject] = st.Questions
	}
	for _, s := range subjects {
		fmt.Printf("%s (%d questions)\n", s.Name, counts[s.Name])
		for _, c := range s.Chapters {
			fmt.Printf("  - %s\n", c)
		}
	}
	return nil
}

// cmdReport prints the performance report.
func cmdReport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	format := fs.String("format", "markdown", "Output format: markdown, json")
	fs.Parse(args)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := analysis.NewAnalyzer(store).FullAnalysis()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	switch *format {
	case "json":
		return printJSON(report)
	case "markdown":
		fmt.Print(renderMarkdown(analysis.FormatReport(report)))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", *format)
	}
}

// shortID returns first n characters of an ID string.
func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
