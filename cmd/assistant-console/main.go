// Package main runs the assistant in a terminal against a local database.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/config"
	"github.com/capitalize-ai/voice-assistant/internal/llm"
	"github.com/capitalize-ai/voice-assistant/internal/speech"
	"github.com/capitalize-ai/voice-assistant/internal/store"
	"github.com/capitalize-ai/voice-assistant/internal/summarizer"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	dbPath := cli.StringP("db", "d", "", "SQLite database path (overrides DATABASE_PATH)")
	userID := cli.StringP("user", "u", "local", "User whose data the assistant acts on")
	summarize := cli.StringP("summarize", "s", "", "Summarize the transcript in this file and exit")
	meetingID := cli.String("meeting", "", "Meeting to store the summary against")
	createTasks := cli.Bool("create-tasks", false, "Save summary action items as tasks")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	cli.Parse()

	godotenv.Load(*envFile)
	cfg := config.Load()
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *summarize != "" {
		if err := runSummary(ctx, cfg, db, log, *userID, *summarize, *meetingID, *createTasks); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	runConversation(ctx, cfg, db, log, *userID)
}

func runConversation(ctx context.Context, cfg *config.Config, db *store.SQLiteStore, log *logger.Logger, userID string) {
	router := assistant.NewRouter(log, assistant.WithGatewayTimeout(cfg.GatewayTimeout))
	conv := assistant.NewConversation(userID, router, db.ForUser(userID), nil)

	term := newTerminal(os.Stdout)
	session := speech.NewSession(termMic{term}, termSpeaker{term}, conv, log,
		speech.WithRestartDelay(cfg.VoiceRestartDelay),
		speech.WithObserver(term),
	)

	fmt.Println(`Conversation mode. Type what you would say; "/reset" clears memory, "/quit" exits.`)
	session.Enable(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	defer func() {
		session.Disable()
		session.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch strings.TrimSpace(line) {
			case "/quit":
				return
			case "/reset":
				conv.Reset()
				term.print("[memory cleared]\nyou> ")
				continue
			}
			if !term.Listening() {
				continue
			}
			if strings.TrimSpace(line) == "" {
				session.HandleEnd()
				continue
			}
			session.HandleResult(speech.Result{Text: line, Final: true})
		}
	}
}

func runSummary(ctx context.Context, cfg *config.Config, db *store.SQLiteStore, log *logger.Logger, userID, path, meetingID string, createTasks bool) error {
	transcript, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	client, err := llm.NewPreferred(llm.Provider(cfg.DefaultLLM), map[llm.Provider]string{
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
	})
	if err != nil {
		return err
	}

	sum := summarizer.New(client, db, log,
		summarizer.WithModel(cfg.SummaryModel),
		summarizer.WithTimeout(cfg.SummaryTimeout),
	)

	pm, err := sum.SummarizeMeeting(ctx, userID, meetingID, string(transcript))
	if err != nil {
		return err
	}

	fmt.Printf("Summary: %s\n", pm.Summary)
	printList("Participants", pm.Participants)
	printList("Topics", pm.Topics)
	printList("Decisions", pm.KeyDecisions)
	if len(pm.ActionItems) > 0 {
		fmt.Println("Action items:")
	}
	for _, item := range pm.ActionItems {
		line := fmt.Sprintf("  - %s [%s]", item.Task, item.Priority)
		if item.Assignee != "" {
			line += " @" + item.Assignee
		}
		if item.DueDate != "" {
			line += " due " + item.DueDate
		}
		fmt.Println(line)
	}

	if !createTasks {
		return nil
	}
	created, err := sum.CreateTasks(ctx, db.ForUser(userID), pm)
	fmt.Printf("Created %d task(s).\n", len(created))
	return err
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s: %s\n", label, strings.Join(items, ", "))
}
