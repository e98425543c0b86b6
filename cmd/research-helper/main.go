package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/hyperlex/pkg/config"
	"github.com/mikeboe/hyperlex/pkg/render"
	"github.com/mikeboe/hyperlex/pkg/research"
	"github.com/mikeboe/hyperlex/pkg/research/tools"
)

var (
	query      string
	serverURL  string
	suggestion string
	storyLimit int
	verbose    bool
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "hyperlex",
		Short: "A terminal research assistant",
		Long:  `Hyperlex searches the web for each question, streams the model's reasoning and report, and keeps the conversation between runs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", cfg.ServerURL, "Base URL of the hyperlex server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "Ask a single question and exit")
	rootCmd.Flags().StringVar(&suggestion, "suggest", "", "Prefix the first question with a suggestion (e.g. \"Tech News & Updates\")")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the saved conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHistory(cmd.Context(), cfg)
		},
	}
	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeHistory, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeHistory()
			if err := history.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Chat history cleared.")
			return nil
		},
	})

	hnCmd := &cobra.Command{
		Use:   "hn",
		Short: "List the top Hacker News stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStories(cmd.Context())
		},
	}
	hnCmd.Flags().IntVarP(&storyLimit, "limit", "n", 30, "Number of stories")

	shareCmd := &cobra.Command{
		Use:   "share N",
		Short: "Publish saved question N and print its share URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeHistory, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeHistory()
			url, err := shareFromHistory(cmd.Context(), history, args[0])
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}

	rootCmd.AddCommand(historyCmd, hnCmd, shareCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func newEngine(history research.History) *research.ResearchEngine {
	base := strings.TrimRight(serverURL, "/")
	search := tools.NewSearchClient(base+"/api/search", "")
	return research.NewEngine(search, research.NewChatClient(base+"/api/chat"), history)
}

func runChat(ctx context.Context, cfg *config.Config) error {
	history, closeHistory, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	engine := newEngine(history)
	if err := engine.LoadHistory(ctx); err != nil {
		slog.Warn("Could not load chat history", "error", err)
	}

	renderer, err := render.NewRenderer(100)
	if err != nil {
		slog.Warn("Falling back to plain output", "error", err)
	}

	progress := newProgressPrinter(os.Stdout)
	engine.OnStateUpdate = progress.update
	engine.Sections.Subscribe(func(index int, _ research.ChatSection) {
		if index == -1 {
			progress.reset()
		}
	})

	// First Ctrl-C cancels the running query, a second one exits.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for range interrupts {
			if engine.IsLoading() {
				engine.Cancel()
				fmt.Fprintln(os.Stderr, "\nCancelled. Press Ctrl-C again to quit.")
				continue
			}
			os.Exit(130)
		}
	}()

	var pending *research.Suggestion
	if suggestion != "" {
		s, ok := research.FindSuggestion(suggestion)
		if !ok {
			return fmt.Errorf("unknown suggestion %q", suggestion)
		}
		pending = &s
	}

	ask := func(input string) error {
		if pending != nil {
			input = research.ApplySuggestion(*pending, input)
			pending = nil
		}
		idx, err := engine.Submit(ctx, input)
		if errors.Is(err, research.ErrEmptyQuery) {
			return err
		}
		if section, serr := engine.Sections.Section(idx); serr == nil {
			fmt.Print(renderer.Render(section))
		}
		return err
	}

	if query != "" {
		return ask(query)
	}

	if n := engine.Sections.Len(); n > 0 {
		fmt.Printf("Loaded %d previous questions. Type /help for commands.\n", n)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			continue
		case input == "/quit" || input == "/exit":
			return nil
		case input == "/help":
			fmt.Println("/history  show the conversation\n/toggle N  collapse or expand reasoning of question N\n/share N  publish question N and print its link\n/clear  delete the conversation\n/quit  exit")
		case input == "/history":
			for _, section := range engine.Sections.Sections() {
				fmt.Print(renderer.Render(section))
			}
		case input == "/clear":
			if err := engine.ClearHistory(ctx); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Chat history cleared.")
		case strings.HasPrefix(input, "/share"):
			section, err := pickSection(engine.Sections.Sections(), strings.TrimPrefix(input, "/share"))
			if err != nil {
				fmt.Println("Usage: /share N:", err)
				continue
			}
			url, err := shareSection(ctx, serverURL, section)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Shared at", url)
		case strings.HasPrefix(input, "/toggle"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(input, "/toggle")))
			if err != nil {
				fmt.Println("Usage: /toggle N")
				continue
			}
			if err := engine.ToggleReasoning(ctx, n-1); err != nil {
				fmt.Println("Error:", err)
			}
		default:
			if err := ask(input); err != nil {
				slog.Debug("Query failed", "error", err)
			}
		}
	}
}

func printHistory(ctx context.Context, cfg *config.Config) error {
	history, closeHistory, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	sections, err := history.Load(ctx)
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		fmt.Println("No chat history.")
		return nil
	}

	renderer, err := render.NewRenderer(100)
	if err != nil {
		slog.Warn("Falling back to plain output", "error", err)
	}
	for _, section := range sections {
		fmt.Print(renderer.Render(section))
	}
	return nil
}

func printStories(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/hackernews?limit=%d", strings.TrimRight(serverURL, "/"), storyLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch stories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch stories: status %d", resp.StatusCode)
	}

	var stories []tools.Story
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return fmt.Errorf("failed to decode stories: %w", err)
	}

	for i, s := range stories {
		fmt.Printf("%2d. %s (%d points, %d comments)\n", i+1, s.Title, s.Score, s.Descendants)
		if s.URL != "" {
			fmt.Printf("    %s\n", s.URL)
		}
	}
	return nil
}
