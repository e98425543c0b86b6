package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/hyperlex/pkg/chat"
	"github.com/mikeboe/hyperlex/pkg/clients"
	"github.com/mikeboe/hyperlex/pkg/config"
	"github.com/mikeboe/hyperlex/pkg/database"
	"github.com/mikeboe/hyperlex/pkg/research/tools"
	"github.com/mikeboe/hyperlex/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	cfg := config.Load()
	ctx := context.Background()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init chat provider: %v", err)
	}
	chatSvc := chat.NewService(provider)

	if cfg.TavilyApiKey == "" {
		slog.Warn("TAVILY_API_KEY is not set, searches will be rejected upstream")
	}
	search := tools.NewTavilyClient(cfg.TavilyURL, cfg.TavilyApiKey)

	// Sharing is only available with a database
	var shares server.ShareStore
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		shares = server.NewShareService(db)
	} else {
		slog.Info("DATABASE_URL not set, sharing disabled")
	}

	handler := server.NewHandler(search, chatSvc, tools.NewHackerNewsClient(), shares, cfg.HNCacheTTL)

	// Web Server Setup
	r := gin.New()
	r.Use(gin.Recovery(), server.RequestLogger(slog.Default()))

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	fmt.Printf("Server starting on port %s (provider: %s, model: %s)\n", cfg.Port, cfg.LLMProvider, cfg.ChatModel)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (chat.Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderMistral:
		llm, err := clients.Mistral(cfg.MistralApiKey, cfg.ChatModel)
		if err != nil {
			return nil, err
		}
		return chat.NewLangchainProvider(llm), nil

	case config.ProviderGemini:
		llm, err := clients.GeminiModel(ctx, cfg.GoogleApiKey, cfg.ChatModel)
		if err != nil {
			return nil, err
		}
		return chat.NewGeminiProvider(llm)

	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}
}
