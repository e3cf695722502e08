package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/bot"
	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/deadlines"
	"github.com/example/studybot/internal/flashcards"
	"github.com/example/studybot/internal/importer"
	"github.com/example/studybot/internal/media"
	"github.com/example/studybot/internal/motivation"
	"github.com/example/studybot/internal/notes"
	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/internal/scheduler"
	"github.com/example/studybot/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	importPath := flag.String("import", "", "import questions from a .json, .csv or .xlsx file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	categories := database.NewCategoryRepository(db)
	questions := database.NewQuestionRepository(db)

	// the generator names categories through the bank's taxonomy, which
	// only exists once the bank does
	var bank *quiz.Bank
	focusOf := func(subcategory string) string { return bank.Taxonomy().FocusOf(subcategory) }
	bank = quiz.NewBank(log, quiz.BankOptions{
		Catalog:   categories,
		Store:     questions,
		Generator: ai.NewQuestionGenerator(log, ai.NewGemini(cfg.Gemini), focusOf),
	})
	if err := bank.Refresh(ctx); err != nil {
		log.Warn("failed to load taxonomy, using built-in subcategories", zap.Error(err))
	}

	questionImporter := importer.New(log, categories, questions, focusOf)
	if *importPath != "" {
		result, err := questionImporter.ImportFile(ctx, *importPath)
		if err != nil {
			log.Fatal("question import failed", zap.String("file", *importPath), zap.Error(err))
		}
		for _, e := range result.Errors {
			log.Warn("import row skipped", zap.String("error", e))
		}
		fmt.Printf("Processed: %d, created: %d, skipped: %d, new subcategories: %d\n",
			result.TotalProcessed, result.Created, result.Skipped, result.SubcategoriesCreated)
		return
	}

	if _, err := bank.LoadFile(cfg.Quiz.QuestionsFile); err != nil {
		log.Warn("failed to load question bank file", zap.Error(err))
	}

	engine := quiz.NewEngine(log, bank, quiz.EngineOptions{
		Results: struct {
			*database.CategoryRepository
			*database.ResultRepository
		}{categories, database.NewResultRepository(db)},
		Progress:   database.NewProgressRepository(db),
		SessionTTL: cfg.Quiz.SessionTTL,
	})
	deadlineController := deadlines.NewController(log, cfg.Quiz.SessionTTL)
	flashcardController := flashcards.NewController(log, cfg.Quiz.SessionTTL)
	noteController := notes.NewController(log, cfg.Quiz.SessionTTL)

	limits := media.DefaultLimits()
	limits.MaxDuration = cfg.Media.MaxDuration
	limits.MaxFileSize = cfg.Media.MaxFileSize
	converter := media.NewConverter(log, limits, media.Options{
		TempDir: cfg.Media.TempDir,
		Timeout: cfg.Media.FFmpegTimeout,
	})

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}
	log.Info("authorized on account", zap.String("username", api.Self.UserName))

	subscriptions := motivation.NewService()
	images, err := motivation.LoadImages(cfg.Motivation.AssetsDir)
	if err != nil {
		log.Warn("failed to load motivation images", zap.String("dir", cfg.Motivation.AssetsDir), zap.Error(err))
	}

	var b *bot.Bot
	messages := motivation.NewDispatcher(log, subscriptions, motivation.DispatcherOptions{
		Generator: ai.NewOpenAI(cfg.OpenAI),
		Sender: motivation.SenderFunc(func(ctx context.Context, chatID int64, text, imagePath string) error {
			return b.SendMotivation(ctx, chatID, text, imagePath)
		}),
		Images:    images,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.Motivation.SendsPerSecond), 1),
		IsBlocked: bot.IsBlockedError,
	})

	botConfig := bot.DefaultConfig()
	botConfig.IsAdmin = cfg.IsAdmin
	b = bot.New(log, api, botConfig, bot.Deps{
		Quiz:       engine,
		Bank:       bank,
		Deadlines:  deadlineController,
		Flashcards: flashcardController,
		Notes:      noteController,
		Motivation: subscriptions,
		Messages:   messages,
		Converter:  converter,
		Importer:   questionImporter,
	})

	sched := scheduler.New(log, messages, map[string]scheduler.Sweeper{
		"quiz":       engine,
		"deadlines":  deadlineController,
		"flashcards": flashcardController,
		"notes":      noteController,
	}, scheduler.Options{
		TickInterval:  cfg.Motivation.TickInterval,
		SweepInterval: cfg.Quiz.SweepInterval,
	})
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	updates := api.GetUpdatesChan(b.UpdateConfig())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		api.StopReceivingUpdates()
		return nil
	})

	log.Info("bot started, press Ctrl+C to stop")
	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
		return
	}
	log.Info("bot stopped")
}
