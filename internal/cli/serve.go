package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/autosave"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/cache"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/config"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/handlers"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	pgstore "github.com/VAL02142004/Online-Quiz--sub000/internal/repositories/postgres"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/scoring"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/session"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
	appvalidator "github.com/VAL02142004/Online-Quiz--sub000/internal/validator"
	"github.com/VAL02142004/Online-Quiz--sub000/pkg"
)

// NewServeCmd builds the CLI subcommand to start the HTTP server.
func NewServeCmd(port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *port)
		},
	}
}

func runServer(ctx context.Context, portFlag string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	store := pgstore.NewDocumentStore(db)
	if err := store.Migrate(); err != nil {
		return err
	}
	repo := repositories.New(store)

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	snapshots := autosave.NewRedisStore(redisClient,
		autosave.WithSnapshotTTL(cfg.Session.SnapshotTTL))
	quizCache := cache.NewQuizCache(
		cache.NewRedisCache(redisClient, slogger), repo.Quiz(), slogger)

	eligibility := services.NewEligibilityService(repo, slogger)
	results := services.NewResultService(repo, slogger, cfg.Session)
	scoringOpts := scoring.Options{
		CountPendingInDenominator: cfg.Scoring.CountPendingInDenominator,
	}
	regrades := services.NewRegradeServiceWithPolicy(repo, publisher, slogger, scoringOpts,
		services.RegradePolicy(cfg.Scoring.RegradePolicy))

	sessions := session.NewManager(func() *session.Engine {
		return session.NewEngine(
			cfg.Session, quizCache, eligibility, results,
			snapshots, publisher, slogger,
			session.WithScoringOptions(scoringOpts))
	})
	defer sessions.Close()

	validator := appvalidator.New()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	hm := handlers.NewHandlerManager(
		sessions, results, regrades, repo.Quiz(), quizCache, validator, logger)
	hm.SetupRoutes(router)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Port
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Starting quiz session engine", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("Shutting down server")
	case <-ctx.Done():
		logger.Info("Context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
