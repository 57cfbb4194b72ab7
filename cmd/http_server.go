package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/auth"
	"github.com/jtoledo/betriebsportal/internal/dedupe"
	"github.com/jtoledo/betriebsportal/internal/employee"
	"github.com/jtoledo/betriebsportal/internal/inventory"
	"github.com/jtoledo/betriebsportal/internal/sheets"
	"github.com/jtoledo/betriebsportal/internal/timetracking"
	"github.com/jtoledo/betriebsportal/internal/transport/rest"
	"github.com/jtoledo/betriebsportal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Format, config.Logging.Level)
	lg := logger.LoggerWrapper()

	provider := sheets.NewProvider(config.Sheets, lg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	timeSheet, err := provider.Spreadsheet(ctx, config.Sheets.TimeTrackingID)
	if err != nil {
		return nil, fmt.Errorf("failed to open time tracking spreadsheet: %w", err)
	}
	inventorySheet, err := provider.Spreadsheet(ctx, config.Sheets.InventoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory spreadsheet: %w", err)
	}

	directory := employee.NewDirectory(config.Directory)
	sessions := auth.NewStore(config.Security.SessionIdleTimeout)
	authService := auth.NewService(directory, sessions, lg)
	authHandler := auth.NewHandler(authService)

	guard := dedupe.NewGuard(config.Security.DedupeWindow)
	reports := inventory.NewSheetReportSource(inventorySheet)
	inventoryService := inventory.NewService(inventorySheet, directory, guard, reports, lg)
	inventoryHandler := inventory.NewHandler(inventoryService, lg)

	timeService := timetracking.NewService(timeSheet, directory, guard, lg)
	timeHandler := timetracking.NewHandler(timeService, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, config, provider, authHandler, authService, inventoryHandler, timeHandler, lg)

	return &Dependencies{
		Config: config,
		Router: router,
		Logger: lg,
	}, nil
}
