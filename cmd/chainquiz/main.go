package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/pflag"

	"github.com/conorfennell/chainquiz/internal/config"
	"github.com/conorfennell/chainquiz/internal/contract"
	"github.com/conorfennell/chainquiz/internal/importer"
	"github.com/conorfennell/chainquiz/internal/storage"
	"github.com/conorfennell/chainquiz/internal/wallet"
	"github.com/conorfennell/chainquiz/internal/web"
)

func main() {
	// 1. Load configuration from file, environment and flags
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Exiting", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 2. Open the database
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Database opened successfully", "path", cfg.DB)

	if cfg.AddSource != "" {
		source, err := importer.New(db, nil, nil, cfg.ReposDir, logger).AddSource(cfg.AddSource)
		if err != nil {
			return err
		}
		logger.Info("Source ready", "id", source.ID, "type", source.Type, "path", source.Path)
		return nil
	}

	// 3. Connect to the chain and open the process-wide wallet
	client, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Chain.RPCURL, err)
	}
	defer client.Close()

	chainID := big.NewInt(cfg.Chain.ChainID)
	if cfg.Chain.ChainID == 0 {
		if chainID, err = client.ChainID(ctx); err != nil {
			return fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	signer, err := wallet.Open(cfg.Wallet.PrivateKey, chainID)
	if err != nil {
		return err
	}
	if signer.Connected() {
		account, _ := signer.Account()
		logger.Info("Wallet connected", "account", account.Hex(), "chain_id", chainID)
	} else {
		logger.Warn("No wallet configured; quiz attempts, rewards and authoring are disabled")
	}

	quizzes, err := contract.NewQuizContract(common.HexToAddress(cfg.Chain.QuizContract), client, signer, db, logger)
	if err != nil {
		return err
	}
	articles, err := contract.NewArticleContract(common.HexToAddress(cfg.Chain.ArticleContract), client, signer, db, logger)
	if err != nil {
		return err
	}
	im := importer.New(db, quizzes, articles, cfg.ReposDir, logger)

	if cfg.Sync {
		report, err := im.Run(ctx)
		if err != nil {
			return err
		}
		for _, e := range report.Errors {
			logger.Warn("Import problem", "error", e)
		}
		return nil
	}

	// 4. Serve
	srv, err := web.NewServer(web.Config{
		DB:          db,
		Wallet:      signer,
		Quizzes:     quizzes,
		Articles:    articles,
		Importer:    im,
		Logger:      logger,
		BaseContext: ctx,
		IdleTimeout: cfg.Views.IdleTimeout,
	})
	if err != nil {
		return err
	}
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown did not complete", "error", err)
		}
	}()

	logger.Info("Listening", "addr", cfg.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
