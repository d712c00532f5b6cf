package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/virtuald/go-paniclog"

	"swaproute/api"
	"swaproute/chain"
	"swaproute/engine"
	"swaproute/exchange"
	"swaproute/execution"
	"swaproute/graph"
	"swaproute/swap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	listen := flag.String("listen", "", "Override the listen address from the config")
	logLevel := flag.String("log-level", "INFO", "Set the logging level")
	panicLog := flag.String("panic-log", "", "Redirect stderr to this file to capture panics")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	switch strings.TrimSpace(strings.ToUpper(*logLevel)) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *panicLog != "" {
		f, err := os.OpenFile(*panicLog, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open panic log")
		}
		if _, err := paniclog.RedirectStderr(f); err != nil {
			log.Fatal().Err(err).Msg("failed to redirect stderr")
		}
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	chains := chain.NewRegistry()
	for _, chainCfg := range cfg.Chains {
		if err := registerChain(ctx, chains, chainCfg); err != nil {
			log.Error().Err(err).Str("chain", chainCfg.ID).Msg("chain skipped")
		}
	}

	transfers, err := cfg.transfers()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid transfer config")
	}

	journal, err := execution.OpenJournal(cfg.JournalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open journal")
	}
	defer journal.Close()

	if settled, failed, err := journal.Stats(); err == nil {
		log.Info().Int("settled", settled).Int("failed", failed).Msg("journal stats")
	}

	balances := chain.NewRPCBalanceSource(chains)
	exchangeGraph := graph.NewGraph()
	feeTokens := exchange.NewFeeTokenStore()

	registry := exchange.NewRegistry(chains, balances, transfers, exchangeGraph, feeTokens, &log.Logger)
	if err := registry.Start(ctx, cfg.ResyncInterval); err != nil {
		log.Fatal().Err(err).Msg("failed to start exchange registry")
	}

	routingEngine := engine.New(chains, exchangeGraph, feeTokens, journal, engine.Config{
		MaxHops:  cfg.MaxHops,
		Slippage: swap.Permill(cfg.SlippagePermill),
	}, &log.Logger)

	server := api.NewServer(routingEngine, journal, &log.Logger)
	log.Info().Str("addr", cfg.Listen).Msg("serving")
	if err := server.RunWithContext(ctx, cfg.Listen); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func registerChain(ctx context.Context, chains *chain.Registry, cfg ChainConfig) error {
	model, err := cfg.chainModel()
	if err != nil {
		return err
	}
	conn, err := chain.Dial(ctx, cfg.RPC, &log.Logger)
	if err != nil {
		return err
	}
	coder, err := chain.NewSidecarCoder(ctx, cfg.Sidecar)
	if err != nil {
		return err
	}
	signer, err := chain.NewSignerFromSeed(cfg.Seed)
	if err != nil {
		return err
	}
	chains.SetChain(model, conn, coder, signer)
	return nil
}
