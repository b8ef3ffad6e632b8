package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/qwe638853/GasPass-sub000/internal/clients"
	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/contract"
	"github.com/qwe638853/GasPass-sub000/internal/db"
	"github.com/qwe638853/GasPass-sub000/internal/dispatcher"
	"github.com/qwe638853/GasPass-sub000/internal/endpoint"
	"github.com/qwe638853/GasPass-sub000/internal/handlers"
	"github.com/qwe638853/GasPass-sub000/internal/models"
	"github.com/qwe638853/GasPass-sub000/internal/prober"
	"github.com/qwe638853/GasPass-sub000/internal/relay"
	"github.com/qwe638853/GasPass-sub000/internal/router"
	"github.com/qwe638853/GasPass-sub000/internal/scanner"
	"github.com/qwe638853/GasPass-sub000/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default config.yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Optional audit database.
	var database *db.Database
	if cfg.Database.DSN != "" {
		database, err = db.Connect(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("❌ Failed to connect database: %v", err)
		}
	} else {
		log.Println("⚠️ No database DSN configured, history persistence disabled")
	}

	// Optional event publishing.
	var events *clients.NATSClient
	if cfg.NATS.URL != "" {
		events, err = clients.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("❌ Failed to connect NATS: %v", err)
		}
		defer events.Close()
	} else {
		log.Println("⚠️ No NATS URL configured, event publishing disabled")
	}

	pool := endpoint.NewPool()
	defer pool.CloseAll()

	hubClient, err := dialHub(pool, cfg.Contract.HubRPC)
	if err != nil {
		log.Fatalf("❌ Failed to connect hub chain: %v", err)
	}

	caller, err := contract.NewCaller(hubClient, common.HexToAddress(cfg.Contract.Address),
		time.Duration(cfg.Contract.ReadTimeout)*time.Second)
	if err != nil {
		log.Fatalf("❌ Failed to bind GasPass contract: %v", err)
	}

	submitter, err := relay.NewEthSubmitter(hubClient, caller.Address(),
		cfg.Relayer.PrivateKey, new(big.Int).SetUint64(cfg.Contract.HubChainID),
		cfg.Relayer.GasLimit, time.Duration(cfg.Contract.WriteTimeout)*time.Second)
	if err != nil {
		log.Fatalf("❌ Failed to initialize relayer: %v", err)
	}
	forwarder := relay.NewForwarder(submitter, cfg.Relayer.OrderingWindow(), database)

	quotes := clients.NewBungeeClient(cfg.Bridge.BaseURL, cfg.Bridge.APIKey,
		time.Duration(cfg.Bridge.Timeout)*time.Second)
	refuelDispatcher := dispatcher.New(cfg, quotes, forwarder)

	chains := cfg.EnabledChains()
	policyScanner := scanner.New(caller, chains)
	balanceProber := prober.New(pool, cfg.Monitor.MaxRetries, cfg.Monitor.BaseDelay(),
		time.Duration(cfg.Monitor.ProbeTimeout)*time.Second)

	var eventPublisher services.EventPublisher
	if events != nil {
		eventPublisher = events
	}

	monitor := services.NewMonitorService(cfg, policyScanner, balanceProber,
		refuelDispatcher, caller, database, eventPublisher)
	monitor.Start()
	defer monitor.Stop()

	hubName := fmt.Sprintf("chain-%d", cfg.Contract.HubChainID)
	health := services.NewRelayerHealthService(hubClient, hubName, submitter.RelayerAddress(), time.Minute)
	health.Start()
	defer health.Stop()

	scanHandler := handlers.NewScanHandler(logger, monitor, database)
	relayHandler := handlers.NewRelayHandler(logger, forwarder, caller)
	policyHandler := handlers.NewPolicyHandler(logger, caller)

	r := router.Setup(cfg, logger, scanHandler, relayHandler, policyHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 GasPass monitor listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP server shutdown: %v", err)
	}
	log.Println("✅ Shutdown complete")
}

// dialHub tries the configured hub endpoints in order and returns the first
// one that answers.
func dialHub(pool *endpoint.Pool, urls []string) (models.EVMClient, error) {
	var lastErr error
	for _, url := range urls {
		client, err := pool.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}
	return nil, fmt.Errorf("no hub endpoint reachable: %w", lastErr)
}
