package services

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/qwe638853/GasPass-sub000/internal/metrics"
	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// RelayerHealthService periodically exports the relayer's native balance on
// the hub chain so operators can alert before the gas tank runs dry.
type RelayerHealthService struct {
	client      models.EVMClient
	chainName   string
	relayerAddr common.Address
	interval    time.Duration
	stopChan    chan struct{}
}

// NewRelayerHealthService creates the balance watcher.
func NewRelayerHealthService(client models.EVMClient, chainName string, relayerAddr common.Address, interval time.Duration) *RelayerHealthService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RelayerHealthService{
		client:      client,
		chainName:   chainName,
		relayerAddr: relayerAddr,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the periodic balance export.
func (s *RelayerHealthService) Start() {
	log.Printf("🚀 Relayer health service starting (relayer %s, every %v)", s.relayerAddr.Hex(), s.interval)
	go s.run()
}

// Stop stops the watcher.
func (s *RelayerHealthService) Stop() {
	close(s.stopChan)
}

func (s *RelayerHealthService) run() {
	s.export()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.export()
		case <-s.stopChan:
			log.Println("🛑 Relayer health service stopped")
			return
		}
	}
}

func (s *RelayerHealthService) export() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balance, err := s.client.BalanceAt(ctx, s.relayerAddr, nil)
	if err != nil {
		log.Printf("⚠️ [RelayerHealth] Balance read failed: %v", err)
		return
	}

	wei, _ := new(big.Float).SetInt(balance).Float64()
	metrics.RelayerBalance.WithLabelValues(s.chainName, s.relayerAddr.Hex()).Set(wei)
}
