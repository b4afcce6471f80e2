package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blueberry/config"
	"blueberry/core/events"
	"blueberry/core/state"
	"blueberry/crypto"
	"blueberry/native/garden"
	"blueberry/native/rfq"
	"blueberry/observability/logging"
	"blueberry/rpc"
	"blueberry/storage"
)

const envVar = "BLUEBERRY_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("blueberryd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	hub, err := events.NewJournaledHub(manager, 0)
	if err != nil {
		panic(fmt.Sprintf("Failed to open event journal: %v", err))
	}

	admin, err := resolveAdmin(cfg, logger)
	if err != nil {
		logger.Error("Failed to resolve admin address", slog.Any("error", err))
		os.Exit(1)
	}

	g, err := garden.NewGarden(manager, hub, moduleAddress("garden"), admin)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialise garden: %v", err))
	}
	if err := registerTokens(manager, cfg.Tokens); err != nil {
		panic(fmt.Sprintf("Failed to register configured tokens: %v", err))
	}

	feeCollector := admin
	if trimmed := strings.TrimSpace(cfg.RFQ.FeeCollector); trimmed != "" {
		feeCollector, err = crypto.DecodeAddress(trimmed)
		if err != nil {
			panic(fmt.Sprintf("Invalid fee collector address: %v", err))
		}
	}
	executor, err := rfq.NewExecutor(manager, g, hub, moduleAddress("rfq"), feeCollector, cfg.RFQ.ReceiptSymbol, cfg.RFQ.ReceiptName)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialise RFQ executor: %v", err))
	}
	if err := applyRFQConfig(executor, cfg, admin); err != nil {
		panic(fmt.Sprintf("Failed to apply RFQ configuration: %v", err))
	}

	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("starting metrics server", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("admin", admin.String()),
		slog.String("gardenModule", g.Module().String()),
		slog.String("rfqModule", executor.Module().String()),
	)
	server := rpc.NewServer(g, executor, hub, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// moduleAddress derives a stable account for a protocol module from its name,
// so pooled funds live at the same address across restarts.
func moduleAddress(name string) crypto.Address {
	digest := ethcrypto.Keccak256([]byte("module/" + name))
	return crypto.MustNewAddress(crypto.BluePrefix, digest[len(digest)-crypto.AddressLength:])
}

// resolveAdmin returns the configured admin address or generates an ephemeral
// dev key when none is configured.
func resolveAdmin(cfg *config.Config, logger *slog.Logger) (crypto.Address, error) {
	if trimmed := strings.TrimSpace(cfg.AdminAddress); trimmed != "" {
		return crypto.DecodeAddress(trimmed)
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return crypto.Address{}, err
	}
	admin := key.PubKey().Address()
	logger.Warn("no admin address configured; generated ephemeral dev admin",
		slog.String("address", admin.String()))
	return admin, nil
}

// registerTokens registers the configured underlying tokens once. Tokens that
// already exist in state are left untouched.
func registerTokens(manager *state.Manager, tokens []config.TokenConfig) error {
	for _, token := range tokens {
		symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
		if manager.TokenExists(symbol) {
			continue
		}
		err := manager.RegisterToken(&state.TokenMetadata{
			Symbol:   symbol,
			Name:     token.Name,
			Decimals: token.Decimals,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// applyRFQConfig pushes the configured custodian and fee numerator through the
// executor's admin surface so the same validation and events apply as for
// runtime changes.
func applyRFQConfig(executor *rfq.Executor, cfg *config.Config, admin crypto.Address) error {
	if trimmed := strings.TrimSpace(cfg.RFQ.Custodian); trimmed != "" {
		custodian, err := crypto.DecodeAddress(trimmed)
		if err != nil {
			return err
		}
		if err := executor.SetCustodian(admin, custodian); err != nil {
			return err
		}
	}
	if cfg.RFQ.RedeemFeeNumerator > 0 {
		if err := executor.SetRedeemFeeNumerator(admin, cfg.RFQ.RedeemFeeNumerator); err != nil {
			return err
		}
	}
	return nil
}
