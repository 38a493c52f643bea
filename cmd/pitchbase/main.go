package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pitchbase/pitchbase/adapters/content"
	"github.com/pitchbase/pitchbase/adapters/events"
	"github.com/pitchbase/pitchbase/adapters/store"
	"github.com/pitchbase/pitchbase/adapters/tokenizer"
	"github.com/pitchbase/pitchbase/config"
	"github.com/pitchbase/pitchbase/service"
	transport "github.com/pitchbase/pitchbase/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	initLogger(cfg.Debug)

	signKey, err := loadSignKey(cfg.SignKeyHex)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load session signing key")
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse Redis URL")
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(cfg.Debug, false),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	chain, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial Ethereum RPC")
	}
	if !common.IsHexAddress(cfg.Chain.TokenContract) {
		log.Fatal().Str("contract", cfg.Chain.TokenContract).Msg("invalid token contract address")
	}

	redisStore := store.NewRedisStore(redisClient)
	accounts := content.NewClient(content.Config{
		BaseURL: cfg.Content.BaseURL,
		Dataset: cfg.Content.Dataset,
		Token:   cfg.Content.Token,
	})

	authService := service.NewAuthService(
		cfg.Server.Domain,
		tokenizer.NewJWTTokenizer(signKey),
		accounts,
		redisStore,
		redisStore,
		events.NewWatermillPublisher(publisher),
	)
	accountService := service.NewAccountService(accounts)
	transferService := service.NewTransferService(
		chain,
		common.HexToAddress(cfg.Chain.TokenContract),
		cfg.Chain.TokenDecimals,
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.SetupRouter(
		transport.RouterConfig{Origin: cfg.Server.Origin},
		authService,
		accountService,
		transferService,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Str("domain", cfg.Server.Domain).Msg("starting server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func initLogger(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("service", "pitchbase").
		Logger()
}

// loadSignKey decodes a hex-encoded SEC 1 P-256 private key, or generates an
// ephemeral one when the variable is unset.
func loadSignKey(keyHex string) (*ecdsa.PrivateKey, error) {
	if keyHex == "" {
		log.Warn().Msg("SESSION_SIGN_KEY not set, using an ephemeral key; sessions will not survive a restart")
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	der, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	return x509.ParseECPrivateKey(der)
}
