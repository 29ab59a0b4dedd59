package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/internal/handler"
	"github.com/voxlink-ai/voxlink/internal/meeting"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/pkg/config"
	"github.com/voxlink-ai/voxlink/pkg/logger"
	"github.com/voxlink-ai/voxlink/pkg/recognizer"
	"github.com/voxlink-ai/voxlink/pkg/synthesizer"
	"github.com/voxlink-ai/voxlink/pkg/translator"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(&cfg.Log, cfg.Server.Mode); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}

	factory, err := recognizer.NewFactory(
		recognizer.Provider(cfg.ASR.Provider),
		transcribestreaming.NewFromConfig(awsCfg),
		cfg.ASR.DeepgramAPIKey,
		logger.Lg,
	)
	if err != nil {
		return err
	}

	translateSvc := translator.New(translator.NewAWSEngine(translate.NewFromConfig(awsCfg)), logger.Lg)
	synthSvc := synthesizer.NewPolly(polly.NewFromConfig(awsCfg), logger.Lg)

	var store meeting.Store
	if cfg.AWS.DynamoDBTable != "" {
		store = meeting.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.AWS.DynamoDBTable)
		logger.Info("meeting store: dynamodb", zap.String("table", cfg.AWS.DynamoDBTable))
	} else {
		store = meeting.NewMemoryStore()
		logger.Info("meeting store: in-memory")
	}

	registry := session.NewRegistry()
	meetings := handler.NewMeetingHandler(meeting.NewService(store), logger.Lg)
	ws := handler.NewWSHandler(registry, factory, translateSvc, synthSvc, logger.Lg)
	router := handler.NewRouter(cfg.Server.Mode, cfg.Server.CORSOrigins, meetings, ws)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	servers := []*http.Server{srv}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http listener: %w", err)
		}
	}()

	if cfg.TLSEnabled() {
		tlsSrv := &http.Server{Addr: ":443", Handler: router}
		servers = append(servers, tlsSrv)
		go func() {
			logger.Info("listening tls", zap.Int("port", 443))
			err := tlsSrv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("tls listener: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}
	return nil
}
