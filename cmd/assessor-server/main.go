// Command assessor-server wires config -> logger -> caches -> KB clients ->
// aggregator -> LLM adjudicator -> engine -> validator -> optional Postgres
// audit log, then serves either the REST+websocket API (default) or, with
// -mcp, the stdio MCP tool surface. Grounded on the teacher's
// cmd/server/main.go and cmd/mcp-server/main.go (config load -> validate ->
// build -> signal-driven graceful shutdown).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/aggregator"
	"github.com/variant-actionability/assessor/internal/api"
	"github.com/variant-actionability/assessor/internal/cache"
	"github.com/variant-actionability/assessor/internal/config"
	"github.com/variant-actionability/assessor/internal/database"
	"github.com/variant-actionability/assessor/internal/domain"
	"github.com/variant-actionability/assessor/internal/engine"
	"github.com/variant-actionability/assessor/internal/kb"
	"github.com/variant-actionability/assessor/internal/llm"
	"github.com/variant-actionability/assessor/internal/mcptools"
	"github.com/variant-actionability/assessor/internal/repository"
	"github.com/variant-actionability/assessor/internal/validator"
)

const engineVersion = "1.0.0"

func main() {
	mcpMode := flag.Bool("mcp", false, "serve the MCP tool surface on stdio instead of the REST API")
	flag.Parse()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	eng, val, assessments := buildPipeline(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, stopping gracefully")
		cancel()
	}()

	if *mcpMode {
		svc := &mcptools.Services{Engine: eng, Validator: val, Log: logger}
		if err := mcptools.Run(ctx, engineVersion, svc); err != nil {
			logger.WithError(err).Fatal("mcp server failed")
		}
		return
	}

	server := api.NewServer(cfg.Server, eng, val, assessments, logger)
	logger.WithFields(logrus.Fields{"host": cfg.Server.Host, "port": cfg.Server.Port}).Info("starting variant-actionability assessor")
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("server failed to start")
	}
	logger.Info("server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}
	return logger
}

// buildPipeline wires every stage of spec.md's pipeline plus the [ADDED]
// Postgres audit log, which is optional: a connection failure is logged and
// the assessor continues to serve with assessments nil (SPEC_FULL.md §4.13
// "Engine works with a nil store").
func buildPipeline(cfg *domain.Config, logger *logrus.Logger) (*engine.Engine, *validator.Validator, *repository.AssessmentStore) {
	ontologyMemo, err := cache.NewOntologyMemo(1)
	if err != nil {
		logger.WithError(err).Fatal("failed to build tumor-ontology memo")
	}

	biomarkerDisk := cache.NewBiomarkerDiskCache(cfg.ExternalAPI.CuratedBiomarker.BaseURL, cfg.Cache.BiomarkerCacheDir, cfg.Cache.BiomarkerMaxAge, logger)

	var responseCache *cache.ResponseCache
	if cfg.Cache.RedisURL != "" {
		responseCache, err = cache.NewResponseCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("redis response cache unavailable, continuing without it")
		}
	}

	variantAnnotation := kb.NewVariantAnnotationClient(cfg.ExternalAPI.VariantAnnotation, logger)
	drugLabel := kb.NewDrugLabelClient(cfg.ExternalAPI.DrugLabel, logger)
	if responseCache != nil {
		variantAnnotation.WithCache(responseCache)
		drugLabel.WithCache(responseCache)
	}

	clients := aggregator.Clients{
		VariantAnnotation: variantAnnotation,
		DrugLabel:         drugLabel,
		CuratedBiomarker:  kb.NewCuratedBiomarkerClient(biomarkerDisk, logger),
		HarmonizedKB:      kb.NewHarmonizedKBClient(cfg.ExternalAPI.HarmonizedKB, logger),
		CuratedAssertion:  kb.NewCuratedAssertionClient(cfg.ExternalAPI.CuratedAssertion, logger),
		TumorOntology:     kb.NewTumorOntologyClient(cfg.ExternalAPI.TumorOntology, ontologyMemo, logger),
	}

	agg := aggregator.New(clients, logger)
	adjudicator := llm.New(cfg.LLM, logger)
	eng := engine.New(agg, adjudicator, logger)
	val := validator.New(eng, logger)

	assessments := buildAssessmentStore(cfg.Database, logger)

	return eng, val, assessments
}

func buildAssessmentStore(cfg domain.DatabaseConfig, logger *logrus.Logger) *repository.AssessmentStore {
	if cfg.Host == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbConfig := database.Config{
		Host: cfg.Host, Port: cfg.Port, Database: cfg.Database,
		Username: cfg.Username, Password: cfg.Password,
		MaxConns: cfg.MaxConns, MinConns: cfg.MinConns,
		MaxConnLife: cfg.MaxConnLife, MaxConnIdle: cfg.MaxConnIdle,
		SSLMode: cfg.SSLMode,
	}
	db, err := database.NewConnection(ctx, dbConfig, logger)
	if err != nil {
		logger.WithError(err).Warn("postgres audit log unavailable, continuing without it")
		return nil
	}
	return repository.NewAssessmentStore(db.Pool, logger)
}
