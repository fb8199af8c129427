package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"planforge/internal/config"
	"planforge/internal/ingest"
	"planforge/internal/oracle"
	"planforge/internal/plan"
	"planforge/internal/session"
	"planforge/internal/telemetry"
	"planforge/internal/upload"
)

// buildSession wires the full pipeline from configuration: oracle client,
// storage collaborator, upload orchestrator, telemetry recorder, session.
// The returned cleanup drains telemetry and must run before exit.
func buildSession(cfg *config.Config) (*session.Session, func(), error) {
	client, err := oracle.NewClient(oracle.Config{
		Provider: oracle.Provider(cfg.Oracle.Provider),
		APIKey:   cfg.Oracle.APIKey,
		Model:    cfg.Oracle.Model,
		BaseURL:  cfg.Oracle.BaseURL,
		Timeout:  cfg.OracleTimeout(),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	store := oracle.NewFileStore(cfg.Oracle.APIKey, "", cfg.OracleTimeout(), logger)
	uploads := upload.NewOrchestrator(store, logger, func(name string, p upload.Progress) {
		logger.Info("upload progress",
			zap.String("file", name),
			zap.Int64("bytes", p.BytesUploaded),
			zap.Int64("total", p.BytesTotal),
			zap.Float64("percent", p.Percentage))
	})

	var recorder *telemetry.Recorder
	cleanup := func() {}
	if cfg.Telemetry.Enabled {
		sinkPath := filepath.Join(filepath.Dir(configPath), "events.jsonl")
		recorder = telemetry.NewRecorder(telemetry.NewFileSink(sinkPath), logger, telemetry.Options{
			FlushInterval: cfg.TelemetryFlushInterval(),
			BufferLimit:   cfg.Telemetry.BufferLimit,
		})
		cleanup = func() {
			if err := recorder.Close(context.Background()); err != nil {
				logger.Warn("failed to drain telemetry", zap.Error(err))
			}
		}
	}

	return session.New(cfg.QuotaTier(), client, uploads, recorder, logger), cleanup, nil
}

// loadFiles resolves local paths into ingest files, taking size from the
// filesystem and leaving type sniffing to the ingest filter.
func loadFiles(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		files = append(files, ingest.File{
			Name: filepath.Base(p),
			Size: info.Size(),
			Path: p,
		})
	}
	return files, nil
}

// writePlan emits the plan as indented JSON to the given path, or stdout
// when the path is empty.
func writePlan(p *plan.Plan, out string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0644)
}

// readPlan loads a plan previously written by writePlan.
func readPlan(path string) (*plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read plan: %w", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid plan file: %w", err)
	}
	return &p, nil
}
