/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

// Package main implements the Query Compiler Service server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mogudian/elasticsearch-orm/internal/auth"
	"github.com/mogudian/elasticsearch-orm/internal/backend/factory"
	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/common/model"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/compiler"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	api "github.com/mogudian/elasticsearch-orm/internal/querycompilerservice/api"
	"github.com/mogudian/elasticsearch-orm/internal/querycompilerservice/metrics"
	openapi "github.com/mogudian/elasticsearch-orm/pkg/querycompilerapi"
)

func runServer(ctx context.Context, configPath string) error {
	log.Default().Println("Loading Query Compiler Service...")
	log.Default().Println("Config Path:", configPath)

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// === Entity metadata ===
	registry, err := metadata.LoadFile(cfg.Compiler.MetadataPath, cfg.Compiler.SchemaPath)
	if err != nil {
		log.Printf("❌ Loading entity metadata failed: %v", err)
		return err
	}
	log.Printf("📚 Registered entity types: %v", registry.Names())

	// === Document store ===
	store, closeStore, err := factory.Open(ctx, cfg, registry)
	if err != nil {
		log.Printf("❌ Document store connect failed: %v", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(closeCtx); err != nil {
			log.Printf("Closing document store: %v", err)
		}
	}()

	// === Main Router ===
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// --- CORS ---
	common.AddCors(r, cfg)

	// --- Health and metrics endpoints (public) ---
	common.AddHealthEndpoint(r, cfg)
	common.AddMetricsEndpoint(r, cfg)

	qcSvc := api.NewQueryCompilerAPIService(compiler.New(registry, cfg.Compiler.DateLayout), registry, store, cfg.Compiler.DefaultScoring)
	qcCtrl := openapi.NewQueryCompilerAPIController(qcSvc)

	base := common.NormalizeBasePath(cfg.Server.ContextPath)

	// === Protected API Subrouter ===
	apiRouter := chi.NewRouter()
	if err := auth.SetupSecurity(ctx, cfg, apiRouter); err != nil {
		return err
	}
	model.Mount(apiRouter, qcCtrl)
	r.Mount(base, apiRouter)

	// === Start Server ===
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	log.Printf("▶️ Query Compiler listening on %s (contextPath=%q, backend=%s)\n", addr, cfg.Server.ContextPath, cfg.Backend.Type)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	configPath := ""
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	if err := runServer(ctx, configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
