// Engage Core
// Copyright (c) 2026 The Kimya Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Engage Core.
//
// Engage Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Engage Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Engage Core.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/KimyaProject/engage-core/pkg/config"
	"github.com/KimyaProject/engage-core/pkg/helpers"
	"github.com/KimyaProject/engage-core/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "engage-core")
}

func run() error {
	dataDir := flag.String("data", defaultDataDir(), "data and config directory")
	debug := flag.Bool("debug", false, "enable debug logging")
	freshSession := flag.Bool("fresh", false, "discard any persisted session state on start")
	flag.Parse()

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	if err := helpers.InitLogging(*dataDir, *debug, consoleWriter); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(*dataDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *debug && !cfg.DebugLogging() {
		cfg.SetDebugLogging(true)
	}

	if *freshSession {
		cfg.SetFreshSession(true)
	}

	svc, err := service.New(cfg, *dataDir)
	if err != nil {
		return fmt.Errorf("failed to assemble service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("config", cfg.Path()).Msg("engage core starting")
	if err := svc.Run(ctx); err != nil {
		return fmt.Errorf("service exited with error: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("engage core failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
