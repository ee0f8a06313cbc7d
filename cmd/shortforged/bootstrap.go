package main

import (
	"path/filepath"

	"shortforge/internal/config"
)

func daemonLockPath(cfg *config.Config) string {
	if cfg == nil {
		return "shortforged.lock"
	}
	return filepath.Join(cfg.Paths.DataDir, "shortforged.lock")
}
