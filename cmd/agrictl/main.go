// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Command agrictl runs predictions offline and manages artifact bundles.
//
//	agrictl predict crop --set N=90 --set P=42 --set K=43 ...
//	agrictl predict fertilizer --input reading.json
//	agrictl artifacts status
//	agrictl artifacts pack --domain crop --store /srv/agrisense/bundles
//	agrictl artifacts list --store /srv/agrisense/bundles
//
// Model locations come from the same configuration as the server
// (MODELS_ROOT, CROP_MODEL_DIR, FERTILIZER_MODEL_DIR, MODEL_STORE_DIR) and
// can be overridden with flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
