// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package supervisor runs AgriSense's long-lived services under suture v4.

# Overview

	RootSupervisor ("agrisense")
	├── EventsSupervisor ("events-layer")
	│   └── history.Recorder (when history is enabled)
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService

Each layer restarts its own children with backoff. The recorder can crash
and restart without the HTTP server noticing; predictions published while
it is down are dropped by the in-process pub/sub, which the history
feature tolerates.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddEventsService(recorder)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Supervisor events (starts, failures, backoff) are logged through
sutureslog into the zerolog pipeline.
*/
package supervisor
