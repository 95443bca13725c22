// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/MazzeLabs/go-mazze/config"
	"github.com/MazzeLabs/go-mazze/consensus"
	"github.com/MazzeLabs/go-mazze/dbaccess"
	"github.com/MazzeLabs/go-mazze/infrastructure/logger"
	"github.com/MazzeLabs/go-mazze/infrastructure/os/signal"
	"github.com/MazzeLabs/go-mazze/util/panics"
	"github.com/MazzeLabs/go-mazze/version"
)

const (
	dbDirname = "db"
)

// mazzedMain is the real main function for mazzed. It is invoked from main
// so that defers run before os.Exit is reached on error.
func mazzedMain() error {
	err := config.LoadAndSetActiveConfig()
	if err != nil {
		return err
	}
	defer logger.Close()
	defer panics.HandlePanic(log, nil)

	cfg := config.ActiveConfig()

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := signal.InterruptListener()

	log.Infof("Version %s", version.Version())

	databaseContext, err := dbaccess.New(filepath.Join(cfg.DataDir, dbDirname))
	if err != nil {
		log.Errorf("Error opening database: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database")
		err := databaseContext.Close()
		if err != nil {
			log.Errorf("Error closing the database: %+v", err)
		}
	}()

	if signal.ShutdownRequested(interrupt) {
		return nil
	}

	graph, err := consensus.New(&consensus.Config{
		DAGParams:       cfg.NetParams(),
		DatabaseContext: databaseContext,
	})
	if err != nil {
		log.Errorf("Error initializing the consensus graph: %+v", err)
		return err
	}
	graph.Subscribe(logNotification)

	tipHash, tipHeight := graph.PivotTip()
	log.Infof("Consensus graph ready with %d blocks, pivot tip %s (height %d)",
		graph.BlockCount(), tipHash, tipHeight)

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems.
	<-interrupt
	return nil
}

// logNotification is the daemon's consensus subscriber. Until block
// relay is hooked up it only surfaces consensus events in the log.
func logNotification(notification *consensus.Notification) {
	switch data := notification.Data.(type) {
	case *consensus.BlockAddedNotificationData:
		hash := data.Block.BlockHash()
		log.Debugf("Block %s added to the DAG (was pending: %t)", hash, data.WasPending)

	case *consensus.EpochSealedNotificationData:
		log.Debugf("Epoch %d sealed with %d blocks under pivot %s",
			data.Epoch.Number, len(data.Epoch.Blocks), data.Epoch.PivotHash)

	case *consensus.ReorganizationNotificationData:
		log.Infof("Pivot chain reorganized at height %d: %d epochs retracted, %d added",
			data.ForkHeight, len(data.RetractedPivotHashes), len(data.AddedPivotHashes))
	}
}
