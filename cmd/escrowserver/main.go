// Escrow service server. Accepts payloads for threshold escrow, hands out
// key shares, and decrypts payloads once enough shares come back.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/thresholdshare/escrow-backend/cmd/flags"
	"github.com/thresholdshare/escrow-backend/common"
	"github.com/thresholdshare/escrow-backend/escrow"
	"github.com/thresholdshare/escrow-backend/httpserver"
	"github.com/thresholdshare/escrow-backend/repository"
	"github.com/thresholdshare/escrow-backend/storage"
)

func main() {
	app := &cli.App{
		Name:    "escrowserver",
		Usage:   "threshold escrow service",
		Version: common.Version,
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.DatabaseFlag,
			flags.StorageFlag,
			flags.ValidityWindowFlag,
		}, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
	databaseURI := cCtx.String(flags.DatabaseFlag.Name)
	storageURIs := cCtx.StringSlice(flags.StorageFlag.Name)
	validityWindow := cCtx.Duration(flags.ValidityWindowFlag.Name)

	logger := flags.SetupLogger(cCtx)

	logger.Info("Opening database", "uri", databaseURI)
	repo, err := repository.Open(databaseURI)
	if err != nil {
		logger.Error("Failed to open database", "err", err)
		return err
	}
	defer repo.Close()

	storageFactory := storage.NewFactory(logger)
	blobs, err := storageFactory.CreateMultiStore(storageURIs)
	if err != nil {
		logger.Error("Failed to set up payload storage", "err", err)
		return err
	}

	coordinator := escrow.New(repo, blobs, validityWindow, logger)
	handler := httpserver.NewHandler(coordinator, repo, logger)

	cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	logger.Info("Shutting down")
	server.Shutdown()
	return nil
}
