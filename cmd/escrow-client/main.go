// Command-line client for the escrow service.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/thresholdshare/escrow-backend/api"
	"github.com/thresholdshare/escrow-backend/api/clients"
	"github.com/thresholdshare/escrow-backend/common"
)

var serverURLFlag = &cli.StringFlag{
	Name:  "server-url",
	Value: "http://127.0.0.1:8080",
	Usage: "base URL of the escrow service",
}

func main() {
	app := &cli.App{
		Name:    "escrow-client",
		Usage:   "interact with the escrow service",
		Version: common.Version,
		Flags:   []cli.Flag{serverURLFlag},
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "register a participant",
				ArgsUsage: "<name>",
				Action:    runRegister,
			},
			{
				Name:   "users",
				Usage:  "list registered participants",
				Action: runListUsers,
			},
			{
				Name:      "send",
				Usage:     "escrow a file for a set of recipients",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sender", Required: true, Usage: "sender user ID"},
					&cli.StringSliceFlag{Name: "to", Usage: "recipient user ID (repeatable)"},
					&cli.IntFlag{Name: "threshold", Value: 1, Usage: "number of confirmations required to unlock"},
				},
				Action: runSend,
			},
			{
				Name:      "pending",
				Usage:     "collect pending key shares and decrypted payloads",
				ArgsUsage: "<user-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory to write received payloads to"},
				},
				Action: runPending,
			},
			{
				Name:      "acknowledge",
				Usage:     "return a key share for a message",
				ArgsUsage: "<message-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "recipient user ID"},
					&cli.StringFlag{Name: "share", Required: true, Usage: "hex-encoded key share as delivered"},
				},
				Action: runAcknowledge,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func client(cCtx *cli.Context) *clients.EscrowClient {
	return clients.NewEscrowClient(cCtx.String(serverURLFlag.Name))
}

func runRegister(cCtx *cli.Context) error {
	name := cCtx.Args().First()
	if name == "" {
		return cli.Exit("usage: register <name>", 1)
	}

	user, err := client(cCtx).RegisterUser(name)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", user.ID, user.Name)
	return nil
}

func runListUsers(cCtx *cli.Context) error {
	users, err := client(cCtx).ListUsers()
	if err != nil {
		return err
	}
	for _, user := range users {
		fmt.Printf("%s\t%s\n", user.ID, user.Name)
	}
	return nil
}

func runSend(cCtx *cli.Context) error {
	path := cCtx.Args().First()
	if path == "" {
		return cli.Exit("usage: send <file>", 1)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	msg, err := client(cCtx).SendMessage(api.SendMessageRequest{
		SenderID:    cCtx.String("sender"),
		ReceiverIDs: cCtx.StringSlice("to"),
		Threshold:   cCtx.Int("threshold"),
		Filename:    filepath.Base(path),
		Payload:     payload,
	})
	if err != nil {
		return err
	}

	fmt.Printf("message %s escrowed, threshold %d\n", msg.ID, msg.Threshold)
	return nil
}

func runPending(cCtx *cli.Context) error {
	userID := cCtx.Args().First()
	if userID == "" {
		return cli.Exit("usage: pending <user-id>", 1)
	}
	outDir := cCtx.String("out-dir")

	items, err := client(cCtx).Pending(userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("nothing pending")
		return nil
	}

	for _, item := range items {
		switch item.Kind {
		case api.PendingKindKeyShare:
			fmt.Printf("message %s from %s (%s): key share %s\n",
				item.MessageID, item.SenderID, item.Filename, item.Share)
		case api.PendingKindPayload:
			out := filepath.Join(outDir, item.Filename)
			if err := os.WriteFile(out, item.Payload, 0o600); err != nil {
				return fmt.Errorf("could not write %s: %w", out, err)
			}
			fmt.Printf("message %s from %s: payload written to %s\n",
				item.MessageID, item.SenderID, out)
		default:
			fmt.Printf("message %s: unknown item kind %q\n", item.MessageID, item.Kind)
		}
	}
	return nil
}

func runAcknowledge(cCtx *cli.Context) error {
	messageID := cCtx.Args().First()
	if messageID == "" {
		return cli.Exit("usage: acknowledge <message-id>", 1)
	}

	ack, err := client(cCtx).Acknowledge(messageID, cCtx.String("user"), cCtx.String("share"))
	if err != nil {
		return err
	}

	if !ack.Effect {
		fmt.Println("no effect")
		return nil
	}
	if ack.Message != nil {
		fmt.Printf("confirmed %d/%d", ack.Message.ConfirmedCount, ack.Message.Threshold)
		if !ack.Message.IsEncrypted {
			fmt.Print(", message decrypted")
		}
		fmt.Println()
		return nil
	}
	fmt.Println("confirmed")
	return nil
}
