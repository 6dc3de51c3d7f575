package daemon

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"
)

var VerifyCommand = cli.Command{
	Name:      "verify",
	Usage:     "Verify a hex encoded envelope and decode its payload without consuming it.",
	UsageText: "verify [envelope hex]",
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		daemonAddrCliFlag,
	},
	Action: verifyEnvelope,
}

var SubmitCommand = cli.Command{
	Name:      "submit",
	Usage:     "Submit a hex encoded envelope to a running attestd for execution.",
	UsageText: "submit [envelope hex] --daemon-address [host:port]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:     daemonAddrFlag,
			Usage:    "The address of the running attestd",
			Required: true,
		},
	},
	Action: submitEnvelope,
}

func envelopeArg(ctx *cli.Context) ([]byte, error) {
	arg := strings.TrimPrefix(strings.TrimSpace(ctx.Args().First()), "0x")
	if arg == "" {
		return nil, errors.New("invalid argument, please provide a hex encoded envelope")
	}
	data, err := hex.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid envelope hex: %w", err)
	}
	return data, nil
}

func verifyEnvelope(ctx *cli.Context) error {
	data, err := envelopeArg(ctx)
	if err != nil {
		return err
	}

	c, cleanUp, err := daemonClient(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		defer cleanUp()
		res, err := c.VerifyAttestation(context.Background(), data)
		if err != nil {
			return err
		}
		printRespJSON(res)
		return nil
	}

	a, closeDB, err := offlineAttestor(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := a.Verify(data)
	if err != nil {
		return err
	}
	printRespJSON(res)

	return nil
}

func submitEnvelope(ctx *cli.Context) error {
	data, err := envelopeArg(ctx)
	if err != nil {
		return err
	}

	c, cleanUp, err := daemonClient(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.New("submit needs a running attestd, set --daemon-address")
	}
	defer cleanUp()

	res, err := c.SubmitAttestation(context.Background(), data)
	if err != nil {
		return err
	}
	printRespJSON(res)

	return nil
}
