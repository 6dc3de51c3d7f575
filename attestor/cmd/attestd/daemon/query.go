package daemon

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli"

	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/types"
)

type ClaimStatus struct {
	Key      store.Key `json:"key"`
	Consumed bool      `json:"consumed"`
}

var GuardianSetCommand = cli.Command{
	Name:  "guardian-set",
	Usage: "Show a guardian set; the current one unless --index is given.",
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		daemonAddrCliFlag,
		cli.StringFlag{
			Name:  indexFlag,
			Usage: "Index of the guardian set",
		},
	},
	Action: showGuardianSet,
}

var ClaimsCommand = cli.Command{
	Name:      "claims",
	Usage:     "Show whether the message of an emitter sequence has been consumed.",
	UsageText: "claims [emitter chain] [emitter address] [sequence]\n   claims [emitter chain] [emitter address] --list",
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		daemonAddrCliFlag,
		cli.BoolFlag{
			Name:  listFlag,
			Usage: "List every consumed claim of the emitter; local database only",
		},
	},
	Action: showClaims,
}

func showGuardianSet(ctx *cli.Context) error {
	var index *uint32
	if s := ctx.String(indexFlag); s != "" {
		i, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid guardian set index %q: %w", s, err)
		}
		idx := uint32(i)
		index = &idx
	}

	c, cleanUp, err := daemonClient(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		defer cleanUp()
		gs, err := c.GetGuardianSet(context.Background(), index)
		if err != nil {
			return err
		}
		printRespJSON(gs)
		return nil
	}

	a, closeDB, err := offlineAttestor(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var gs *guardianset.GuardianSet
	if index == nil {
		gs = a.Registry().Current()
	} else {
		gs, err = a.Registry().Get(*index)
		if err != nil {
			return err
		}
	}
	printRespJSON(gs)

	return nil
}

func showClaims(ctx *cli.Context) error {
	args := ctx.Args()
	list := ctx.Bool(listFlag)
	if (list && len(args) != 2) || (!list && len(args) != 3) {
		return errors.New("invalid arguments, see usage")
	}

	chain, err := types.ChainIDFromString(args.Get(0))
	if err != nil {
		return err
	}
	emitter, err := types.StringToAddress(args.Get(1))
	if err != nil {
		return fmt.Errorf("invalid emitter address: %w", err)
	}

	if list {
		return listClaims(ctx, chain, emitter)
	}

	seq, err := strconv.ParseUint(args.Get(2), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence: %w", err)
	}
	key := store.Key{EmitterChain: chain, EmitterAddress: emitter, Sequence: seq}

	c, cleanUp, err := daemonClient(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		defer cleanUp()
		consumed, err := c.IsConsumed(context.Background(), key)
		if err != nil {
			return err
		}
		printRespJSON(ClaimStatus{Key: key, Consumed: consumed})
		return nil
	}

	a, closeDB, err := offlineAttestor(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	consumed, err := a.IsConsumed(key)
	if err != nil {
		return err
	}
	printRespJSON(ClaimStatus{Key: key, Consumed: consumed})

	return nil
}

func listClaims(ctx *cli.Context, chain types.ChainID, emitter types.Address) error {
	if ctx.String(daemonAddrFlag) != "" {
		return errors.New("--list reads the local database and cannot be combined with --daemon-address")
	}

	a, closeDB, err := offlineAttestor(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	claims, err := a.ListClaims(chain, emitter)
	if err != nil {
		return err
	}
	printRespJSON(claims)

	return nil
}
