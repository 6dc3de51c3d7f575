package daemon

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/types"
)

type SignedEnvelope struct {
	MessageID     string `json:"message_id"`
	Digest        string `json:"digest"`
	NumSignatures int    `json:"num_signatures"`
	EnvelopeHex   string `json:"envelope_hex"`
}

var SignCommand = cli.Command{
	Name:      "sign",
	Usage:     "Build an envelope and sign it with locally stored guardian keys.",
	UsageText: "sign --guardian-key 0:guardian0 --guardian-key 1:guardian1 --emitter-chain solana --emitter-address [hex] --sequence 1 --payload [hex]",
	Description: `Mock signer for devnets and tests. Each --guardian-key pairs a guardian
	index with the name of a key created by "keys generate".`,
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		cli.StringSliceFlag{
			Name:     guardianKeyFlag,
			Usage:    "A signing guardian as <guardian index>:<key name>",
			Required: true,
		},
		cli.UintFlag{
			Name:  guardianSetIndexFlag,
			Usage: "The guardian set the signatures belong to",
		},
		cli.Int64Flag{
			Name:  timestampFlag,
			Usage: "Unix timestamp of the observation; defaults to now",
		},
		cli.UintFlag{
			Name:  nonceFlag,
			Usage: "The message nonce",
		},
		cli.StringFlag{
			Name:     emitterChainFlag,
			Usage:    "Name or numeric id of the emitter chain",
			Required: true,
		},
		cli.StringFlag{
			Name:     emitterAddressFlag,
			Usage:    "Hex address of the emitter, left padded to 32 bytes",
			Required: true,
		},
		cli.Uint64Flag{
			Name:  sequenceFlag,
			Usage: "The emitter sequence number",
		},
		cli.UintFlag{
			Name:  consistencyLevelFlag,
			Usage: "The consistency level",
		},
		cli.StringFlag{
			Name:  payloadFlag,
			Usage: "Hex encoded payload",
		},
	},
	Action: signEnvelope,
}

type guardianKey struct {
	index uint8
	key   *ecdsa.PrivateKey
}

func signEnvelope(ctx *cli.Context) error {
	homePath, err := getHomeFlag(ctx)
	if err != nil {
		return fmt.Errorf("failed to load home flag: %w", err)
	}

	body, err := bodyFromFlags(ctx)
	if err != nil {
		return err
	}

	signers, err := parseGuardianKeys(homePath, ctx.StringSlice(guardianKeyFlag))
	if err != nil {
		return err
	}

	setIndex := ctx.Uint(guardianSetIndexFlag)
	if uint64(setIndex) > uint64(^uint32(0)) {
		return fmt.Errorf("guardian set index %d out of range", setIndex)
	}

	env := envelope.New(uint32(setIndex), *body)
	for _, s := range signers {
		if err := env.AddSignature(s.key, s.index); err != nil {
			return fmt.Errorf("failed to sign as guardian %d: %w", s.index, err)
		}
	}

	data, err := env.Encode()
	if err != nil {
		return err
	}

	printRespJSON(SignedEnvelope{
		MessageID:     env.MessageID(),
		Digest:        env.HexDigest(),
		NumSignatures: len(env.Signatures),
		EnvelopeHex:   hex.EncodeToString(data),
	})

	return nil
}

func bodyFromFlags(ctx *cli.Context) (*envelope.Body, error) {
	chain, err := types.ChainIDFromString(ctx.String(emitterChainFlag))
	if err != nil {
		return nil, err
	}
	emitter, err := types.StringToAddress(ctx.String(emitterAddressFlag))
	if err != nil {
		return nil, fmt.Errorf("invalid emitter address: %w", err)
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(ctx.String(payloadFlag), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	timestamp := ctx.Int64(timestampFlag)
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	if timestamp < 0 || timestamp > int64(^uint32(0)) {
		return nil, fmt.Errorf("timestamp %d out of range", timestamp)
	}
	nonce := ctx.Uint(nonceFlag)
	if uint64(nonce) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("nonce %d out of range", nonce)
	}
	consistency := ctx.Uint(consistencyLevelFlag)
	if consistency > 255 {
		return nil, fmt.Errorf("consistency level %d out of range", consistency)
	}

	return &envelope.Body{
		Timestamp:        uint32(timestamp),
		Nonce:            uint32(nonce),
		EmitterChain:     chain,
		EmitterAddress:   emitter,
		Sequence:         ctx.Uint64(sequenceFlag),
		ConsistencyLevel: uint8(consistency),
		Payload:          payload,
	}, nil
}

func parseGuardianKeys(homePath string, entries []string) ([]guardianKey, error) {
	if len(entries) == 0 {
		return nil, errors.New("at least one guardian key is required")
	}

	signers := make([]guardianKey, 0, len(entries))
	for _, entry := range entries {
		indexStr, name, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid guardian key %q: expected <index>:<key name>", entry)
		}
		index, err := strconv.ParseUint(indexStr, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid guardian index in %q: %w", entry, err)
		}
		key, _, err := loadKey(homePath, name)
		if err != nil {
			return nil, err
		}
		signers = append(signers, guardianKey{index: uint8(index), key: key})
	}

	return signers, nil
}
