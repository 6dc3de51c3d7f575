package daemon

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli"

	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/util"
)

const keyFileExt = ".key"

type KeyOutput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	KeyFile string `json:"key_file"`
}

var KeysCommands = []cli.Command{
	{
		Name:     "keys",
		Usage:    "Command sets of managing guardian keys for the mock signer.",
		Category: "Key management",
		Subcommands: []cli.Command{
			GenerateKeyCmd,
			ShowKeyCmd,
		},
	},
}

var GenerateKeyCmd = cli.Command{
	Name:  "generate",
	Usage: "Generate a guardian key and store it in the home directory.",
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		cli.StringFlag{
			Name:     keyNameFlag,
			Usage:    "The name of the key to be created",
			Required: true,
		},
	},
	Action: generateKey,
}

var ShowKeyCmd = cli.Command{
	Name:  "show",
	Usage: "Show the guardian address of a stored key.",
	Flags: []cli.Flag{
		homeCliFlag("Path to the attestd home directory"),
		cli.StringFlag{
			Name:     keyNameFlag,
			Usage:    "The name of the key",
			Required: true,
		},
	},
	Action: showKey,
}

func generateKey(ctx *cli.Context) error {
	homePath, err := getHomeFlag(ctx)
	if err != nil {
		return fmt.Errorf("failed to load home flag: %w", err)
	}
	keyName := ctx.String(keyNameFlag)

	keyFile, err := keyFilePath(homePath, keyName)
	if err != nil {
		return err
	}
	if util.FileExists(keyFile) {
		return fmt.Errorf("key %s already exists", keyName)
	}

	if err := util.MakeDirectory(config.KeyDir(homePath)); err != nil {
		return err
	}

	privKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(privKey.Serialize())), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}

	key, err := crypto.ToECDSA(privKey.Serialize())
	if err != nil {
		return err
	}

	printRespJSON(KeyOutput{
		Name:    keyName,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		KeyFile: keyFile,
	})

	return nil
}

func showKey(ctx *cli.Context) error {
	homePath, err := getHomeFlag(ctx)
	if err != nil {
		return fmt.Errorf("failed to load home flag: %w", err)
	}
	keyName := ctx.String(keyNameFlag)

	key, keyFile, err := loadKey(homePath, keyName)
	if err != nil {
		return err
	}

	printRespJSON(KeyOutput{
		Name:    keyName,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		KeyFile: keyFile,
	})

	return nil
}

func keyFilePath(homePath, keyName string) (string, error) {
	if keyName == "" || strings.ContainsAny(keyName, `/\`) || strings.HasPrefix(keyName, ".") {
		return "", fmt.Errorf("invalid key name %q", keyName)
	}
	return filepath.Join(config.KeyDir(homePath), keyName+keyFileExt), nil
}

func loadKey(homePath, keyName string) (*ecdsa.PrivateKey, string, error) {
	keyFile, err := keyFilePath(homePath, keyName)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read key %s: %w", keyName, err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(raw) != secp256k1.PrivKeyBytesLen {
		return nil, "", fmt.Errorf("key file %s is corrupted", keyFile)
	}

	key, err := crypto.ToECDSA(secp256k1.PrivKeyFromBytes(raw).Serialize())
	if err != nil {
		return nil, "", err
	}

	return key, keyFile, nil
}
