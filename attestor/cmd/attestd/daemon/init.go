package daemon

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/util"
)

var InitCommand = cli.Command{
	Name:  "init",
	Usage: "Initialize attestd home directory.",
	Flags: []cli.Flag{
		homeCliFlag("Path to where the home directory will be initialized"),
		cli.BoolFlag{
			Name:     forceFlag,
			Usage:    "Override existing configuration",
			Required: false,
		},
		cli.StringSliceFlag{
			Name:  genesisKeyFlag,
			Usage: "Hex address of a genesis guardian; repeat in guardian index order",
		},
	},
	Action: initHome,
}

func initHome(c *cli.Context) error {
	homePath, err := getHomeFlag(c)
	if err != nil {
		return err
	}
	force := c.Bool(forceFlag)

	if util.FileExists(config.ConfigFile(homePath)) && !force {
		return fmt.Errorf("config already exists in %s", homePath)
	}

	for _, dir := range []string{homePath, config.LogDir(homePath), config.KeyDir(homePath)} {
		if err := util.MakeDirectory(util.CleanAndExpandPath(dir)); err != nil {
			return err
		}
	}

	defaultConfig := config.DefaultConfigWithHome(homePath)
	defaultConfig.GenesisGuardianKeys = c.StringSlice(genesisKeyFlag)
	if err := defaultConfig.Validate(); err != nil {
		return err
	}

	return config.WriteConfigFile(homePath, &defaultConfig)
}
