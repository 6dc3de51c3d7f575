package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	dcli "github.com/babylonchain/guardian-attestor/attestor/cmd/attestd/daemon"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[attestd] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "attestd"
	app.Usage = "Guardian Attestation Daemon (attestd)."
	app.Commands = append(app.Commands, dcli.InitCommand, dcli.StartCommand, dcli.SignCommand)
	app.Commands = append(app.Commands, dcli.VerifyCommand, dcli.SubmitCommand, dcli.GuardianSetCommand, dcli.ClaimsCommand)
	app.Commands = append(app.Commands, dcli.KeysCommands...)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}
