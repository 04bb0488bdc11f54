package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	cli2 "github.com/larestrepo/cardanoapi/cli"
	"github.com/larestrepo/cardanoapi/lib/apilog"
)

var log = logging.Logger("cardanoapi")

func main() {
	apilog.SetupLogLevels()

	app := &cli.App{
		Name:    "cardanoapi",
		Usage:   "wallet, key, script and transaction operations against a Cardano node",
		Version: "1.0.0",

		Commands: cli2.All(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
