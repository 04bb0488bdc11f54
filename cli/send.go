package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/larestrepo/cardanoapi/internal/service"
)

var SendCmd = &cli.Command{
	Name:   "send",
	Usage:  "build, sign and submit a lovelace transfer from a stored wallet",
	Before: withService,
	After:  closeService,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "wallet",
			Usage:    "origin wallet id",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:     "to",
			Usage:    "destination as address:lovelace, repeatable",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "metadata",
			Usage: "path to a metadata JSON file",
		},
		&cli.IntFlag{
			Name:  "witness",
			Usage: "witness count override for fee calculation",
			Value: 1,
		},
		&cli.StringSliceFlag{
			Name:  "signer",
			Usage: "extra signer wallet id, repeatable",
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		dests, err := parseDestinations(cctx.StringSlice("to"))
		if err != nil {
			return err
		}
		metadata, err := readMetadata(cctx.String("metadata"))
		if err != nil {
			return err
		}

		res, err := svc.Ex.SimpleSend(cctx.Context, service.SendPayload{
			WalletID:        cctx.String("wallet"),
			Destinations:    dests,
			Metadata:        metadata,
			Witness:         cctx.Int("witness"),
			SignerWalletIDs: cctx.StringSlice("signer"),
		})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}
