package cli

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/service"
)

var SignCmd = &cli.Command{
	Name:      "sign",
	Usage:     "sign an uploaded draft transaction with stored wallet keys",
	ArgsUsage: "<tx.draft>",
	Before:    withService,
	After:     closeService,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "wallet",
			Usage:    "signer wallet id, repeatable",
			Required: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		if cctx.NArg() != 1 {
			return xerrors.New("expected exactly one draft file argument")
		}
		raw, err := os.ReadFile(cctx.Args().First())
		if err != nil {
			return err
		}

		res, err := svc.Ex.SignOnly(cctx.Context, service.SignPayload{
			RawTx:     raw,
			WalletIDs: cctx.StringSlice("wallet"),
		})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}
