package cli

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/service"
)

var SubmitCmd = &cli.Command{
	Name:      "submit",
	Usage:     "submit an already signed transaction to the network",
	ArgsUsage: "<tx.signed>",
	Before:    withService,
	After:     closeService,
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		if cctx.NArg() != 1 {
			return xerrors.New("expected exactly one signed file argument")
		}
		raw, err := os.ReadFile(cctx.Args().First())
		if err != nil {
			return err
		}

		res, err := svc.Ex.SubmitOnly(cctx.Context, service.SubmitPayload{RawTx: raw})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}
