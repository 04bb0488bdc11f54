package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/larestrepo/cardanoapi/internal/service"
)

var BuildCmd = &cli.Command{
	Name:   "build",
	Usage:  "build a draft transaction from a raw address, without signing or submitting",
	Before: withService,
	After:  closeService,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "from",
			Usage:    "origin address",
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

		res, err := svc.Ex.BuildOnly(cctx.Context, service.BuildPayload{
			OriginAddr:   cctx.String("from"),
			Destinations: dests,
			Metadata:     metadata,
			Witness:      cctx.Int("witness"),
		})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}
