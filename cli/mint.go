package cli

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/service"
)

var MintCmd = &cli.Command{
	Name:   "mint",
	Usage:  "mint native tokens under a stored minting policy",
	Before: withService,
	After:  closeService,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "wallet",
			Usage:    "origin wallet id, pays fees and signs",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "script",
			Usage:    "stored minting script id",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:     "token",
			Usage:    "token as name:amount, repeatable",
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
			Value: 2,
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
		tokens, err := parseTokens(cctx.StringSlice("token"))
		if err != nil {
			return err
		}
		metadata, err := readMetadata(cctx.String("metadata"))
		if err != nil {
			return err
		}

		res, err := svc.Ex.Mint(cctx.Context, service.MintPayload{
			SendPayload: service.SendPayload{
				WalletID:        cctx.String("wallet"),
				Destinations:    dests,
				Metadata:        metadata,
				Witness:         cctx.Int("witness"),
				SignerWalletIDs: cctx.StringSlice("signer"),
			},
			ScriptID: cctx.String("script"),
			Tokens:   tokens,
		})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

func parseTokens(values []string) ([]node.Token, error) {
	tokens := make([]node.Token, 0, len(values))
	for _, v := range values {
		name, amountStr, ok := strings.Cut(v, ":")
		if !ok || name == "" {
			return nil, xerrors.Errorf("malformed token %q, want name:amount", v)
		}
		amount, err := strconv.ParseInt(amountStr, 10, 64)
		if err != nil || amount <= 0 {
			return nil, xerrors.Errorf("malformed amount in token %q", v)
		}
		tokens = append(tokens, node.Token{Name: name, Amount: amount})
	}
	return tokens, nil
}
