package cli

import (
	"strings"

	"github.com/urfave/cli/v2"
)

var KeysCmd = &cli.Command{
	Name:   "keys",
	Usage:  "generate and recover wallet key material",
	Before: withService,
	After:  closeService,
	Subcommands: []*cli.Command{
		keysGenerateCmd,
		keysRecoverCmd,
		keysMnemonicCmd,
	},
}

var keysGenerateCmd = &cli.Command{
	Name:  "generate",
	Usage: "generate a new mnemonic and derive a full wallet from it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "wallet name",
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "mnemonic word count",
			Value: 24,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "persist the derived wallet (signing keys stored encrypted)",
			Value: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)
		derived, err := svc.Deriver.Generate(cctx.Context, cctx.String("name"), cctx.Int("size"), cctx.Bool("save"))
		if err != nil {
			return err
		}
		return printJSON(derived)
	},
}

var keysRecoverCmd = &cli.Command{
	Name:      "recover",
	Usage:     "derive a wallet from an existing mnemonic",
	ArgsUsage: "<word>...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "wallet name",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "persist the derived wallet (signing keys stored encrypted)",
			Value: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		var words []string
		for _, arg := range cctx.Args().Slice() {
			words = append(words, strings.Fields(arg)...)
		}

		derived, err := svc.Deriver.Recover(cctx.Context, cctx.String("name"), words, cctx.Bool("save"))
		if err != nil {
			return err
		}
		return printJSON(derived)
	},
}

var keysMnemonicCmd = &cli.Command{
	Name:  "mnemonic",
	Usage: "generate a recovery phrase without deriving or storing anything",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "size",
			Usage: "mnemonic word count",
			Value: 24,
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)
		words, err := svc.Deriver.GenerateMnemonic(cctx.Context, cctx.Int("size"))
		if err != nil {
			return err
		}
		return printJSON(words)
	},
}
