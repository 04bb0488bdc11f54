package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/repository"
	"github.com/larestrepo/cardanoapi/internal/service"
	"github.com/larestrepo/cardanoapi/internal/ui/tablewriter"
)

var QueryCmd = &cli.Command{
	Name:   "query",
	Usage:  "query the node for chain state",
	Before: withService,
	After:  closeService,
	Subcommands: []*cli.Command{
		queryTipCmd,
		queryParamsCmd,
		queryBalanceCmd,
		queryUTXOsCmd,
	},
}

var queryTipCmd = &cli.Command{
	Name:  "tip",
	Usage: "show the current chain tip",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)
		tip, err := svc.Node.QueryTip(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Println(string(tip))
		return nil
	},
}

var queryParamsCmd = &cli.Command{
	Name:  "protocol-parameters",
	Usage: "show the current protocol parameters",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)
		params, err := svc.Node.QueryProtocolParameters(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Println(string(params))
		return nil
	},
}

var queryBalanceCmd = &cli.Command{
	Name:      "balance",
	Usage:     "show the lovelace balance of an address or stored wallet",
	ArgsUsage: "<address|wallet-id>",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		address, err := resolveAddress(svc, cctx.Args().First())
		if err != nil {
			return err
		}
		balance, err := svc.Node.QueryBalance(cctx.Context, address)
		if err != nil {
			return err
		}
		fmt.Printf("%d lovelace\n", balance)
		return nil
	},
}

var queryUTXOsCmd = &cli.Command{
	Name:      "utxos",
	Usage:     "list the utxos held by an address or stored wallet",
	ArgsUsage: "<address|wallet-id>",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		address, err := resolveAddress(svc, cctx.Args().First())
		if err != nil {
			return err
		}
		utxos, err := svc.Node.QueryUTXOs(cctx.Context, address)
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("TxHash"),
			tablewriter.Col("TxIx", tablewriter.RightAlign()),
			tablewriter.Col("Lovelace", tablewriter.RightAlign()),
		)
		for _, u := range utxos {
			tw.Write(map[string]interface{}{
				"TxHash":   u.TxHash,
				"TxIx":     u.TxIx,
				"Lovelace": u.Lovelace,
			})
		}
		return tw.Flush(os.Stdout)
	},
}

// resolveAddress accepts either a bech32 address or a stored wallet id
// and returns the address to query.
func resolveAddress(svc *service.Service, arg string) (string, error) {
	if arg == "" {
		return "", xerrors.New("an address or wallet id is required")
	}
	w, err := svc.Store.WalletByID(arg)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return arg, nil
		}
		return "", err
	}
	return w.BaseAddr, nil
}
