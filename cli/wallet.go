package cli

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/ui/tablewriter"
)

var WalletCmd = &cli.Command{
	Name:   "wallet",
	Usage:  "inspect stored wallets and their transactions",
	Before: withService,
	After:  closeService,
	Subcommands: []*cli.Command{
		walletListCmd,
		walletShowCmd,
		walletTransactionsCmd,
	},
}

var walletListCmd = &cli.Command{
	Name:  "list",
	Usage: "list stored wallets",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		wallets, err := svc.Store.Wallets()
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("ID"),
			tablewriter.Col("Name"),
			tablewriter.NewLineCol("BaseAddr"),
		)
		for _, w := range wallets {
			tw.Write(map[string]interface{}{
				"ID":       w.ID,
				"Name":     w.Name,
				"BaseAddr": w.BaseAddr,
			})
		}
		return tw.Flush(os.Stdout)
	},
}

var walletShowCmd = &cli.Command{
	Name:      "show",
	Usage:     "show the public material of a stored wallet",
	ArgsUsage: "<wallet-id>",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		if cctx.NArg() != 1 {
			return xerrors.New("expected exactly one wallet id argument")
		}
		w, err := svc.Store.WalletByID(cctx.Args().First())
		if err != nil {
			return err
		}
		// the store decrypts signing keys for workflow use; they never
		// leave the process through this command
		w.PaymentSkey = nil
		w.StakeSkey = nil
		return printJSON(w)
	},
}

var walletTransactionsCmd = &cli.Command{
	Name:  "transactions",
	Usage: "list recorded transactions, most recent first",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		txs, err := svc.Store.Transactions()
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("TxID"),
			tablewriter.Col("Wallet"),
			tablewriter.Col("Fees", tablewriter.RightAlign()),
			tablewriter.Col("Network"),
			tablewriter.Col("Processed"),
			tablewriter.Col("Submission"),
		)
		for _, tx := range txs {
			wallet := ""
			if tx.IDWallet != nil {
				wallet = *tx.IDWallet
			}
			tw.Write(map[string]interface{}{
				"TxID":       tx.TxID,
				"Wallet":     wallet,
				"Fees":       tx.Fees,
				"Network":    tx.Network,
				"Processed":  tx.Processed,
				"Submission": tx.Submission.Format("2006-01-02 15:04:05"),
			})
		}
		return tw.Flush(os.Stdout)
	},
}
