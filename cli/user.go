package cli

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	crypto2 "github.com/larestrepo/cardanoapi/internal/crypto"
	"github.com/larestrepo/cardanoapi/internal/models"
	"github.com/larestrepo/cardanoapi/internal/ui/tablewriter"
)

var UserCmd = &cli.Command{
	Name:   "user",
	Usage:  "manage api users",
	Before: withService,
	After:  closeService,
	Subcommands: []*cli.Command{
		userAddCmd,
		userListCmd,
	},
}

var userAddCmd = &cli.Command{
	Name:  "add",
	Usage: "create a user with a bcrypt-hashed password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "username",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "wallet",
			Usage: "wallet id to associate with the user",
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		hashed, err := crypto2.HashPassword(cctx.String("password"))
		if err != nil {
			return xerrors.Errorf("hash password: %w", err)
		}

		u := &models.User{
			Username:       cctx.String("username"),
			HashedPassword: hashed,
		}
		if walletID := cctx.String("wallet"); walletID != "" {
			if _, err := svc.Store.WalletByID(walletID); err != nil {
				return err
			}
			u.IDWallet = &walletID
		}

		if err := svc.Store.CreateUser(u); err != nil {
			return err
		}
		return printJSON(u)
	},
}

var userListCmd = &cli.Command{
	Name:  "list",
	Usage: "list users",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		users, err := svc.Store.Users()
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("ID"),
			tablewriter.Col("Username"),
			tablewriter.Col("Wallet"),
			tablewriter.Col("Verified"),
		)
		for _, u := range users {
			wallet := ""
			if u.IDWallet != nil {
				wallet = *u.IDWallet
			}
			tw.Write(map[string]interface{}{
				"ID":       u.ID,
				"Username": u.Username,
				"Wallet":   wallet,
				"Verified": u.IsVerified,
			})
		}
		return tw.Flush(os.Stdout)
	},
}
