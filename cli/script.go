package cli

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/script"
	"github.com/larestrepo/cardanoapi/internal/service"
	"github.com/larestrepo/cardanoapi/internal/ui/tablewriter"
)

var ScriptCmd = &cli.Command{
	Name:   "script",
	Usage:  "build, upload and inspect native scripts",
	Before: withService,
	After:  closeService,
	Subcommands: []*cli.Command{
		scriptCreateCmd,
		scriptUploadCmd,
		scriptListCmd,
	},
}

var scriptCreateCmd = &cli.Command{
	Name:  "create",
	Usage: "build a native script from key hashes and derive its policy id",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "script name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "signature rule: sig, all, any or atLeast",
			Value: string(script.TypeAll),
		},
		&cli.IntFlag{
			Name:  "required",
			Usage: "required signer count, atLeast scripts only",
		},
		&cli.StringSliceFlag{
			Name:     "hash",
			Usage:    "payment verification key hash, repeatable",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:  "before",
			Usage: "script is valid before this slot",
		},
		&cli.Uint64Flag{
			Name:  "after",
			Usage: "script is valid after this slot",
		},
		&cli.StringFlag{
			Name:  "purpose",
			Usage: "script purpose: mint or multisig",
			Value: string(script.PurposeMint),
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		if cctx.IsSet("before") && cctx.IsSet("after") {
			return xerrors.New("before and after are mutually exclusive")
		}
		var timeType string
		var slot uint64
		if cctx.IsSet("before") {
			timeType, slot = script.TimeBefore, cctx.Uint64("before")
		} else if cctx.IsSet("after") {
			timeType, slot = script.TimeAfter, cctx.Uint64("after")
		}

		res, err := svc.Ex.CreateScript(cctx.Context, script.Params{
			Name:     cctx.String("name"),
			Type:     script.Type(cctx.String("type")),
			Required: cctx.Int("required"),
			Hashes:   cctx.StringSlice("hash"),
			TimeType: timeType,
			Slot:     slot,
			Purpose:  script.Purpose(cctx.String("purpose")),
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var scriptUploadCmd = &cli.Command{
	Name:      "upload",
	Usage:     "store an externally built script document",
	ArgsUsage: "<script.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "script name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "purpose",
			Usage: "script purpose: mint or multisig",
			Value: string(script.PurposeMint),
		},
	},
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		if cctx.NArg() != 1 {
			return xerrors.New("expected exactly one script file argument")
		}
		content, err := os.ReadFile(cctx.Args().First())
		if err != nil {
			return err
		}

		res, err := svc.Ex.UploadScript(cctx.Context, service.UploadScriptPayload{
			Name:    cctx.String("name"),
			Purpose: script.Purpose(cctx.String("purpose")),
			Content: content,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var scriptListCmd = &cli.Command{
	Name:  "list",
	Usage: "list stored scripts",
	Action: func(cctx *cli.Context) error {
		svc := getService(cctx)

		scripts, err := svc.Store.Scripts()
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("ID"),
			tablewriter.Col("Name"),
			tablewriter.Col("Purpose"),
			tablewriter.Col("Type"),
			tablewriter.Col("Required", tablewriter.RightAlign()),
			tablewriter.NewLineCol("PolicyID"),
		)
		for _, s := range scripts {
			tw.Write(map[string]interface{}{
				"ID":       s.ID,
				"Name":     s.Name,
				"Purpose":  s.Purpose,
				"Type":     s.Type,
				"Required": s.Required,
				"PolicyID": s.PolicyID,
			})
		}
		return tw.Flush(os.Stdout)
	},
}
