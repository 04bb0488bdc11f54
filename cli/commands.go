package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/larestrepo/cardanoapi/internal/config"
	"github.com/larestrepo/cardanoapi/internal/node"
	"github.com/larestrepo/cardanoapi/internal/service"
)

type ctxKey string

const ctxService ctxKey = "service"

// All returns every top-level command of the application.
func All() []*cli.Command {
	return []*cli.Command{
		KeysCmd,
		WalletCmd,
		SendCmd,
		MintCmd,
		BuildCmd,
		SignCmd,
		SubmitCmd,
		ScriptCmd,
		QueryCmd,
		UserCmd,
	}
}

// withService loads configuration, wires the service and injects it into
// the command context. Paired with closeService in After hooks.
func withService(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, ctxService, svc)
	return nil
}

func closeService(c *cli.Context) error {
	if svc, ok := c.Context.Value(ctxService).(*service.Service); ok {
		return svc.Close()
	}
	return nil
}

func getService(cctx *cli.Context) *service.Service {
	return cctx.Context.Value(ctxService).(*service.Service)
}

// parseDestinations parses "address:amount" pairs, amount in lovelace.
func parseDestinations(values []string) ([]node.Destination, error) {
	if len(values) == 0 {
		return nil, xerrors.New("at least one destination is required")
	}
	dests := make([]node.Destination, 0, len(values))
	for _, v := range values {
		addr, amountStr, ok := strings.Cut(v, ":")
		if !ok {
			return nil, xerrors.Errorf("malformed destination %q, want address:amount", v)
		}
		amount, err := strconv.ParseInt(amountStr, 10, 64)
		if err != nil || amount <= 0 {
			return nil, xerrors.Errorf("malformed amount in destination %q", v)
		}
		dests = append(dests, node.Destination{Address: addr, Amount: amount})
	}
	return dests, nil
}

// readMetadata loads the optional metadata JSON file.
func readMetadata(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, xerrors.Errorf("metadata file %s is not valid JSON", path)
	}
	return raw, nil
}

// printResult renders a workflow result: colored status line plus the
// full structured response.
func printResult(res *service.Result) error {
	if res.Success {
		color.Green(res.Message)
	} else {
		color.Red(res.Message)
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
