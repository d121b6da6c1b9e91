package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settlement-go/pkg/settlement"
)

const usage = `usage: settlementctl <command> [arguments]

Commands:
  balance                        show the merchant balance
  get <id>                       fetch a settlement by ID
  get-txn <txnId>                fetch a settlement by txnId
  list [key=value...]            list settlements, e.g. status=pending limit=10
  list-account <accountId>       list settlements of one account
  create -account ID -amount N   create a settlement [-remarks TEXT] [-txn ID]
  add-account -nickname N -type T
                                 register an account; bank_account takes
                                 -account-number -ifsc -holder, vpa takes -vpa
  remove-account <accountId>     remove an account

Environment: SETTLEMENT_API_TOKEN, SETTLEMENT_BASE_URL, SETTLEMENT_TIMEOUT
`

// A command checks its arguments and returns the action to run against the
// API. Usage errors surface before any configuration is read.
type command func(args []string) (action, error)

type action func(ctx context.Context, c *settlement.Client, out io.Writer) error

var commands = map[string]command{
	"balance":        balance,
	"get":            get,
	"get-txn":        getTxn,
	"list":           list,
	"list-account":   listAccount,
	"create":         create,
	"add-account":    addAccount,
	"remove-account": removeAccount,
}

var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	run, err := cmd(os.Args[2:])
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
			os.Exit(2)
		}
		fail(err)
	}

	cfg, err := settlement.ConfigFromEnv()
	if err != nil {
		fail(err)
	}
	client, err := settlement.New(cfg)
	if err != nil {
		fail(err)
	}

	if err := run(context.Background(), client, os.Stdout); err != nil {
		fail(err)
	}
}

func fail(err error) {
	if kind := settlement.KindOf(err); kind != "" {
		fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneArg(args []string, name string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: expected <%s>", errUsage, name)
	}
	return args[0], nil
}

func balance(args []string) (action, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("%w: balance takes no arguments", errUsage)
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		b, err := c.GetBalance(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]json.Number{"balance": json.Number(b.String())})
	}, nil
}

func get(args []string) (action, error) {
	id, err := oneArg(args, "id")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		s, err := c.GetSettlementByID(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, s)
	}, nil
}

func getTxn(args []string) (action, error) {
	txnID, err := oneArg(args, "txnId")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		s, err := c.GetSettlementByTxnID(ctx, txnID)
		if err != nil {
			return err
		}
		return printJSON(out, s)
	}, nil
}

func list(args []string) (action, error) {
	filters := settlement.Filters{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: filter %q is not key=value", errUsage, arg)
		}
		filters[k] = v
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		settlements, err := c.GetAllSettlements(ctx, filters)
		if err != nil {
			return err
		}
		return printJSON(out, settlements)
	}, nil
}

func listAccount(args []string) (action, error) {
	accountID, err := oneArg(args, "accountId")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		settlements, err := c.GetSettlementsByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		return printJSON(out, settlements)
	}, nil
}

func create(args []string) (action, error) {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	account := fs.String("account", "", "settlement account ID")
	amount := fs.String("amount", "", "amount, e.g. 100.50")
	remarks := fs.String("remarks", "", "free-text remarks")
	txnID := fs.String("txn", "", "idempotency key; generated when empty")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a number", errUsage, *amount)
	}
	if *txnID == "" {
		*txnID = settlement.NewTxnID()
	}

	b := settlement.NewSettlementBuilder().
		SetAmount(value).
		SetSettlementAccountID(*account).
		SetTxnID(*txnID)
	if *remarks != "" {
		b.SetRemarks(*remarks)
	}

	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		id, err := c.CreateSettlement(ctx, b)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]string{"id": id, "txnId": *txnID})
	}, nil
}

func addAccount(args []string) (action, error) {
	fs := flag.NewFlagSet("add-account", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	nickname := fs.String("nickname", "", "display name")
	accountType := fs.String("type", "", "vpa or bank_account")
	number := fs.String("account-number", "", "bank account number")
	ifsc := fs.String("ifsc", "", "bank IFSC code")
	holder := fs.String("holder", "", "bank account holder name")
	vpa := fs.String("vpa", "", "virtual payment address")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	b, err := settlement.NewSettlementAccountBuilder().SetNickname(*nickname).SetType(*accountType)
	if err != nil {
		return nil, err
	}
	if *number != "" {
		b.SetAccountNumber(*number)
	}
	if *ifsc != "" {
		b.SetIfscCode(*ifsc)
	}
	if *holder != "" {
		b.SetAccountHolderName(*holder)
	}
	if *vpa != "" {
		b.SetVirtualAddress(*vpa)
	}

	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		id, err := c.CreateSettlementAccount(ctx, b)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]string{"id": id})
	}, nil
}

func removeAccount(args []string) (action, error) {
	accountID, err := oneArg(args, "accountId")
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, c *settlement.Client, out io.Writer) error {
		ok, err := c.RemoveSettlementAccount(ctx, accountID)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]bool{"success": ok})
	}, nil
}
