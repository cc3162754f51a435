package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	ledgerclient "github.com/chainportal/ledgerclient"
)

const usage = `ledgerctl - supply-chain ledger portal client

usage: ledgerctl [flags] <command> [args]

commands:
  login <username> <password>
  admin-login <username> <password>
  logout
  whoami
  register <username> <password> <email> <full name>
  product <id>
  create-product <id> <name> <category> <quantity>
  update-quantity <id> <quantity>
  remove-product <id>
  shipment <id>
  create-shipment <id> <product-id> <origin> <destination> <carrier> <quantity>
  update-shipment <id> <status>
  logs <product-id>
  order <product-id> <quantity>

Sessions are kept in Redis so separate ledgerctl runs share a login.
Without -redis-addr (or LEDGER_REDIS_ADDR) an in-process store is used
and the session lasts only for the single invocation.
`

func main() {
	var (
		redisAddr = flag.String("redis-addr", getenv("LEDGER_REDIS_ADDR", ""), "redis address backing the shared session")
		prefix    = flag.String("prefix", "portal", "redis key prefix")
		jsonAudit = flag.Bool("json-audit", false, "write call telemetry as JSON lines to stderr")
		timeout   = flag.Duration("timeout", 30*time.Second, "per-call timeout")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := ledgerclient.DefaultConfig()
	cfg.Endpoints.AuthBase = getenv("LEDGER_AUTH_BASE", cfg.Endpoints.AuthBase)
	cfg.Endpoints.AccountBase = getenv("LEDGER_ACCOUNT_BASE", cfg.Endpoints.AccountBase)
	cfg.Endpoints.AssetBase = getenv("LEDGER_ASSET_BASE", cfg.Endpoints.AssetBase)
	cfg.HTTP.Timeout = *timeout
	cfg.Session.RedisPrefix = *prefix
	if getenv("LEDGER_QTY_MODE", "") == "set" {
		cfg.Assets.QuantityUpdateMode = ledgerclient.QuantitySet
	}

	builder := ledgerclient.New().WithConfig(cfg)
	if *jsonAudit {
		builder = builder.WithAuditSink(ledgerclient.NewJSONWriterSink(os.Stderr))
	}

	cleanup := func() {}
	if *redisAddr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{*redisAddr}})
		builder = builder.WithRedis(rdb)
		cleanup = func() { _ = rdb.Close() }
	} else {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start in-process store: %v\n", err)
			os.Exit(1)
		}
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		builder = builder.WithRedis(rdb)
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
	}
	defer cleanup()

	client, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := dispatch(ctx, client, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, client *ledgerclient.Client, command string, args []string) error {
	switch command {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		result, err := client.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", args[0], result.Role)
		return nil

	case "admin-login":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin-login <username> <password>")
		}
		result, err := client.AdminLogin(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", args[0], result.Role)
		return nil

	case "logout":
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "whoami":
		sess := client.Session(ctx)
		if !sess.Authenticated() {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s (%s)\n", sess.Username, sess.Role)
		return nil

	case "register":
		if len(args) != 4 {
			return fmt.Errorf("usage: register <username> <password> <email> <full name>")
		}
		err := client.Register(ctx, ledgerclient.RegisterInput{
			Username: args[0],
			Password: args[1],
			Email:    args[2],
			FullName: args[3],
		})
		if err != nil {
			return err
		}
		fmt.Println("registered")
		return nil

	case "product":
		if len(args) != 1 {
			return fmt.Errorf("usage: product <id>")
		}
		product, err := client.QueryProduct(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(product)

	case "create-product":
		if len(args) != 4 {
			return fmt.Errorf("usage: create-product <id> <name> <category> <quantity>")
		}
		quantity, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %v", err)
		}
		err = client.CreateProduct(ctx, ledgerclient.ProductInput{
			ProductID:   args[0],
			ProductName: args[1],
			Category:    args[2],
			Quantity:    quantity,
		})
		if err != nil {
			return err
		}
		fmt.Println("product created")
		return nil

	case "update-quantity":
		if len(args) != 2 {
			return fmt.Errorf("usage: update-quantity <id> <quantity>")
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %v", err)
		}
		if err := client.UpdateProductQuantity(ctx, args[0], quantity); err != nil {
			return err
		}
		fmt.Println("product updated")
		return nil

	case "remove-product":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove-product <id>")
		}
		if err := client.RemoveProduct(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("product removed")
		return nil

	case "shipment":
		if len(args) != 1 {
			return fmt.Errorf("usage: shipment <id>")
		}
		shipment, err := client.QueryShipment(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(shipment)

	case "create-shipment":
		if len(args) != 6 {
			return fmt.Errorf("usage: create-shipment <id> <product-id> <origin> <destination> <carrier> <quantity>")
		}
		quantity, err := strconv.Atoi(args[5])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %v", err)
		}
		err = client.CreateShipment(ctx, ledgerclient.ShipmentInput{
			ShipmentID:  args[0],
			ProductID:   args[1],
			Origin:      args[2],
			Destination: args[3],
			Carrier:     args[4],
			Quantity:    quantity,
		})
		if err != nil {
			return err
		}
		fmt.Println("shipment created")
		return nil

	case "update-shipment":
		if len(args) != 2 {
			return fmt.Errorf("usage: update-shipment <id> <status>")
		}
		if err := client.UpdateShipmentStatus(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("shipment updated")
		return nil

	case "logs":
		if len(args) != 1 {
			return fmt.Errorf("usage: logs <product-id>")
		}
		logs, err := client.QueryProductLogs(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(logs)

	case "order":
		if len(args) != 2 {
			return fmt.Errorf("usage: order <product-id> <quantity>")
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %v", err)
		}
		if err := client.PlaceOrder(ctx, args[0], quantity); err != nil {
			return err
		}
		fmt.Println("order placed")
		return nil

	default:
		return fmt.Errorf("unknown command %q (run without arguments for usage)", command)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
