package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/LovecraftianHorror/sqlx"
	_ "github.com/LovecraftianHorror/sqlx/sqlite"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	app := &cli.App{
		Name:      "sqlxq",
		Usage:     "Run SQL against a database URL and print the results",
		UsageText: "sqlxq [-c FILE] [-u URL] QUERY [ARG...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load connection settings from `FILE`",
			},
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Database `URL`, e.g. sqlite://app.db (overrides the config file)",
			},
		},
		Action: run,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing QUERY argument")
	}
	query := c.Args().First()

	opts, err := sqlx.LoadConnectOptions(c.String("config"))
	if err != nil {
		return err
	}
	if url := c.String("url"); url != "" {
		opts.URL = url
	}
	if opts.URL == "" {
		return fmt.Errorf("no database URL: pass --url or set it in the config file")
	}

	conn, err := sqlx.ConnectWith(c.Context, opts)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(c.Context))

	args := make([]any, 0, c.NArg()-1)
	for _, a := range c.Args().Tail() {
		args = append(args, a)
	}

	stream, err := conn.FetchMany(c.Context, query, args...)
	if err != nil {
		return err
	}
	defer stream.Close()

	headerDone := false
	for stream.Next() {
		if res, ok := stream.Result(); ok {
			fmt.Fprintf(os.Stderr, "-- %d rows affected\n", res.RowsAffected)
			headerDone = false
			continue
		}

		row, _ := stream.Row()
		if !headerDone && row.Len() > 0 {
			names := make([]string, row.Len())
			for i, col := range row.Columns() {
				names[i] = col.Name
			}
			fmt.Println(strings.Join(names, "\t"))
			headerDone = true
		}

		cells := make([]string, row.Len())
		for i := range cells {
			cells[i] = row.Value(i).String()
		}
		fmt.Println(strings.Join(cells, "\t"))
	}

	return stream.Err()
}
