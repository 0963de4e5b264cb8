// Command sagabox-backlog reports the pending command backlog of a sagabox
// store: total immediate and scheduled row counts plus a sample of instance
// ids that still have outstanding rows.
//
// It is meant for cron-driven monitoring of delivery lag. Exit code 0 means
// the backlog was reported (even if non-zero); use -fail-above to turn a
// large backlog into a non-zero exit for alerting.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/velmie/sagabox"
	sagamysql "github.com/velmie/sagabox/mysql"
	sagasqlite "github.com/velmie/sagabox/sqlite"
)

const (
	exitUsage   = 2
	exitBacklog = 3

	defaultSample  = 10
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		driver    string
		dsn       string
		prefix    string
		sample    int
		failAbove int
		timeout   time.Duration
	)

	flag.StringVar(&driver, "driver", "mysql", "Store driver: mysql or sqlite")
	flag.StringVar(&dsn, "dsn", "", "Database DSN")
	flag.StringVar(&prefix, "prefix", "", "Table prefix (default sagabox)")
	flag.IntVar(&sample, "sample", defaultSample, "Max owner ids to list per category")
	flag.IntVar(&failAbove, "fail-above", -1, "Exit non-zero when total backlog exceeds this (-1 disables)")
	flag.DurationVar(&timeout, "timeout", defaultTimeout, "Overall timeout")
	flag.Parse()

	if dsn == "" {
		fmt.Fprintln(os.Stderr, "dsn is required")
		flag.Usage()
		os.Exit(exitUsage)
	}

	total, err := run(driver, dsn, prefix, sample, timeout)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	if failAbove >= 0 && total > failAbove {
		os.Exit(exitBacklog)
	}
}

func run(driver, dsn, prefix string, sample int, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := openDB(driver, dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	store, counter, err := newStore(driver, db, prefix)
	if err != nil {
		return 0, err
	}

	commands, scheduled, err := counter.BacklogCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("backlog count: %w", err)
	}

	fmt.Printf("pending commands:  %d\n", commands)
	fmt.Printf("scheduled commands: %d\n", scheduled)

	if err := printOwners(ctx, "immediate", sample, store.CommandOwners); err != nil {
		return 0, err
	}
	if err := printOwners(ctx, "scheduled", sample, store.ScheduledOwners); err != nil {
		return 0, err
	}

	return commands + scheduled, nil
}

func openDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "mysql":
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}

		return db, nil
	case "sqlite":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		return db, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func newStore(driver string, db *sql.DB, prefix string) (sagabox.Store, sagabox.BacklogCounter, error) {
	switch driver {
	case "mysql":
		var opts []sagamysql.Option
		if prefix != "" {
			opts = append(opts, sagamysql.WithPrefix(prefix))
		}
		store, err := sagamysql.NewStore(db, opts...)
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	case "sqlite":
		var opts []sagasqlite.Option
		if prefix != "" {
			opts = append(opts, sagasqlite.WithPrefix(prefix))
		}
		store, err := sagasqlite.NewStore(db, opts...)
		if err != nil {
			return nil, nil, err
		}

		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func printOwners(ctx context.Context, label string, sample int, probe func(context.Context, int) ([]string, error)) error {
	owners, err := probe(ctx, sample)
	if err != nil {
		return fmt.Errorf("probe %s owners: %w", label, err)
	}
	if len(owners) == 0 {
		return nil
	}

	fmt.Printf("%s backlog owners (up to %d):\n", label, sample)
	for _, id := range owners {
		fmt.Printf("  %s\n", id)
	}

	return nil
}
