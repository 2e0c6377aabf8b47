package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	akumuli "github.com/expenses/akumuli-go"
	"github.com/expenses/akumuli-go/errs"
)

var (
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a database instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := dbConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := clientOptions()
			if err != nil {
				return err
			}

			db, err := akumuli.Create(viper.GetString("path"), cfg, opts...)
			if err != nil {
				return err
			}
			cmd.Printf("created %s\n", db.Path())

			return db.Close()
		},
	}

	writeCmd = &cobra.Command{
		Use:   "write <series> <value>",
		Short: "Write one sample, creating the database if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}

			return withSession(cmd, func(s *akumuli.Session) error {
				ts := time.Now()
				if changed(cmd, "timestamp") {
					ts = time.Unix(viper.GetInt64("timestamp"), 0)
				}

				return s.WriteAt(args[0], ts, value)
			})
		},
	}

	resolveCmd = &cobra.Command{
		Use:   "resolve <series>...",
		Short: "Print the param id of each series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *akumuli.Session) error {
				for _, series := range args {
					id, err := s.MetricToParamID(series)
					if err != nil {
						return err
					}
					cmd.Printf("%d\t%s\n", id, series)
				}

				return nil
			})
		},
	}
)

func init() {
	createCmd.Flags().Int32("volumes", akumuli.DefaultNumVolumes, "number of volumes")
	createCmd.Flags().Uint64("page-size", akumuli.DefaultPageSize, "volume page size in bytes")
	createCmd.Flags().Bool("allocate", akumuli.DefaultAllocate, "pre-allocate volumes")

	writeCmd.Flags().Int64("timestamp", 0, "unix timestamp in seconds (default now)")
	writeCmd.Flags().Int32("volumes", akumuli.DefaultNumVolumes, "number of volumes if the database is created")
	writeCmd.Flags().Uint64("page-size", akumuli.DefaultPageSize, "volume page size if the database is created")
	writeCmd.Flags().Bool("allocate", akumuli.DefaultAllocate, "pre-allocate volumes if the database is created")
}

// withSession runs fn with a session on the configured database and tears
// both down in order.
func withSession(cmd *cobra.Command, fn func(*akumuli.Session) error) (err error) {
	cfg, err := dbConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := clientOptions()
	if err != nil {
		return err
	}

	db, err := akumuli.OpenOrCreate(viper.GetString("path"), cfg, opts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, db.Close()) }()

	s, ok := db.CreateSession()
	if !ok {
		return fmt.Errorf("%w: no session available for %s", errs.ErrOpen, db.Path())
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	return fn(s)
}
