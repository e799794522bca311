package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	iris "github.com/damattl/db-iris-wrapper"
)

var hoursAhead int

func init() {
	timetableCmd.Flags().IntVarP(&hoursAhead, "hours", "", iris.DefaultLookaheadHours, "hours of planned timetable to import")
}

var stationsCmd = &cobra.Command{
	Use:   "stations [source]",
	Short: "Import the station catalog",
	Long:  "Imports stations from API:<url>, JSON:<path> or SQL:<path>. Defaults to $STATIONS_SRC.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := envStr("STATIONS_SRC", "")
		if len(args) > 0 {
			src = args[0]
		}
		if src == "" {
			return fmt.Errorf("no stations source given and STATIONS_SRC is unset")
		}

		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		stations, err := newImporter(store, nil).ImportStations(context.Background(), src)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d stations\n", len(stations))
		return nil
	},
}

var timetableCmd = &cobra.Command{
	Use:   "timetable <ds100>",
	Short: "Import one station's planned timetable and changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := newImporter(store, nil).ImportTimetableByCode(context.Background(), args[0], time.Now(), hoursAhead)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d trains, %d stops, %d messages, %d stops updated\n",
			len(result.Trains), len(result.Stops), len(result.Messages), len(result.Updated))
		return nil
	},
}

var changesCmd = &cobra.Command{
	Use:   "changes <ds100>",
	Short: "Apply one station's change feed to the stored timetable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		station, err := store.Stations().GetByDS100(args[0])
		if err != nil {
			return fmt.Errorf("looking up station %q: %w", args[0], err)
		}

		result, err := newImporter(store, nil).ImportChanges(context.Background(), station.ID, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("imported %d messages, %d stops updated\n", len(result.Messages), len(result.Updated))
		return nil
	},
}

var codesCmd = &cobra.Command{
	Use:   "codes [source]",
	Short: "Import the status code reference table",
	Long:  "Imports status codes from EXCEL:<path> or CSV:<path>. Defaults to $STATUS_CODES_SRC.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := envStr("STATUS_CODES_SRC", "")
		if len(args) > 0 {
			src = args[0]
		}
		if src == "" {
			return fmt.Errorf("no status codes source given and STATUS_CODES_SRC is unset")
		}

		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		codes, err := newImporter(store, nil).ImportStatusCodes(src)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d status codes\n", len(codes))
		return nil
	},
}
