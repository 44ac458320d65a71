package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/webharvest/internal/config"
	"github.com/nao1215/webharvest/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects harvest runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [harvest-id]",
		Short: "List or inspect saved harvest runs",
		Long: `History lists the harvest runs recorded in the local database.

Every harvest is saved with its page and image inventory unless --no-save
was given. Without arguments the most recent runs are listed; passing a
harvest ID prints that run in detail, including its pages and saved images.

Examples:
  # List the most recent harvests
  webharvest history

  # List the last 50 harvests
  webharvest history --limit 50

  # Show one harvest in detail
  webharvest history 12

  # Use a non-default database directory
  webharvest history --db-dir /tmp/webharvest-db`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of harvests to list")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Parse the harvest ID before opening the database so argument
	// errors do not leave a stray database behind.
	var harvestID int64
	if len(args) == 1 {
		harvestID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid harvest id %q: %w", args[0], err)
		}
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		return showHarvest(ctx, db, harvestID)
	}

	return listHarvestHistory(ctx, db, limit)
}

// listHarvestHistory lists recent harvest runs, newest first.
func listHarvestHistory(ctx context.Context, db *database.HarvestDB, limit int) error {
	records, err := db.ListHarvests(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list harvests: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No harvests found in the database.")
		fmt.Println("\nUse 'webharvest harvest <url>' to harvest a site.")
		return nil
	}

	fmt.Printf("Saved harvests (%d):\n\n", len(records))
	fmt.Printf("  %-6s  %-20s  %-6s  %-6s  %s\n", "ID", "Date", "Pages", "Saved", "Seed")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, rec := range records {
		fmt.Printf("  %-6d  %-20s  %-6d  %-6d  %s\n",
			rec.ID,
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.TotalPages,
			rec.TotalSaved,
			rec.Seed,
		)
	}

	fmt.Println("\nUse 'webharvest history <id>' to inspect one harvest in detail.")

	return nil
}

// showHarvest prints one stored harvest in detail.
func showHarvest(ctx context.Context, db *database.HarvestDB, id int64) error {
	harvest, err := db.GetHarvest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get harvest: %w", err)
	}
	if harvest == nil {
		return fmt.Errorf("harvest %d not found", id)
	}

	fmt.Printf("Harvest %d: %s\n", harvest.ID, harvest.Seed)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nBase domain: %s\n", harvest.BaseDomain)
	fmt.Printf("Started:     %s\n", harvest.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished:    %s\n", harvest.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Pages:       %d\n", harvest.TotalPages)
	fmt.Printf("Images:      %d found, %d saved\n", harvest.TotalImages, harvest.TotalSaved)
	fmt.Printf("Warnings:    %d\n", harvest.Warnings)

	if len(harvest.Pages) > 0 {
		fmt.Printf("\nPages (%d):\n", len(harvest.Pages))
		for _, page := range harvest.Pages {
			title := page.Title
			if title == "" {
				title = "(no title)"
			}
			fmt.Printf("  %3d. %s\n", page.PageNo, title)
			fmt.Printf("       %s (images: %d, links: %d)\n", page.URL, page.ImageCount, page.LinkCount)
		}
	}

	if len(harvest.Images) > 0 {
		fmt.Printf("\nSaved images (%d):\n", len(harvest.Images))
		for _, img := range harvest.Images {
			fmt.Printf("  %3d. [%s] %s\n", img.GlobalIdx, img.Location, img.URL)
			fmt.Printf("       -> %s (%dx%d %s)\n", img.Path, img.Width, img.Height, img.Format)
		}
	}

	return nil
}
