package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Rating commands",
	Long:  `Rate maps from 1 to 5 stars and see how others rated them.`,
}

var rateCmd = &cobra.Command{
	Use:   "rate [map-id] [1-5]",
	Short: "Rate a map, replacing any earlier rating",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(args[1])
		if err != nil || value < 1 || value > 5 {
			return fmt.Errorf("rating must be a whole number from 1 to 5")
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		_, created, err := httpClient.SubmitRating(mapID, value)
		if err != nil {
			return fmt.Errorf("failed to rate map: %w", err)
		}

		if created {
			color.Green("✓ Rated map %d with %d/5", mapID, value)
		} else {
			color.Green("✓ Updated your rating for map %d to %d/5", mapID, value)
		}
		return nil
	},
}

var getRatingCmd = &cobra.Command{
	Use:   "get [map-id]",
	Short: "Show your rating for a map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		result, err := httpClient.GetUserRating(mapID)
		if err != nil {
			return fmt.Errorf("failed to get rating: %w", err)
		}

		fmt.Printf("Your rating for map %d: %d/5\n", mapID, result.Rating)
		fmt.Printf("Updated at: %s\n", result.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var listRatingsCmd = &cobra.Command{
	Use:   "list [map-id]",
	Short: "List all ratings for a map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		result, err := GetPublicClient().ListMapRatings(mapID, page, pageSize)
		if err != nil {
			return fmt.Errorf("failed to list ratings: %w", err)
		}
		if len(result.Items) == 0 {
			fmt.Println("No ratings found for this map.")
			return nil
		}

		fmt.Printf("Ratings for map %d (page %d/%d, total %d):\n\n", mapID, result.Page, result.TotalPages, result.Total)
		for _, r := range result.Items {
			fmt.Printf("User: %s\n", r.User.Username)
			fmt.Printf("Rating: %d/5\n", r.Rating)
			fmt.Printf("Updated: %s\n", r.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println(strings.Repeat("-", 50))
		}
		return nil
	},
}

func init() {
	ratingCmd.AddCommand(rateCmd)
	ratingCmd.AddCommand(getRatingCmd)
	ratingCmd.AddCommand(listRatingsCmd)

	listRatingsCmd.Flags().Int("page", 1, "Page number")
	listRatingsCmd.Flags().Int("page-size", 20, "Number of ratings per page")
}
