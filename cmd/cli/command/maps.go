package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"mapportal/cmd/cli/command/client"
	"mapportal/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Map catalog commands",
	Long:  `Browse the map catalog: list with filters, show details, download and upload maps.`,
}

var listMapsCmd = &cobra.Command{
	Use:   "list",
	Short: "List maps, filtered and sorted",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var opts client.ListOptions
		opts.TerrainType, _ = flags.GetString("terrain")
		opts.Size, _ = flags.GetInt("size")
		opts.PlayerCount, _ = flags.GetInt("players")
		opts.MinRating, _ = flags.GetFloat64("min-rating")
		opts.Author, _ = flags.GetString("author")
		opts.Search, _ = flags.GetString("search")
		opts.SortBy, _ = flags.GetString("sort")
		opts.SortOrder, _ = flags.GetString("order")
		opts.Page, _ = flags.GetInt("page")
		opts.PageSize, _ = flags.GetInt("page-size")

		result, err := GetPublicClient().ListMaps(opts)
		if err != nil {
			return fmt.Errorf("failed to list maps: %w", err)
		}

		if len(result.Items) == 0 {
			fmt.Println("No maps found.")
			return nil
		}

		fmt.Printf("Maps (page %d/%d, total %d):\n\n", result.Page, result.TotalPages, result.Total)
		for _, m := range result.Items {
			printSummary(m)
		}
		return nil
	},
}

var showMapCmd = &cobra.Command{
	Use:   "show [map-id]",
	Short: "Show a map with its latest ratings and comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "map")
		if err != nil {
			return err
		}

		m, err := GetPublicClient().GetMap(id)
		if err != nil {
			return fmt.Errorf("failed to get map: %w", err)
		}

		fmt.Printf("ID: %d\n", m.ID)
		fmt.Printf("Name: %s (%s) v%s\n", m.Name, m.Shortname, m.Version)
		fmt.Printf("Author: %s (uploaded by %s)\n", m.Author, m.Creator.Username)
		if m.Description != nil {
			fmt.Printf("Description: %s\n", *m.Description)
		}
		fmt.Printf("Terrain: %s, size %d, %d players (max %d)\n", m.TerrainType, m.Size, m.PlayerCount, m.MaxPlayers)
		fmt.Printf("Rating: %.2f (%d ratings), %d downloads\n", m.AverageRating, m.RatingCount, m.DownloadCount)
		fmt.Printf("Uploaded: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))

		if len(m.Ratings) > 0 {
			fmt.Println("\nRecent ratings:")
			for _, r := range m.Ratings {
				fmt.Printf("  %s: %d/5\n", r.User.Username, r.Rating)
			}
		}
		if len(m.Comments) > 0 {
			fmt.Println("\nRecent comments:")
			for _, c := range m.Comments {
				fmt.Printf("  [%d] %s: %s\n", c.ID, c.Author.Username, c.Content)
			}
		}
		return nil
	},
}

var downloadMapCmd = &cobra.Command{
	Use:   "download [map-id]",
	Short: "Download a map package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("out")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		path, err := GetPublicClient().DownloadMap(id, dir)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		color.Green("✓ Saved %s", path)
		return nil
	},
}

var uploadMapCmd = &cobra.Command{
	Use:   "upload [file.sd7]",
	Short: "Upload a map package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		req := client.UploadRequest{FilePath: args[0]}
		req.PreviewPath, _ = flags.GetString("preview")
		req.Name, _ = flags.GetString("name")
		req.Shortname, _ = flags.GetString("shortname")
		req.Description, _ = flags.GetString("description")
		req.Author, _ = flags.GetString("author")
		req.Version, _ = flags.GetString("version")

		var err error
		if req.GenerationParams, err = readJSONFlag(cmd, "generation-params"); err != nil {
			return err
		}
		if req.BarInfo, err = readJSONFlag(cmd, "bar-info"); err != nil {
			return err
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		m, err := httpClient.UploadMap(req)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		color.Green("✓ Uploaded map %d: %s", m.ID, m.Name)
		return nil
	},
}

func init() {
	mapsCmd.AddCommand(listMapsCmd)
	mapsCmd.AddCommand(showMapCmd)
	mapsCmd.AddCommand(downloadMapCmd)
	mapsCmd.AddCommand(uploadMapCmd)

	f := listMapsCmd.Flags()
	f.String("terrain", "", "Terrain type: continental, islands, mountainous, desert, arctic, plains")
	f.Int("size", 0, "Map size: 512, 1024, 2048 or 4096")
	f.Int("players", 0, "Exact player count")
	f.Float64("min-rating", 0, "Minimum average rating")
	f.String("author", "", "Author name")
	f.String("search", "", "Search name and description")
	f.String("sort", "", "Sort by created_at, rating, downloads or name")
	f.String("order", "", "Sort order: asc or desc")
	f.Int("page", 0, "Page number")
	f.Int("page-size", 0, "Maps per page")

	downloadMapCmd.Flags().StringP("out", "o", ".", "Directory to save into")

	u := uploadMapCmd.Flags()
	u.String("preview", "", "Optional preview image")
	u.String("name", "", "Display name")
	u.String("shortname", "", "Short name used in file names")
	u.String("description", "", "Description")
	u.String("author", "", "Map author")
	u.String("version", "", "Version (default 1.0)")
	u.String("generation-params", "", "Generation parameters as JSON, or @file")
	u.String("bar-info", "", "BAR map info as JSON, or @file")
	uploadMapCmd.MarkFlagRequired("name")
	uploadMapCmd.MarkFlagRequired("shortname")
	uploadMapCmd.MarkFlagRequired("author")
	uploadMapCmd.MarkFlagRequired("generation-params")
	uploadMapCmd.MarkFlagRequired("bar-info")
}

func printSummary(m dto.MapSummaryResponse) {
	fmt.Printf("ID: %d\n", m.ID)
	fmt.Printf("Name: %s\n", m.Name)
	fmt.Printf("Author: %s\n", m.Author)
	fmt.Printf("Terrain: %s, size %d, %d players\n", m.TerrainType, m.Size, m.PlayerCount)
	fmt.Printf("Rating: %.2f (%d), downloads: %d\n", m.AverageRating, m.RatingCount, m.DownloadCount)
	fmt.Println(strings.Repeat("-", 50))
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

// readJSONFlag returns the flag value, reading it from a file for "@path".
func readJSONFlag(cmd *cobra.Command, name string) (string, error) {
	v, _ := cmd.Flags().GetString(name)
	if path, ok := strings.CutPrefix(v, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read --%s: %w", name, err)
		}
		return string(data), nil
	}
	return v, nil
}
