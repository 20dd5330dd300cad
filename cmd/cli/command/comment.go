package command

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long:  `Read and write comments on maps. Only the author can edit or delete a comment.`,
}

var addCommentCmd = &cobra.Command{
	Use:   "add [map-id] [text]",
	Short: "Comment on a map",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		c, err := httpClient.CreateComment(mapID, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		color.Green("✓ Comment %d added to map %d", c.ID, mapID)
		return nil
	},
}

var editCommentCmd = &cobra.Command{
	Use:   "edit [map-id] [comment-id] [text]",
	Short: "Edit one of your comments",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		commentID, err := parseID(args[1], "comment")
		if err != nil {
			return err
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		if _, err := httpClient.UpdateComment(mapID, commentID, strings.Join(args[2:], " ")); err != nil {
			return fmt.Errorf("failed to edit comment: %w", err)
		}
		color.Green("✓ Comment %d updated", commentID)
		return nil
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete [map-id] [comment-id]",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		commentID, err := parseID(args[1], "comment")
		if err != nil {
			return err
		}

		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		if err := httpClient.DeleteComment(mapID, commentID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		color.Green("✓ Comment %d deleted", commentID)
		return nil
	},
}

var listCommentsCmd = &cobra.Command{
	Use:   "list [map-id]",
	Short: "List comments on a map, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapID, err := parseID(args[0], "map")
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		result, err := GetPublicClient().ListComments(mapID, page, pageSize)
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}
		if len(result.Items) == 0 {
			fmt.Println("No comments yet.")
			return nil
		}

		fmt.Printf("Comments on map %d (page %d/%d, total %d):\n\n", mapID, result.Page, result.TotalPages, result.Total)
		for _, c := range result.Items {
			fmt.Printf("[%d] %s at %s\n", c.ID, c.Author.Username, c.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Println(c.Content)
			fmt.Println(strings.Repeat("-", 50))
		}
		return nil
	},
}

func init() {
	commentCmd.AddCommand(addCommentCmd)
	commentCmd.AddCommand(editCommentCmd)
	commentCmd.AddCommand(deleteCommentCmd)
	commentCmd.AddCommand(listCommentsCmd)

	listCommentsCmd.Flags().Int("page", 1, "Page number")
	listCommentsCmd.Flags().Int("page-size", 20, "Comments per page")
}
