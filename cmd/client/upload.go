package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reelsync/reelsync/internal/client"
	"github.com/reelsync/reelsync/internal/upload"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newUploadCmd())
}

func newUploadCmd() *cobra.Command {
	var projectID string
	var folderID string

	uploadCmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload files into a ReelSync project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			showReelSyncHeader()

			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Start(cmd.Context()); err != nil {
				return err
			}

			failed, err := c.UploadAndWait(cmd.Context(), args, projectID, &upload.EnqueueOptions{
				FolderID: folderID,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					slog.Info("upload interrupted")
					return nil
				}
				return err
			}

			for _, task := range failed {
				if task.ErrorKind == upload.KindUserCancelled {
					fmt.Printf("%s %s\n", cyan("cancelled"), task.Name)
				} else {
					fmt.Printf("%s %s (%s)\n", red("failed"), task.Name, task.ErrorKind)
				}
			}
			succeeded := len(args) - len(failed)
			if succeeded > 0 {
				fmt.Printf("%s %d of %d file(s) uploaded\n", green("done"), succeeded, len(args))
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d upload(s) did not finish", len(failed))
			}
			return nil
		},
	}

	uploadCmd.Flags().StringVarP(&projectID, "project", "p", "", "Project to upload into")
	uploadCmd.Flags().StringVarP(&folderID, "folder", "f", "", "Folder within the project")
	uploadCmd.MarkFlagRequired("project")

	return uploadCmd
}
