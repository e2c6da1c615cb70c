package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dice-app/dice/app_setting"
	"github.com/dice-app/dice/export"
	"github.com/dice-app/dice/session"
	"github.com/dice-app/dice/utils"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		outDir   string
		s3Bucket string
		s3Region string
		s3Prefix string
	)
	cmd := &cobra.Command{
		Use:   "export <session_code>",
		Short: "Export the participant data of a session as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				store export.ExportStore
				err   error
			)
			if s3Bucket != "" {
				store, err = export.NewS3ExportStore(s3Bucket, s3Region, s3Prefix)
			} else {
				store, err = export.NewLocalExportStore(outDir)
			}
			if err != nil {
				return err
			}

			url, err := exportSession(cmd.Context(), args[0], store)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directory the csv is written to")
	cmd.Flags().StringVar(&s3Bucket, "s3_bucket", "", "upload to this s3 bucket instead of a local directory")
	cmd.Flags().StringVar(&s3Region, "s3_region", export.DefaultS3Region, "region of the s3 bucket")
	cmd.Flags().StringVar(&s3Prefix, "s3_prefix", "exports/", "key prefix in the s3 bucket")
	return cmd
}

func exportSession(ctx context.Context, code string, store export.ExportStore) (string, error) {
	db, err := utils.GetDBConnection()
	if err != nil {
		return "", err
	}
	svc := session.NewService(db, utils.NewMemoryProgressStore(), nil, app_setting.SessionSettings{})
	rows, err := svc.Export(ctx, code)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		return "", err
	}
	key, err := store.Store(export.FileName(code), buf.Bytes())
	if err != nil {
		return "", err
	}
	return store.GetUrlFromKey(key), nil
}
