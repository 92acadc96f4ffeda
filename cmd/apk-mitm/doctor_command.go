package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apkmitm/internal/preflight"
	"apkmitm/internal/services"
	"apkmitm/internal/services/apktool"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that Java, apktool and uber-apk-signer are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			exec := services.CommandExecutor{}
			results := preflight.RunAll(cmd.Context(), cfg, exec)

			rows := make([][]string, 0, len(results)+1)
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "missing"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			if len(preflight.Failed(results)) == 0 {
				if client, err := apktool.New(cfg.Tools.Java, cfg.Tools.Apktool, apktool.WithExecutor(exec)); err == nil {
					if version, err := client.Version(cmd.Context()); err == nil {
						rows = append(rows, []string{"apktool version", "ok", version})
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
