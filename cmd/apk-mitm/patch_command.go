package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"apkmitm/internal/checkpoint"
	"apkmitm/internal/config"
	"apkmitm/internal/patch"
	"apkmitm/internal/pipeline"
	"apkmitm/internal/preflight"
	"apkmitm/internal/services/apktool"
	"apkmitm/internal/services/signer"
)

type patchFlags struct {
	output      string
	wait        bool
	tmpDir      string
	keepTmp     bool
	certificate string
	debuggable  bool
	apktool     string
	signer      string
	java        string
	plain       bool
}

func newPatchCommand(ctx *commandContext) *cobra.Command {
	var flags patchFlags

	cmd := &cobra.Command{
		Use:   "patch <apk>",
		Short: "Patch an APK so its HTTPS traffic can be inspected",
		Long: "Decode the APK, trust user and bundled certificates, disable certificate pinning,\n" +
			"then rebuild and sign the result next to the input (or at --output).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyPatchFlags(cmd, cfg, &flags)

			inputPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			outputPath := cfg.OutputPathFor(inputPath)
			if strings.TrimSpace(flags.output) != "" {
				if outputPath, err = config.ExpandPath(flags.output); err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}

			if failed := preflight.Failed(preflight.ForRun(cfg, inputPath, filepath.Dir(outputPath))); len(failed) > 0 {
				out := cmd.ErrOrStderr()
				for _, r := range failed {
					fmt.Fprintf(out, "%s: %s\n", r.Name, r.Detail)
				}
				return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
			}

			tmpDir, cleanup, err := prepareTmpDir(cfg, flags.tmpDir)
			if err != nil {
				return err
			}
			if !cfg.Patch.KeepTmp {
				defer cleanup()
			}

			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			decoder, err := apktool.New(cfg.Tools.Java, cfg.Tools.Apktool, apktool.WithFrameworkPath(cfg.Tools.FrameworkPath))
			if err != nil {
				return err
			}
			sign, err := signer.New(cfg.Tools.Java, cfg.Tools.Signer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderer := pipeline.NewConsoleRenderer(out)
			if flags.plain {
				renderer = pipeline.NewPlainRenderer(out)
			}

			opts := patch.Options{
				InputPath:   inputPath,
				OutputPath:  outputPath,
				TmpDir:      tmpDir,
				Wait:        cfg.Patch.Wait,
				Decoder:     decoder,
				Encoder:     decoder,
				Signer:      sign,
				Certificate: cfg.Patch.Certificate,
				Debuggable:  cfg.Patch.Debuggable,
				Observer:    renderer,
				Logger:      logger,
			}
			if opts.Wait {
				opts.Terminal = checkpoint.Stdin()
			}

			outcome, pc := patch.Run(cmd.Context(), opts)

			if summary := pipeline.RenderSummary(outcome.Records); summary != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, summary)
			}
			if pc.UsesAppBundle {
				fmt.Fprintln(out, appBundleWarning(isColorWriter(out)))
			}
			if cfg.Patch.KeepTmp {
				fmt.Fprintf(out, "Temporary files kept in %s\n", tmpDir)
			}
			if !outcome.Success() {
				return outcome.Err
			}
			fmt.Fprintf(out, "Done! Patched file: %s\n", outputPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "Where to write the patched APK (default: <input>-patched.apk)")
	f.BoolVar(&flags.wait, "wait", false, "Pause before encoding so the decoded files can be edited")
	f.StringVar(&flags.tmpDir, "tmp-dir", "", "Use this directory for temporary files instead of a fresh one (never removed)")
	f.BoolVar(&flags.keepTmp, "keep-tmp", false, "Keep temporary files after the run")
	f.StringVar(&flags.certificate, "certificate", "", "Additional CA certificate to trust (PEM or DER)")
	f.BoolVar(&flags.debuggable, "debuggable", false, "Mark the application as debuggable")
	f.StringVar(&flags.apktool, "apktool", "", "Path to apktool.jar")
	f.StringVar(&flags.signer, "signer", "", "Path to uber-apk-signer.jar")
	f.StringVar(&flags.java, "java", "", "Java runtime used to launch the tools")
	f.BoolVar(&flags.plain, "plain", false, "Print one line per event instead of updating stage lines in place")
	return cmd
}

// applyPatchFlags overlays explicitly set flags on the loaded configuration.
func applyPatchFlags(cmd *cobra.Command, cfg *config.Config, flags *patchFlags) {
	changed := cmd.Flags().Changed
	if changed("wait") {
		cfg.Patch.Wait = flags.wait
	}
	if changed("keep-tmp") {
		cfg.Patch.KeepTmp = flags.keepTmp
	}
	if changed("debuggable") {
		cfg.Patch.Debuggable = flags.debuggable
	}
	if changed("certificate") {
		cfg.Patch.Certificate = expandOrKeep(flags.certificate)
	}
	if changed("apktool") {
		cfg.Tools.Apktool = expandOrKeep(flags.apktool)
	}
	if changed("signer") {
		cfg.Tools.Signer = expandOrKeep(flags.signer)
	}
	if changed("java") {
		cfg.Tools.Java = strings.TrimSpace(flags.java)
	}
}

func expandOrKeep(value string) string {
	value = strings.TrimSpace(value)
	if expanded, err := config.ExpandPath(value); err == nil {
		return expanded
	}
	return value
}

// prepareTmpDir returns the run's temporary directory. An explicit directory
// belongs to the caller and is never removed; otherwise a fresh directory is
// created under the configured work root.
func prepareTmpDir(cfg *config.Config, explicit string) (string, func(), error) {
	if dir := strings.TrimSpace(explicit); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return "", nil, fmt.Errorf("resolve temporary directory: %w", err)
		}
		if err := os.MkdirAll(expanded, 0o755); err != nil {
			return "", nil, fmt.Errorf("create temporary directory: %w", err)
		}
		return expanded, func() {}, nil
	}
	dir, err := os.MkdirTemp(cfg.Paths.WorkDir, "run-")
	if err != nil {
		return "", nil, fmt.Errorf("create temporary directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
