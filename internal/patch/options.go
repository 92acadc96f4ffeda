package patch

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"apkmitm/internal/checkpoint"
	"apkmitm/internal/fileutil"
	"apkmitm/internal/logging"
	"apkmitm/internal/manifest"
	"apkmitm/internal/netsec"
	"apkmitm/internal/pinning"
	"apkmitm/internal/pipeline"
	"apkmitm/internal/services"
	"apkmitm/internal/services/apktool"
	"apkmitm/internal/services/signer"
)

// Decoder unpacks an APK into an editable tree.
type Decoder interface {
	Decode(ctx context.Context, inputPath, outputDir string, emit func(string)) error
}

// Encoder rebuilds a decoded tree into an unsigned archive.
type Encoder interface {
	Encode(ctx context.Context, decodedDir, outputPath string, useAAPT2 bool) iter.Seq2[string, error]
}

// Signer signs archives in place.
type Signer interface {
	Sign(ctx context.Context, paths []string, opts signer.Options) iter.Seq2[string, error]
}

// ManifestModifier rewrites the decoded AndroidManifest.xml.
type ManifestModifier interface {
	Modify(path string) (manifest.Result, error)
}

// NetworkConfigWriter writes the network security config resource.
type NetworkConfigWriter interface {
	Write(path string) error
}

// PinningDisabler removes certificate pinning from the decoded code.
type PinningDisabler interface {
	Disable(ctx context.Context, root string, reporter pipeline.Reporter) ([]string, error)
}

// Options configures a patch run. Decoder, Encoder and Signer are required;
// the remaining collaborators default to the built-in implementations.
type Options struct {
	InputPath  string
	OutputPath string
	TmpDir     string
	// Wait pauses before encoding so the decoded tree can be edited by hand.
	Wait bool

	Decoder       Decoder
	Encoder       Encoder
	Signer        Signer
	Manifest      ManifestModifier
	NetworkConfig NetworkConfigWriter
	Pinning       PinningDisabler
	// Terminal is read by the wait stage. Required when Wait is set.
	Terminal checkpoint.Terminal

	// Certificate is bundled and trusted by the default network config writer.
	Certificate string
	// Debuggable is applied by the default manifest modifier.
	Debuggable bool

	// ReadMetadata loads apktool.yml from the decoded tree.
	ReadMetadata func(decodedDir string) (apktool.Metadata, error)
	// Finalize materializes the signed archive at the output path.
	Finalize func(src, dst string) error

	Observer pipeline.Observer
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Manifest == nil {
		o.Manifest = manifest.Modifier{Debuggable: o.Debuggable}
	}
	if o.NetworkConfig == nil {
		w := netsec.Writer{Cleartext: true}
		if o.Certificate != "" {
			w.Certificates = []string{o.Certificate}
		}
		o.NetworkConfig = w
	}
	if o.Pinning == nil {
		o.Pinning = pinning.Disabler{}
	}
	if o.ReadMetadata == nil {
		o.ReadMetadata = apktool.ReadMetadata
	}
	if o.Finalize == nil {
		o.Finalize = fileutil.Promote
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

func (o Options) validate() error {
	var problems []string
	if strings.TrimSpace(o.InputPath) == "" {
		problems = append(problems, "input path required")
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		problems = append(problems, "output path required")
	}
	if strings.TrimSpace(o.TmpDir) == "" {
		problems = append(problems, "temporary directory required")
	}
	if o.Decoder == nil || o.Encoder == nil || o.Signer == nil {
		problems = append(problems, "decoder, encoder and signer required")
	}
	if o.Wait && o.Terminal == nil {
		problems = append(problems, "waiting for changes requires a terminal")
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "", "patch options", strings.Join(problems, "; "), nil)
}
