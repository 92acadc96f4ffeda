package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"apkmitm/internal/checkpoint"
	"apkmitm/internal/pipeline"
	"apkmitm/internal/services/signer"
)

// Stage titles, in declaration order.
const (
	StageDecode          = "Decoding APK file"
	StageManifest        = "Modifying app manifest"
	StageNetworkConfig   = "Replacing network security config"
	StagePinning         = "Disabling certificate pinning"
	StageWait            = "Waiting for you to make changes"
	StageEncode          = "Encoding patched APK file"
	StageEncodeAAPT2     = "Encoding using AAPT2"
	StageEncodeAAPT      = "Encoding using AAPT [fallback]"
	StageSign            = "Signing patched APK file"
	FallbackNote         = "Failed, falling back to AAPT..."
	networkConfigMinSDK  = 24
	decodeDirName        = "decode"
	tmpArchiveName       = "tmp.apk"
	manifestFileName     = "AndroidManifest.xml"
	networkConfigRelPath = "res/xml/nsc_mitm.xml"
)

// layout holds the paths one run works with.
type layout struct {
	decodeDir  string
	tmpArchive string
}

func newLayout(tmpDir string) layout {
	return layout{
		decodeDir:  filepath.Join(tmpDir, decodeDirName),
		tmpArchive: filepath.Join(tmpDir, tmpArchiveName),
	}
}

func (l layout) manifest() string {
	return filepath.Join(l.decodeDir, manifestFileName)
}

func (l layout) networkConfig() string {
	return filepath.Join(l.decodeDir, filepath.FromSlash(networkConfigRelPath))
}

func buildStages(o Options) []pipeline.Stage {
	paths := newLayout(o.TmpDir)
	fallback := &encodeFallback{encoder: o.Encoder, decodedDir: paths.decodeDir, output: paths.tmpArchive}

	return []pipeline.Stage{
		pipeline.Leaf(StageDecode, func(ctx context.Context, pc *pipeline.Context, r pipeline.Reporter) error {
			if err := pipeline.Observe(ctx, r, func(ctx context.Context, emit pipeline.Emit) error {
				return o.Decoder.Decode(ctx, o.InputPath, paths.decodeDir, emit)
			}); err != nil {
				return err
			}
			recordMetadata(o, paths.decodeDir, pc, r)
			return nil
		}),
		pipeline.Leaf(StageManifest, func(_ context.Context, pc *pipeline.Context, _ pipeline.Reporter) error {
			result, err := o.Manifest.Modify(paths.manifest())
			if err != nil {
				return err
			}
			pc.UsesAppBundle = result.UsesAppBundle
			return nil
		}),
		pipeline.Leaf(StageNetworkConfig, func(context.Context, *pipeline.Context, pipeline.Reporter) error {
			return o.NetworkConfig.Write(paths.networkConfig())
		}),
		pipeline.Leaf(StagePinning, func(ctx context.Context, pc *pipeline.Context, r pipeline.Reporter) error {
			classes, err := o.Pinning.Disable(ctx, paths.decodeDir, r)
			if err != nil {
				return err
			}
			pc.PatchedClasses = classes
			return nil
		}),
		pipeline.Leaf(StageWait, func(ctx context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
			return pipeline.Observe(ctx, r, func(ctx context.Context, emit pipeline.Emit) error {
				return checkpoint.Wait(ctx, o.Terminal, emit)
			})
		}).When(func() bool { return o.Wait }),
		pipeline.Group(StageEncode, fallback.primary(), fallback.legacy()),
		pipeline.Leaf(StageSign, func(ctx context.Context, _ *pipeline.Context, r pipeline.Reporter) error {
			if err := pipeline.Drain(r, o.Signer.Sign(ctx, []string{paths.tmpArchive}, signer.Options{Zipalign: true})); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.Finalize(paths.tmpArchive, o.OutputPath); err != nil {
				return fmt.Errorf("finalize output: %w", err)
			}
			return nil
		}),
	}
}

// recordMetadata copies apktool.yml facts into the context. A tree without
// metadata is not an error; unreadable metadata is only worth a warning.
func recordMetadata(o Options, decodedDir string, pc *pipeline.Context, r pipeline.Reporter) {
	meta, err := o.ReadMetadata(decodedDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.Warn("Could not read apktool metadata", err)
		}
		return
	}
	pc.App = pipeline.AppInfo{
		FileName:    meta.FileName,
		VersionName: meta.VersionName,
		VersionCode: meta.VersionCode,
		MinSDK:      meta.MinSDK,
		TargetSDK:   meta.TargetSDK,
	}
	if meta.MinSDK > 0 && meta.MinSDK < networkConfigMinSDK {
		r.Warn(fmt.Sprintf("minSdkVersion is %d; Android ignores the network security config below API %d", meta.MinSDK, networkConfigMinSDK), nil)
	}
}
