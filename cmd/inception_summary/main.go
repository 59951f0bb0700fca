// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// inception_summary builds the layer graph of one of the Inception-v4 / Inception-ResNet variants
// and reports its blocks: output shapes, parameters, multiply-adds and graph operations.
//
// Examples:
//
//	inception_summary -set="inception_variant=inception_resnet_v2"
//	inception_summary -format=csv -output=~/inception_v4.csv
//	inception_summary -set="file:~/settings.txt" -params -format=ops
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/models/inceptionresnet"
	"github.com/gomlx/inceptionresnet/pkg/support/fsutil"
	"github.com/gomlx/inceptionresnet/ui/commandline"
	"github.com/gomlx/inceptionresnet/ui/summary"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagVariant = flag.String("variant", "",
		fmt.Sprintf("Variant to build, one of %q. It is a shortcut to -set=%s=<variant>.",
			inceptionresnet.VariantStrings(), inceptionresnet.ParamVariant))
	flagImageSize = flag.Int("image_size", inceptionresnet.ClassificationImageSize, "Height and width of the input images.")
	flagChannels  = flag.Int("channels", 3, "Number of channels of the input images.")
	flagBatch     = flag.Int("batch", 1, "Batch size of the input images.")
	flagDType     = flag.String("dtype", "float32", "DType of the input images and the variables.")
	flagFormat    = flag.String("format", "table",
		"Output format: \"table\" (blocks), \"ops\" (graph operations per block), \"csv\" (blocks) or \"graph\" (all nodes).")
	flagPlain     = flag.Bool("plain", false, "Render tables without colors or text attributes.")
	flagOutput    = flag.String("output", "", "File to write the report to. If empty it is written to the standard output.")
	flagOverwrite = flag.Bool("overwrite", false, "Overwrite the -output file if it already exists.")
	flagParams    = flag.Bool("params", false, "Print the hyperparameters set with -set.")
)

func main() {
	klog.InitFlags(nil)
	ctx := inceptionresnet.SetDefaultParams(context.New())
	settings := commandline.CreateContextSettingsFlag(ctx, "")
	flag.Parse()

	paramsSet := must.M1(commandline.ParseContextSettings(ctx, *settings))
	if *flagVariant != "" {
		ctx.SetParam(inceptionresnet.ParamVariant, *flagVariant)
		paramsSet = append(paramsSet, inceptionresnet.ParamVariant)
	}
	if *flagParams {
		fmt.Fprintf(os.Stderr, "Hyperparameters set:\n%s\n", commandline.SprintModifiedContextSettings(ctx, paramsSet))
	}
	if err := run(ctx); err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
}

// run builds the graph configured in ctx and writes the report selected by the flags.
func run(ctx *context.Context) (err error) {
	dtype, err := dtypes.DTypeString(*flagDType)
	if err != nil {
		return errors.Wrapf(err, "invalid -dtype=%q", *flagDType)
	}
	variantName := context.GetParamOr(ctx, inceptionresnet.ParamVariant, inceptionresnet.VariantInceptionV4.String())
	g := graph.NewGraph(variantName)
	var cfg *inceptionresnet.Config
	start := time.Now()
	err = graph.TryBuild(func() {
		imageShape := inceptionresnet.ImageShape(ctx, dtype, *flagBatch, *flagImageSize, *flagChannels)
		cfg = inceptionresnet.BuildGraph(ctx, graph.Parameter(g, "image", imageShape))
		cfg.Done()
	})
	if err != nil {
		return errors.WithMessagef(err, "failed to build %q", variantName)
	}
	blocks := cfg.Blocks()
	err = commandline.ReportBuild(os.Stderr, variantName, len(blocks), g.NumNodes(),
		ctx.NumParameters(context.RootScope), time.Since(start))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *flagOutput != "" {
		var f *os.File
		f, err = fsutil.CreateFile(*flagOutput, *flagOverwrite)
		if err != nil {
			return err
		}
		defer func() {
			closeErr := f.Close()
			if err == nil && closeErr != nil {
				err = errors.Wrapf(closeErr, "failed to close %q", *flagOutput)
			}
		}()
		w = f
	}
	summary.SetPlain(*flagPlain || *flagOutput != "")
	switch *flagFormat {
	case "table":
		return summary.Render(w, variantName, summary.BlocksTable(blocks))
	case "ops":
		return summary.Render(w, variantName, summary.OpsTable(g, blocks))
	case "csv":
		return summary.WriteCSV(w, blocks)
	case "graph":
		_, err = fmt.Fprintln(w, g.String())
		return err
	default:
		return errors.Errorf("unknown -format=%q, valid values are \"table\", \"ops\", \"csv\" or \"graph\"", *flagFormat)
	}
}
