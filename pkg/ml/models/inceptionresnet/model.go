// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package inceptionresnet

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	. "github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/core/images"
	"github.com/gomlx/inceptionresnet/pkg/core/shapes"
	"github.com/gomlx/inceptionresnet/pkg/ml/context"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/activations"
	"github.com/gomlx/inceptionresnet/pkg/ml/layers/batchnorm"
	"k8s.io/klog/v2"
)

// Variant of the network, as described in the paper.
type Variant int

const (
	// VariantInceptionV4 is the pure Inception network: StemV4, 4 x InceptionA, ReductionA(192, 224, 256, 384),
	// 7 x InceptionB, ReductionB and 3 x InceptionC. It outputs 8x8x1536 for 299x299 images.
	VariantInceptionV4 Variant = iota // inception_v4

	// VariantInceptionResNetV1 is the cheaper residual network: StemResNet, 5 x InceptionResNetA,
	// ReductionA(192, 192, 256, 384), 10 x InceptionResNetB, ReductionResNetB and 5 x InceptionResNetC.
	// It outputs 8x8x1792 for 299x299 images.
	VariantInceptionResNetV1 // inception_resnet_v1

	// VariantInceptionResNetV2 is the residual network with the Inception-v4 stem: StemV4, 5 x InceptionResNetA,
	// ReductionA(256, 256, 384, 384), 10 x InceptionResNetB, ReductionResNetV2B and 5 x InceptionResNetC,
	// with the residual blocks using the widths in DefaultWidthsResNetV2.
	// It outputs 8x8x2144 for 299x299 images.
	VariantInceptionResNetV2 // inception_resnet_v2
)

//go:generate go tool enumer -type=Variant -trimprefix=Variant -linecomment -output=gen_variant_enumer.go model.go

const (
	// ParamVariant context hyperparameter selects the variant built by BuildGraph, if not set with Config.Variant.
	// Valid values are "inception_v4" (the default), "inception_resnet_v1" and "inception_resnet_v2".
	// It also selects the default widths of the residual blocks, see DefaultWidthsResNetV2: BuildGraph sets it
	// in the scope of each block to the variant being built.
	ParamVariant = "inception_variant"

	// ParamNumBlocksA, ParamNumBlocksB and ParamNumBlocksC context hyperparameters override the number of
	// repeated blocks on the 35x35, 17x17 and 8x8 grids. A value of -1 (the default) uses the variant's number.
	ParamNumBlocksA = "num_blocks_a"
	ParamNumBlocksB = "num_blocks_b"
	ParamNumBlocksC = "num_blocks_c"
)

// ClassificationImageSize is the image size used in the paper, for which the final grid is 8x8.
const ClassificationImageSize = 299

// BlockInfo describes one block built by BuildGraph.
type BlockInfo struct {
	// Name of the block, e.g. "inception_a_2".
	Name string

	// Kind of the block, the name of the function that built it, e.g. "InceptionA".
	Kind string

	// Scope of the context where the block variables were created.
	Scope string

	// Shape of the block output.
	Shape shapes.Shape

	// FirstNodeId and EndNodeId delimit the range [FirstNodeId, EndNodeId) of graph nodes created by the block.
	FirstNodeId, EndNodeId NodeId

	// NumParameters is the number of scalar values in the block variables.
	NumParameters int

	// MultiplyAdds is the estimated number of multiply-adds to compute the block.
	MultiplyAdds int64
}

// NumNodes returns the number of graph nodes created by the block.
func (info BlockInfo) NumNodes() int {
	return int(info.EndNodeId - info.FirstNodeId)
}

// Config for the network built by BuildGraph.
// Create it with BuildGraph, set the desired parameters, and when all is set, call Done.
type Config struct {
	ctx       *context.Context
	image     *Node
	variant   Variant
	numBlocks [3]int
	blocks    []BlockInfo
}

// BuildGraph prepares the graph of one of the Inception-v4 / Inception-ResNet variants on the given image.
//
// It returns a Config object for configuration. Once it is set up, call Config.Done and it will return
// the final feature map, 8x8x1536 (Inception-v4), 8x8x1792 (Inception-ResNet-v1) or 8x8x2144
// (Inception-ResNet-v2) for 299x299 images. The global pooling and classifier are left to the caller.
//
// The image is expected to be shaped `[batch, height, width, channels]`, or `[batch, channels, height, width]`
// if ParamChannelsFirst is set to true in the context. Variables are created in sub-scopes of ctx, one
// per block: "stem", "inception_a_0", "inception_a_1", ..., "reduction_a", etc.
//
// The variant and the number of repeated blocks default to the context hyperparameters ParamVariant,
// ParamNumBlocksA, ParamNumBlocksB and ParamNumBlocksC.
func BuildGraph(ctx *context.Context, image *Node) *Config {
	cfg := &Config{
		ctx:   ctx,
		image: image,
	}
	variantName := context.GetParamOr(ctx, ParamVariant, VariantInceptionV4.String())
	variant, err := VariantString(variantName)
	if err != nil {
		Panicf("invalid value %q for hyperparameter %q: valid values are %q", variantName, ParamVariant, VariantStrings())
	}
	cfg.variant = variant
	cfg.numBlocks = [3]int{
		context.GetParamOr(ctx, ParamNumBlocksA, -1),
		context.GetParamOr(ctx, ParamNumBlocksB, -1),
		context.GetParamOr(ctx, ParamNumBlocksC, -1),
	}
	return cfg
}

// Variant sets the variant of the network to build. The default is given by ParamVariant,
// or VariantInceptionV4 if it is not set.
func (cfg *Config) Variant(variant Variant) *Config {
	if !variant.IsAVariant() {
		Panicf("invalid variant %s", variant)
	}
	cfg.variant = variant
	return cfg
}

// NumBlocks sets the number of repeated blocks on the 35x35 (a), 17x17 (b) and 8x8 (c) grids.
// A value of -1 uses the variant's default, and 0 removes the blocks altogether.
func (cfg *Config) NumBlocks(a, b, c int) *Config {
	for _, n := range []int{a, b, c} {
		if n < -1 {
			Panicf("invalid number of blocks %d, it must be >= 0, or -1 for the variant's default", n)
		}
	}
	cfg.numBlocks = [3]int{a, b, c}
	return cfg
}

// blockFn is the signature of the functions that build a block.
type blockFn func(ctx *context.Context, x *Node) *Node

// stage of a variant: a single block, or a block repeated on the same grid.
type stage struct {
	name  string
	kind  string
	build blockFn

	// grid is the index (0, 1 or 2) in Config.numBlocks of repeated blocks, or -1 for a single block.
	grid  int
	count int
}

// stages returns the sequence of blocks of the variant.
func (cfg *Config) stages() []stage {
	reductionA := func(k, l, m, n int) blockFn {
		return func(ctx *context.Context, x *Node) *Node { return ReductionA(ctx, x, k, l, m, n) }
	}
	switch cfg.variant {
	case VariantInceptionV4:
		return []stage{
			{name: "stem", kind: "StemV4", build: StemV4, grid: -1},
			{name: "inception_a", kind: "InceptionA", build: InceptionA, grid: 0, count: 4},
			{name: "reduction_a", kind: "ReductionA", build: reductionA(192, 224, 256, 384), grid: -1},
			{name: "inception_b", kind: "InceptionB", build: InceptionB, grid: 1, count: 7},
			{name: "reduction_b", kind: "ReductionB", build: ReductionB, grid: -1},
			{name: "inception_c", kind: "InceptionC", build: InceptionC, grid: 2, count: 3},
		}
	case VariantInceptionResNetV1, VariantInceptionResNetV2:
		stem := stage{name: "stem", kind: "StemResNet", build: StemResNet, grid: -1}
		redA := stage{name: "reduction_a", kind: "ReductionA", build: reductionA(192, 192, 256, 384), grid: -1}
		redB := stage{name: "reduction_b", kind: "ReductionResNetB", build: ReductionResNetB, grid: -1}
		if cfg.variant == VariantInceptionResNetV2 {
			stem = stage{name: "stem", kind: "StemV4", build: StemV4, grid: -1}
			redA.build = reductionA(256, 256, 384, 384)
			redB = stage{name: "reduction_b", kind: "ReductionResNetV2B", build: ReductionResNetV2B, grid: -1}
		}
		return []stage{
			stem,
			{name: "inception_resnet_a", kind: "InceptionResNetA", build: InceptionResNetA, grid: 0, count: 5},
			redA,
			{name: "inception_resnet_b", kind: "InceptionResNetB", build: InceptionResNetB, grid: 1, count: 10},
			redB,
			{name: "inception_resnet_c", kind: "InceptionResNetC", build: InceptionResNetC, grid: 2, count: 5},
		}
	default:
		Panicf("variant %s not implemented", cfg.variant)
	}
	return nil
}

// addBlock builds one block in the scope named name, and records its BlockInfo.
func (cfg *Config) addBlock(name, kind string, x *Node, build blockFn) *Node {
	g := x.Graph()
	ctx := cfg.ctx.In(name)
	// Blocks pick their default widths from the variant.
	ctx.SetParam(ParamVariant, cfg.variant.String())
	first := g.NextNodeId()
	x = build(ctx, x)
	info := BlockInfo{
		Name:          name,
		Kind:          kind,
		Scope:         ctx.Scope(),
		Shape:         x.Shape(),
		FirstNodeId:   first,
		EndNodeId:     g.NextNodeId(),
		NumParameters: ctx.NumParameters(ctx.Scope()),
	}
	info.MultiplyAdds = g.MultiplyAdds(info.FirstNodeId, info.EndNodeId)
	cfg.blocks = append(cfg.blocks, info)
	klog.V(1).Infof("inceptionresnet: %s (%s) -> %s: %d nodes, %d parameters, %d multiply-adds",
		info.Name, info.Kind, info.Shape, info.NumNodes(), info.NumParameters, info.MultiplyAdds)
	return x
}

// Done builds the network and returns its final feature map.
func (cfg *Config) Done() *Node {
	if cfg.blocks != nil {
		Panicf("inceptionresnet.BuildGraph(...).Done() can only be called once")
	}
	if cfg.image.Rank() != 4 {
		Panicf("inceptionresnet.BuildGraph requires a rank-4 image, got shape %s", cfg.image.Shape())
	}
	stages := cfg.stages()
	var numBlocks [3]int
	for _, s := range stages {
		if s.grid >= 0 {
			numBlocks[s.grid] = s.count
			if cfg.numBlocks[s.grid] >= 0 {
				numBlocks[s.grid] = cfg.numBlocks[s.grid]
			}
		}
	}
	klog.V(1).Infof("inceptionresnet: building %s on image %s (%s), blocks a/b/c=%v",
		cfg.variant, cfg.image.Shape(), channelsAxisConfig(cfg.ctx), numBlocks)

	cfg.blocks = make([]BlockInfo, 0, 32)
	x := cfg.image
	for _, s := range stages {
		if s.grid < 0 {
			x = cfg.addBlock(s.name, s.kind, x, s.build)
			continue
		}
		for ii := range numBlocks[s.grid] {
			x = cfg.addBlock(fmt.Sprintf("%s_%d", s.name, ii), s.kind, x, s.build)
		}
	}
	return x
}

// Blocks returns the information about each block built, in order. It is only available after Done is called.
func (cfg *Config) Blocks() []BlockInfo {
	return cfg.blocks
}

// OutputChannels returns the number of channels of the final feature map of the variant, with the default widths.
func (v Variant) OutputChannels() int {
	switch v {
	case VariantInceptionV4:
		return 1536
	case VariantInceptionResNetV1:
		return 1792
	case VariantInceptionResNetV2:
		return 2144
	default:
		return 0
	}
}

// ImageShape returns the shape of a batch of square images in the layout configured in the context
// (see ParamChannelsFirst).
func ImageShape(ctx *context.Context, dtype dtypes.DType, batchSize, imageSize, channels int) shapes.Shape {
	return images.MakeShape(channelsAxisConfig(ctx), shapes.Scalar(dtype), batchSize, channels, imageSize, imageSize)
}

// SetDefaultParams sets in the root scope of ctx every hyperparameter read by the blocks and by BuildGraph,
// with its default value. Widths are set to -1, which selects the default width of the variant. It is not required to build the graph, but it makes the hyperparameters
// visible to ctx.EnumerateParams, e.g. to list them in a command-line flag.
func SetDefaultParams(ctx *context.Context) *context.Context {
	ctx = ctx.InAbsPath(context.RootScope)
	ctx.SetParams(map[string]any{
		ParamVariant:                VariantInceptionV4.String(),
		ParamNumBlocksA:             -1,
		ParamNumBlocksB:             -1,
		ParamNumBlocksC:             -1,
		ParamChannelsFirst:          false,
		ParamReductionPadding:       "valid",
		ParamResidualScale:          1.0,
		ParamResNetAFinalActivation: false,
		ParamResNetBFinalActivation: true,
		ParamResNetCFinalActivation: true,
		layers.ParamNormalization:   "none",
		activations.ParamActivation: "relu",
		batchnorm.ParamEpsilon:      1e-3,
	})
	for key := range DefaultWidths {
		ctx.SetParam(key, -1)
	}
	return ctx
}
