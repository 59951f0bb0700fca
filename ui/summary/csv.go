// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package summary

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/gomlx/inceptionresnet/pkg/ml/models/inceptionresnet"
	"github.com/gomlx/inceptionresnet/pkg/support/xslices"
	"github.com/pkg/errors"
)

// blockRow is one row of the blocks DataFrame.
type blockRow struct {
	Block           string `dataframe:"block"`
	Kind            string `dataframe:"kind"`
	DType           string `dataframe:"dtype"`
	Output          string `dataframe:"output"`
	Nodes           int    `dataframe:"nodes"`
	Parameters      int    `dataframe:"parameters"`
	MultiplyAdds    int    `dataframe:"multiply_adds"`
	ActivationBytes int    `dataframe:"activation_bytes"`
}

// DataFrame converts the blocks to a DataFrame, one row per block, with the columns "block", "kind",
// "dtype", "output" (dimensions formatted as "1x35x35x384"), "nodes", "parameters", "multiply_adds"
// and "activation_bytes".
func DataFrame(blocks []inceptionresnet.BlockInfo) dataframe.DataFrame {
	rows := xslices.Map(blocks, func(block inceptionresnet.BlockInfo) blockRow {
		return blockRow{
			Block:           block.Name,
			Kind:            block.Kind,
			DType:           block.Shape.DType.String(),
			Output:          strings.Join(xslices.Map(block.Shape.Dimensions, strconv.Itoa), "x"),
			Nodes:           block.NumNodes(),
			Parameters:      block.NumParameters,
			MultiplyAdds:    int(block.MultiplyAdds),
			ActivationBytes: int(block.Shape.Memory()),
		}
	})
	return dataframe.LoadStructs(rows)
}

// WriteCSV writes the blocks as CSV to w, with a header line. See DataFrame for the columns.
func WriteCSV(w io.Writer, blocks []inceptionresnet.BlockInfo) error {
	if len(blocks) == 0 {
		return errors.New("no blocks to write")
	}
	df := DataFrame(blocks)
	if df.Err != nil {
		return errors.Wrap(df.Err, "failed to convert blocks to a DataFrame")
	}
	return errors.Wrap(df.WriteCSV(w), "failed to write blocks as CSV")
}
