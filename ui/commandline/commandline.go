// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains convenience UI tools for command-line programs building models.
package commandline

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// ReportBuild writes a one-line report on the construction of a model graph, e.g.:
//
//	Built "inception_v4": 17 blocks, 2,214 graph nodes, 42.7M parameters (in 12.41ms)
func ReportBuild(w io.Writer, name string, numBlocks, numNodes, numParameters int, elapsed time.Duration) error {
	value, prefix := humanize.ComputeSI(float64(numParameters))
	_, err := fmt.Fprintf(w, "Built %q: %d blocks, %s graph nodes, %s parameters (in %s)\n",
		name, numBlocks, humanize.Comma(int64(numNodes)), humanize.FtoaWithDigits(value, 3)+prefix,
		FormatDuration(elapsed))
	return err
}
