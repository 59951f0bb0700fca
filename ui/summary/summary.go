// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package summary renders reports of the blocks built by inceptionresnet.BuildGraph: output shapes,
// parameters, multiply-adds and graph operations per block.
package summary

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/inceptionresnet/pkg/core/graph"
	"github.com/gomlx/inceptionresnet/pkg/ml/models/inceptionresnet"
	"github.com/muesli/termenv"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	totalRowStyle = lipgloss.NewStyle().Bold(true).
			PaddingLeft(1).PaddingRight(1)

	// TitleStyle is used for the titles of the reports.
	TitleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

// SetPlain disables colors and text attributes in the rendered tables, e.g. when the output is not a terminal.
func SetPlain(plain bool) {
	if plain {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}
}

// newTable creates a table with a header; the first column is left aligned and the others right aligned.
// If withTotal is true, the last row is rendered in bold.
func newTable(numRows int, withTotal bool, header ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(header...).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row == lgtable.HeaderRow:
				return headerRowStyle
			case withTotal && row == numRows-1:
				s = totalRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				return s.Align(lipgloss.Left)
			}
			return s.Align(lipgloss.Right)
		})
}

// BlocksTable returns a table with one row per block: name, kind, output shape, number of graph nodes,
// parameters, multiply-adds and the memory of the block output. A last row holds the totals.
func BlocksTable(blocks []inceptionresnet.BlockInfo) *lgtable.Table {
	table := newTable(len(blocks)+1, true, "Block", "Kind", "Output", "Nodes", "Parameters", "Mult-Adds", "Activations")
	var totalNodes, totalParams int
	var totalMACs int64
	var totalMemory uint64
	for _, block := range blocks {
		memory := uint64(block.Shape.Memory())
		table.Row(block.Name, block.Kind, block.Shape.String(),
			humanize.Comma(int64(block.NumNodes())),
			humanize.Comma(int64(block.NumParameters)),
			humanize.Comma(block.MultiplyAdds),
			humanize.Bytes(memory))
		totalNodes += block.NumNodes()
		totalParams += block.NumParameters
		totalMACs += block.MultiplyAdds
		totalMemory += memory
	}
	table.Row("total", fmt.Sprintf("%d blocks", len(blocks)), "",
		humanize.Comma(int64(totalNodes)),
		humanize.Comma(int64(totalParams)),
		humanize.Comma(totalMACs),
		humanize.Bytes(totalMemory))
	return table
}

// OpsTable returns a table with one row per block and one column per type of graph operation, with
// the number of nodes of that type created by the block. Only the node types present in the graph are listed.
func OpsTable(g *graph.Graph, blocks []inceptionresnet.BlockInfo) *lgtable.Table {
	counts := g.CountNodeTypes()
	var nodeTypes []graph.NodeType
	for nodeType := range counts {
		nodeTypes = append(nodeTypes, nodeType)
	}
	slices.Sort(nodeTypes)
	header := []string{"Block"}
	for _, nodeType := range nodeTypes {
		header = append(header, nodeType.String())
	}
	table := newTable(len(blocks)+1, true, header...)
	for _, block := range blocks {
		blockCounts := make(map[graph.NodeType]int)
		for _, nodeType := range g.NodeTypes(block.FirstNodeId, block.EndNodeId) {
			blockCounts[nodeType]++
		}
		table.Row(append([]string{block.Name}, countsRow(nodeTypes, blockCounts)...)...)
	}
	table.Row(append([]string{"graph"}, countsRow(nodeTypes, counts)...)...)
	return table
}

func countsRow(nodeTypes []graph.NodeType, counts map[graph.NodeType]int) []string {
	row := make([]string, 0, len(nodeTypes))
	for _, nodeType := range nodeTypes {
		if counts[nodeType] == 0 {
			row = append(row, "-")
			continue
		}
		row = append(row, humanize.Comma(int64(counts[nodeType])))
	}
	return row
}

// Render writes the title and the table to w.
func Render(w io.Writer, title string, table *lgtable.Table) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, TitleStyle.Render(title)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, table.Render())
	return err
}
