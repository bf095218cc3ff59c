package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	iclient "github.com/supermap/iclient-go"
)

func renderList(w io.Writer, list *iclient.DatasourceList) {
	wt := table.NewWriter()
	wt.SetOutputMirror(w)
	wt.SetStyle(table.StyleLight)
	wt.AppendHeader(table.Row{"#", "DATASOURCE_NAME"})
	for i, name := range list.DatasourceNames {
		wt.AppendRow(table.Row{i + 1, name})
	}
	wt.AppendFooter(table.Row{"", "TOTAL " + strconv.Itoa(list.DatasourceCount)})
	wt.Render()
}

func renderInfos(w io.Writer, infos []iclient.DatasourceInfo) {
	wt := table.NewWriter()
	wt.SetOutputMirror(w)
	wt.SetStyle(table.StyleLight)
	wt.AppendHeader(table.Row{"NAME", "ALIAS", "ENGINE_TYPE", "COORD_UNIT", "DISTANCE_UNIT", "READ_ONLY", "DESCRIPTION"})
	for _, info := range infos {
		wt.AppendRow(table.Row{
			info.Name,
			info.Alias,
			info.EngineType,
			info.CoordUnit.String(),
			info.DistanceUnit.String(),
			info.ReadOnly,
			info.Description,
		})
	}
	wt.Render()
}
