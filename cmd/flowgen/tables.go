package main

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/matthewbaird/flowgen/internal/enums"
	"github.com/matthewbaird/flowgen/internal/plan"
)

func renderPlan(w io.Writer, files []plan.File) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Path", "Flow", "Slice", "Template", "Bytes"})
	total := 0
	for _, f := range files {
		tmpl := f.Template
		if tmpl == "" {
			tmpl = "(shared enums)"
		}
		tw.AppendRow(table.Row{f.Path, f.Flow, f.Slice, tmpl, len(f.Contents)})
		total += len(f.Contents)
	}
	tw.AppendFooter(table.Row{"", "", "", len(files), total})
	tw.Render()
}

func renderEnums(w io.Writer, defs, added []enums.Definition) {
	isNew := make(map[string]bool, len(added))
	for _, d := range added {
		isNew[d.Name] = true
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Enum", "Members", "Signature", "New"})
	for _, d := range defs {
		members := make([]string, 0, len(d.Values))
		for _, m := range d.Members() {
			members = append(members, m.Key+"="+m.Value)
		}
		mark := ""
		if isNew[d.Name] {
			mark = "yes"
		}
		tw.AppendRow(table.Row{d.Name, strings.Join(members, ", "), d.Signature, mark})
	}
	tw.Render()
}
