package app

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/otahub/internal/otahub/client"
)

const maxColWidth = 60

func printVehicles(out io.Writer, vehicles ...client.Vehicle) {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.AddRow("VEHICLE ID", "MODEL", "VERSION", "STATUS", "REGISTERED")
	for _, v := range vehicles {
		table.AddRow(v.VehicleID, v.Model, v.CurrentVersion, v.Status, formatTime(v.CreatedAt))
	}
	fmt.Fprintln(out, table)
}

func printUpdates(out io.Writer, updates ...client.Update) {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.AddRow("ID", "VEHICLE ID", "FROM", "TO", "STATUS", "UPDATED")
	for _, u := range updates {
		table.AddRow(u.ID, u.VehicleID, u.FromVersion, u.ToVersion, u.Status, formatTime(u.UpdatedAt))
	}
	fmt.Fprintln(out, table)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
