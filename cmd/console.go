package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/entity"
)

// 样例表格最多打印的行数
const sampleRows = 50

var (
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

func success(w io.Writer, format string, a ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func info(w io.Writer, format string, a ...any) {
	infoColor.Fprintf(w, format+"\n", a...)
}

func warn(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

// confirm 询问操作者是否继续，只有y/yes视为同意
func confirm(in *bufio.Reader, w io.Writer, question string) (bool, error) {
	warnColor.Fprintf(w, "%s [y/N]: ", question)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// table 按列宽对齐的文本表格
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := lo.Map(t.headers, func(h string, _ int) int { return len(h) })
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	for i, h := range t.headers {
		headerColor.Fprintf(w, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(w)
	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)
	for _, row := range t.rows {
		for i, cell := range row {
			fmt.Fprintf(w, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

// printSamples 打印三个目录的前若干行
func printSamples(w io.Writer, ctx entity.ITaskContext) {
	locations := ctx.LocationManager().All()
	sensors := ctx.SensorManager().All()
	vehicles := ctx.VehicleManager().All()

	info(w, "\nLocations (%d, first %d):", len(locations), min(sampleRows, len(locations)))
	lt := newTable("ID", "Street", "City", "Lat", "Lon", "Road Type", "Limit", "Movement")
	for _, l := range lo.Slice(locations, 0, sampleRows) {
		lt.addRow(fmt.Sprint(l.LocationID), l.StreetName, l.City,
			fmt.Sprintf("%.6f", l.Lat), fmt.Sprintf("%.6f", l.Lon),
			l.RoadType, fmt.Sprint(l.SpeedLimit), string(l.Movement))
	}
	lt.render(w)

	info(w, "\nSensors (%d, first %d):", len(sensors), min(sampleRows, len(sensors)))
	st := newTable("Sensor ID", "No.", "Location", "Type", "Status", "Installed")
	for _, s := range lo.Slice(sensors, 0, sampleRows) {
		st.addRow(s.SensorID, fmt.Sprint(s.NumericID), fmt.Sprint(s.LocationID), s.SensorType, s.Status, s.InstallDate)
	}
	st.render(w)

	info(w, "\nVehicles (%d, first %d):", len(vehicles), min(sampleRows, len(vehicles)))
	vt := newTable("Plate", "Type", "Model", "Color", "Owner")
	for _, v := range lo.Slice(vehicles, 0, sampleRows) {
		vt.addRow(v.PlateNumber, v.VehicleType, v.Model, v.Color, v.OwnerID)
	}
	vt.render(w)
}
