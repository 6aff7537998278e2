/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/biodash/dashboard"
	"github.com/humaidq/biodash/ranges"
)

var bandFill = map[ranges.Color]string{
	ranges.ColorGreen:  "rgba(46, 160, 67, 0.18)",
	ranges.ColorOrange: "rgba(230, 145, 56, 0.18)",
	ranges.ColorRed:    "rgba(220, 53, 69, 0.12)",
}

type axisRange struct {
	min, max float64
}

// chartAxis covers every finite band edge and data point, padded by 10%.
func chartAxis(values []float64, bands []ranges.Band) axisRange {
	lo, hi := math.Inf(1), math.Inf(-1)

	include := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for _, v := range values {
		include(v)
	}

	for _, b := range bands {
		if b.Min != nil {
			include(*b.Min)
		}
		if b.Max != nil {
			include(*b.Max)
		}
	}

	if math.IsInf(lo, 1) {
		return axisRange{min: 0, max: 1}
	}

	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}

	return axisRange{min: lo - span*0.1, max: hi + span*0.1}
}

// bandAreas turns bands into markArea pairs; open sides stretch to the axis.
func bandAreas(bands []ranges.Band, axis axisRange) []interface{} {
	areas := make([]interface{}, 0, len(bands))

	for _, b := range bands {
		lo, hi := axis.min, axis.max
		if b.Min != nil {
			lo = *b.Min
		}
		if b.Max != nil {
			hi = *b.Max
		}

		areas = append(areas, []map[string]interface{}{
			{
				"name":      string(b.Label),
				"yAxis":     lo,
				"itemStyle": map[string]interface{}{"color": bandFill[b.Color]},
			},
			{"yAxis": hi},
		})
	}

	return areas
}

// renderBandChart draws a biomarker's history as a line over its coloured
// reference bands. Multiple results on one day keep the latest.
func renderBandChart(h *dashboard.History) (string, error) {
	if h == nil || len(h.Results) == 0 {
		return "", nil
	}

	byDay := make(map[string]dashboard.BiomarkerView)
	for _, r := range h.Results {
		key := r.MeasuredAt.Format("2006-01-02")
		if cur, ok := byDay[key]; !ok || !r.MeasuredAt.Before(cur.MeasuredAt) {
			byDay[key] = r
		}
	}

	points := make([]dashboard.BiomarkerView, 0, len(byDay))
	for _, r := range byDay {
		points = append(points, r)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].MeasuredAt.Before(points[j].MeasuredAt)
	})

	xAxis := make([]string, 0, len(points))
	yData := make([]opts.LineData, 0, len(points))
	values := make([]float64, 0, len(points))

	for _, p := range points {
		xAxis = append(xAxis, p.MeasuredAt.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: p.Value})
		values = append(values, p.Value)
	}

	axis := chartAxis(values, h.Bands)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    h.Biomarker,
			Subtitle: "Reference: " + h.ReferenceRange,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: h.Unit,
			Min:  axis.min,
			Max:  axis.max,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if len(h.Bands) > 0 {
		areas := bandAreas(h.Bands, axis)
		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkAreas = &opts.MarkAreas{
				Data: areas,
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(h.Biomarker, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}
