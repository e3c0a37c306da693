package util

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

const timelineStack = "timeline"

var jobPalette = []string{
	"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de",
	"#3ba272", "#fc8452", "#9a60b4", "#ea7ccc", "#b6a2de",
}

// JobColor is the bar colour used for a job.
func JobColor(job int) string {
	if job < 0 {
		job = -job
	}
	return jobPalette[job%len(jobPalette)]
}

// gantt is the stacked-bar layout of a timeline: one category per machine and,
// for the k-th operation of every machine, an idle bar followed by a busy bar.
type gantt struct {
	machines []int
	idle     [][]opts.BarData
	busy     [][]opts.BarData
}

func newGantt(tl framework.Timeline) gantt {
	lanes := tl.ByMachine()
	g := gantt{}
	for m := range lanes {
		g.machines = append(g.machines, m)
	}
	sort.Ints(g.machines)

	depth := 0
	for _, lane := range lanes {
		sort.SliceStable(lane, func(i, j int) bool { return lane[i].Start < lane[j].Start })
		depth = max(depth, len(lane))
	}

	g.idle = make([][]opts.BarData, depth)
	g.busy = make([][]opts.BarData, depth)
	for k := 0; k < depth; k++ {
		g.idle[k] = make([]opts.BarData, len(g.machines))
		g.busy[k] = make([]opts.BarData, len(g.machines))
		for i, m := range g.machines {
			lane := lanes[m]
			if k >= len(lane) {
				g.idle[k][i] = opts.BarData{Value: 0}
				g.busy[k][i] = opts.BarData{Value: 0}
				continue
			}
			prevEnd := 0
			if k > 0 {
				prevEnd = lane[k-1].End
			}
			so := lane[k]
			g.idle[k][i] = opts.BarData{
				Value:     so.Start - prevEnd,
				ItemStyle: &opts.ItemStyle{Color: "transparent"},
			}
			g.busy[k][i] = opts.BarData{
				Name:      fmt.Sprintf("Job %d [%d, %d)", so.Job, so.Start, so.End),
				Value:     so.ProcessingTime,
				ItemStyle: &opts.ItemStyle{Color: JobColor(so.Job)},
			}
		}
	}
	return g
}

// PlotSchedule renders the timeline of s as an HTML Gantt chart: one lane per
// machine, one bar per operation coloured by job.
func PlotSchedule(w io.Writer, s *framework.Schedule, title string) error {
	if s == nil || s.Len() == 0 {
		return fmt.Errorf("schedule is empty, nothing to plot for %q", title)
	}

	g := newGantt(s.Timeline())
	labels := make([]string, len(g.machines))
	for i, m := range g.machines {
		labels[i] = fmt.Sprintf("M%d", m)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Makespan: %d", s.Makespan()),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Machine",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Time",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	bar.SetXAxis(labels)
	for k := range g.busy {
		bar.AddSeries(fmt.Sprintf("idle-%d", k), g.idle[k], charts.WithBarChartOpts(opts.BarChart{Stack: timelineStack}))
		bar.AddSeries(fmt.Sprintf("slot-%d", k), g.busy[k], charts.WithBarChartOpts(opts.BarChart{Stack: timelineStack}))
	}
	bar.XYReversal()

	return bar.Render(w)
}

// WriteScheduleChart renders s into the file at path.
func WriteScheduleChart(path string, s *framework.Schedule, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return PlotSchedule(f, s, title)
}
