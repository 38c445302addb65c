// Package dashboard is the canned content provider behind the analytics view.
// Bundles are pre-authored sample figures keyed by time frame; nothing here is
// derived from the client records.
package dashboard

// TimeFrame selects one canned bundle.
type TimeFrame string

const (
	TimeFrameWeek  TimeFrame = "week"
	TimeFrameMonth TimeFrame = "month"
	TimeFrameYear  TimeFrame = "year"
)

// Default is the bundle used on first activation and for unknown tokens.
const Default = TimeFrameWeek

// TimeFrames lists the valid tokens in presentation order.
var TimeFrames = []TimeFrame{TimeFrameWeek, TimeFrameMonth, TimeFrameYear}

// StatCard is one headline figure with its delta line.
type StatCard struct {
	Value string `json:"value"`
	Delta string `json:"delta"`
}

// DonutSegment is a proportional slice of the circular chart.
type DonutSegment struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
}

// Bar is one labeled bar of the bar chart, height as a percentage string.
type Bar struct {
	Label  string `json:"label"`
	Height string `json:"height"`
}

// Bundle is everything the presentation layer needs to render one time frame.
// Fields are pushed verbatim.
type Bundle struct {
	TimeFrame  TimeFrame      `json:"timeFrame"`
	ChartTitle string         `json:"chartTitle"`
	TrendTitle string         `json:"trendTitle"`
	Stats      [4]StatCard    `json:"stats"`
	Donut      []DonutSegment `json:"donut"`
	Bars       [6]Bar         `json:"bars"`
}

var bundles = map[TimeFrame]Bundle{
	TimeFrameWeek: {
		TimeFrame:  TimeFrameWeek,
		ChartTitle: "Last 7 Days",
		TrendTitle: "Last 4 Weeks",
		Stats: [4]StatCard{
			{Value: "$7,500", Delta: "+5% vs previous week"},
			{Value: "35%", Delta: "+2% vs previous week"},
			{Value: "4", Delta: "1 new closure"},
			{Value: "8 days", Delta: "Target: 7 days"},
		},
		Donut: []DonutSegment{
			{Label: "Prospect", Percent: 50},
			{Label: "In Progress", Percent: 30},
			{Label: "Closed", Percent: 20},
		},
		Bars: [6]Bar{
			{Label: "Mon", Height: "70%"},
			{Label: "Tue", Height: "40%"},
			{Label: "Wed", Height: "85%"},
			{Label: "Thu", Height: "60%"},
			{Label: "Fri", Height: "90%"},
			{Label: "Sat", Height: "55%"},
		},
	},
	TimeFrameMonth: {
		TimeFrame:  TimeFrameMonth,
		ChartTitle: "Month",
		TrendTitle: "Last 6 Months",
		Stats: [4]StatCard{
			{Value: "$45,200", Delta: "+12% vs previous month"},
			{Value: "28.5%", Delta: "-1.5% vs previous month"},
			{Value: "18", Delta: "5 new closures"},
			{Value: "14 days", Delta: "Target: 12 days"},
		},
		Donut: []DonutSegment{
			{Label: "Prospect", Percent: 45},
			{Label: "In Progress", Percent: 30},
			{Label: "Closed", Percent: 25},
		},
		Bars: [6]Bar{
			{Label: "Aug", Height: "40%"},
			{Label: "Sep", Height: "65%"},
			{Label: "Oct", Height: "50%"},
			{Label: "Nov", Height: "80%"},
			{Label: "Dec", Height: "95%"},
			{Label: "Jan", Height: "75%"},
		},
	},
	TimeFrameYear: {
		TimeFrame:  TimeFrameYear,
		ChartTitle: "Year",
		TrendTitle: "Last 5 Years",
		Stats: [4]StatCard{
			{Value: "$540,000", Delta: "+20% vs previous year"},
			{Value: "24%", Delta: "+3% vs previous year"},
			{Value: "205", Delta: "All-time record"},
			{Value: "25 days", Delta: "Target: 20 days"},
		},
		Donut: []DonutSegment{
			{Label: "Prospect", Percent: 30},
			{Label: "In Progress", Percent: 30},
			{Label: "Closed", Percent: 40},
		},
		Bars: [6]Bar{
			{Label: "2020", Height: "50%"},
			{Label: "2021", Height: "70%"},
			{Label: "2022", Height: "80%"},
			{Label: "2023", Height: "90%"},
			{Label: "2024", Height: "98%"},
			{Label: "2025", Height: "85%"},
		},
	},
}

// Lookup returns the bundle for the given token. Unknown or empty tokens fall
// back to the default time frame; ok reports whether the token was recognized.
func Lookup(tf TimeFrame) (Bundle, bool) {
	if b, ok := bundles[tf]; ok {
		return b, true
	}
	return bundles[Default], false
}
