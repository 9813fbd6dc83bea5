package dashboard

// MetricInfo describes one sensor metric exposed by the analytics view.
type MetricInfo struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// MetricBands are the display thresholds for a metric.
type MetricBands struct {
	Low     string `json:"low"`
	Optimal string `json:"optimal"`
	High    string `json:"high"`
}

var metricTable = map[string]MetricInfo{
	"temp_c":          {Name: "Temperature", Unit: "°C"},
	"humidity_pct":    {Name: "Humidity", Unit: "%"},
	"co2_ppm":         {Name: "CO₂ Level", Unit: "ppm"},
	"voc":             {Name: "VOC Index", Unit: "ppb"},
	"pm25_ugm3":       {Name: "PM2.5", Unit: "µg/m³"},
	"ch2o_ppm":        {Name: "Formaldehyde", Unit: "ppm"},
	"light_lux":       {Name: "Light Intensity", Unit: "lux"},
	"sound_dba":       {Name: "Sound Level", Unit: "dBA"},
	"occupancy_count": {Name: "Occupancy Count", Unit: "people"},
}

var metricBands = map[string]MetricBands{
	"temp_c":       {Low: "18-20", Optimal: "20-25", High: "> 25"},
	"humidity_pct": {Low: "30-40", Optimal: "40-50", High: "> 60"},
	"co2_ppm":      {Low: "600-1000", Optimal: "< 600", High: "> 1000"},
	"voc":          {Low: "300-500", Optimal: "< 300", High: "> 500"},
	"pm25_ugm3":    {Low: "12-35", Optimal: "< 12", High: "> 35"},
}

// ThresholdRange is the low/high display range for a booth-view gauge.
type ThresholdRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

var boothThresholds = map[string]ThresholdRange{
	"temp_c":          {Low: 18, High: 24},
	"humidity_pct":    {Low: 40, High: 60},
	"co2_ppm":         {Low: 0, High: 1000},
	"voc":             {Low: 0, High: 100},
	"light_lux":       {Low: 300, High: 460},
	"sound_dba":       {Low: 50, High: 120},
	"occupancy_count": {Low: 1, High: 5},
}
