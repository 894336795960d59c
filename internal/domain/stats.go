package domain

// StationStat is one row of the dashboard's per-station summary.
type StationStat struct {
	Station      string  `json:"station"`
	Province     string  `json:"province"`
	AvgTempC     float64 `json:"avg_temp_c"`
	RainfallMM   float64 `json:"rainfall_mm"`
	Completeness float64 `json:"completeness"`
}

// DashboardSummary holds the portal-wide placeholder aggregates shown on the
// dashboard. The real ingestion pipeline is out of scope; these numbers are
// static until it lands.
type DashboardSummary struct {
	Stations        int           `json:"stations"`
	ActiveStations  int           `json:"active_stations"`
	Datasets        int           `json:"datasets"`
	LastImport      string        `json:"last_import"`
	AvgTempC        float64       `json:"avg_temp_c"`
	TotalRainfallMM float64       `json:"total_rainfall_mm"`
	ByStation       []StationStat `json:"by_station"`
}
