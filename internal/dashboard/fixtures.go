package dashboard

// Analytics snapshots for the dashboard cards. These mirror the figures the
// reporting pipeline produces; a live feed replaces them once the
// performance service is wired in.
var performanceSnapshot = PerformanceSummary{
	YTD:         12.4,
	FYTD:        8.7,
	HitRate:     68.5,
	SharpeRatio: 1.42,
	Sortino:     1.89,
	MaxDrawdown: -8.3,
	WinLoss:     2.3,
	BestTrade:   TradeHighlight{Ticker: "BNTX", PnL: 22.1, Date: "2025-04-20"},
	WorstTrade:  TradeHighlight{Ticker: "NVAX", PnL: -4.2, Date: "2024-11-05"},
}

var exposureSnapshot = Exposure{
	Sector: []ExposureSlice{
		{Name: "Pharmaceuticals", Value: 35},
		{Name: "Biotechnology", Value: 42},
		{Name: "Medical Devices", Value: 12},
		{Name: "Healthcare Services", Value: 8},
		{Name: "Life Sciences Tools", Value: 3},
	},
	BiotechSubsectors: []ExposureSlice{
		{Name: "Gene Therapy", Value: 25},
		{Name: "Immuno-Oncology", Value: 30},
		{Name: "RNA Therapeutics", Value: 15},
		{Name: "Rare Diseases", Value: 12},
		{Name: "Antibody Platforms", Value: 8},
		{Name: "Cell Therapy", Value: 10},
	},
	Geography: []ExposureSlice{
		{Name: "North America", Value: 65},
		{Name: "Europe", Value: 25},
		{Name: "Asia", Value: 8},
		{Name: "Other", Value: 2},
	},
	MarketCap: []ExposureSlice{
		{Name: "Large Cap", Value: 45},
		{Name: "Mid Cap", Value: 35},
		{Name: "Small Cap", Value: 20},
	},
	FactorExposure: []ExposureSlice{
		{Name: "Momentum", Value: 25},
		{Name: "Value", Value: -15},
		{Name: "Quality", Value: 30},
		{Name: "Growth", Value: 45},
		{Name: "Size", Value: -10},
		{Name: "Volatility", Value: 20},
	},
}
