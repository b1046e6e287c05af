// Package core contains the clinical-trial analytics domain: the table
// loader, the statistics engine and the insight rules, plus the small amount
// of service plumbing shared by the HTTP server and the CLI.
//
// It has no transport dependencies and can be driven from web handlers, the
// trialctl command or tests without modification.
//
// # Table Loader
//
// [Load] and [LoadReader] turn a CSV (or XLSX) file into a [Table]. Cells are
// coerced against [PatientSchema]:
//
//   - null tokens "", "NA", "null" and "none" (any case) mark a cell missing
//   - booleans accept true/false, 1/0 and yes/no (any case)
//   - dates must be ISO YYYY-MM-DD
//   - age must be a non-negative integer
//
// A row with any missing or invalid required cell is dropped as a whole, as
// is a repeated patient_id. Extra columns that are empty in every row are
// dropped. Every drop is logged and recorded in [LoadReport]. Whole-file
// problems surface as [ErrDataUnavailable] or [ErrSchema].
//
// # Statistics Engine
//
// Five independent views, each a pure function of the table:
//
//	Summarize(t)                overall counts and rates
//	SitePerformanceAnalysis(t)  per trial site
//	AgeGroupAnalysis(t)         per fixed age bracket (18-30 ... 71-80)
//	TemporalTrends(t)           per enrollment month, ascending
//	CorrelationAnalysis(t)      pairwise Pearson coefficients
//
// Rates are percentages in [0,100] rounded to one decimal. An empty table
// yields zeroed or empty results; none of the views return errors.
//
// # Insights
//
// [GenerateInsights] evaluates threshold rules over a [Summary] in a fixed
// order. [ComputeKeyInsights] names the best and worst sites and age groups.
// [Analyze] bundles every view for the API, dashboard and reports.
//
// # Error Codes
//
// [MapError] converts errors into user-facing messages with a support code:
//
//   - DATA001-DATA003: dataset missing, empty or unparsable
//   - SCH001-SCH002: required columns missing or empty
//   - FILE001-FILE004: upload form problems
//   - UPL002, UPL004, UPL005: capacity, cancellation, timeout
//   - RATE001: throttled
package core
