// Package domain implements the composite crop-stress alert engine: the rule
// set, quality gates, and event merging that turn a merged daily table of
// remote-sensing indices and weather aggregates into classified stress events.
//
// # Input Conventions
//
// The daily table carries one row per calendar date, sorted ascending. For
// each vegetation indicator (NDVI, EVI, NDMI, NDRE, GNDVI, MSI) two columns
// exist after metric resolution:
//
//	{name}_obs   value from an actual satellite acquisition on that date;
//	             NaN on days without an acquisition.
//	{name}_fill  the observed value or, absent one, a time-interpolated
//	             daily estimate produced by the upstream merge.
//
// Upstream merges have used several column conventions over time
// ("ndvi_mean", "ndvi_mean_daily", explicit obs/fill pairs); the resolver in
// this package maps any of them onto the fixed schema above so the rules
// never dispatch on column presence.
//
// Weather aggregates are 7-day rolling reductions (precip_7d, tmean_7d,
// rh_7d, tmin_7d), NaN until enough history exists. ndvi_slope7 is the
// difference between today's and 7-days-ago filled NDVI.
//
// # Quality Control vs. Gating
//
// QC answers "is the data trustworthy today": a recent-enough real
// observation must back the day (support window) and the weather and core
// indicator values must be present and finite. Gating answers "is this a
// context where an alert is meaningful": the crop canopy must be established
// (observation streak) and/or the date must fall in the growing season. The
// two compose (allow_alert = qc_ok AND gating_ok) rather than substitute
// for each other.
//
// Days failing QC are skipped, never errors. The skip reason is attributed by
// fixed priority so diagnostics stay stable:
//
//	missing_remote > missing_weather > nonfinite > ok
//
// # Classification
//
// Five independent rules (drought, waterlogging, heat_stress, cold_stress,
// nutrient_or_pest) are evaluated per day from a fixed-order rule table. Each
// rule guards on canopy presence and on its own inputs being finite; the
// guards encode domain exclusions (e.g. low chlorophyll under dry soil is
// attributed to drought, not nutrient stress). Two or more triggers resolve
// to a "composite" alert carrying every triggered rule name.
//
// Consecutive same-type daily alerts merge into discrete events. The peak of
// an event is the member whose driving indicator sits furthest past that
// rule's own threshold (NDMI below the dry threshold for drought, tmean_7d
// above the heat threshold, and so on).
//
// The whole engine is a pure function of the input table and its
// configuration: no I/O, no retained state between runs.
package domain
