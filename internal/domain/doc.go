// Package domain models historical cyclone best-track observations.
//
// # Data Source
//
// Observations come from a flat JSON export of a regional best-track
// archive: one object per six-hourly (or three-hourly, near landfall) fix.
// The export keeps the spreadsheet column headers as keys, lower-cased and
// with punctuation collapsed, which is why the field names look like
// "latitude-lat" or "estimatedcentralpressurehpaorecp".
//
// # Field Conventions
//
// Date and time:
//
//	"date-dd-mm-yyyy" is a day-month-year string, e.g. "05-06-2001".
//	"time-utc" is the fix time as written in the archive, e.g. "0000" or "12".
//	A frame key (timestamp) is the plain concatenation date+time; it is
//	opaque and never parsed into a time.Time.
//
// Storm identifier:
//
//	"serialnumberofsystemduringyear" numbers systems within a season, so the
//	identifier is only unique inside one year. All grouping in this package
//	happens after a year filter.
//
// Wind and pressure:
//
//	Maximum sustained surface wind is reported in knots and converted to
//	km/h (1 kt = 1.852 km/h). Estimated central pressure is in hPa. Either
//	may be blank or a placeholder such as "-" in the archive; both fall back
//	to zero.
//
// Coordinates:
//
//	Decimal degrees. A fix whose latitude or longitude does not parse to a
//	finite number cannot be placed on a map and is dropped.
//
// Grades:
//
//	The intensity category is one of seven codes, from weakest to strongest:
//	D (Depression), DD (Deep Depression), CS (Cyclonic Storm),
//	SCS (Severe Cyclonic Storm), VSCS (Very Severe Cyclonic Storm),
//	ESCS (Extremely Severe Cyclonic Storm), SuCS (Super Cyclonic Storm).
//	Each maps to a fixed marker colour; see [GradeColor].
package domain
