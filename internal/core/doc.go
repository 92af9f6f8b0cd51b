// Package core provides the business logic for equipment dataset uploads.
//
// This package is independent of any transport. The web server and the
// equipctl CLI both drive it through [Service].
//
// # Pipeline
//
// An upload flows through four stages:
//
//  1. [Ingest] decodes the CSV (BOM stripped, invalid UTF-8 replaced), checks
//     the header against [RequiredColumns] and coerces the numeric columns.
//     Rows with any unparsable measurement are dropped whole.
//  2. [Summarize] computes per-metric avg/min/max (rounded to 2 decimals) and
//     the category distribution.
//  3. The repository stores rows and summary as an immutable artifact and
//     trims the owner's history to the configured retention.
//  4. On request, the renderer turns an artifact into a PDF report;
//     [Service.RenderReport] adds the download or inline disposition.
//
// # Error Handling
//
// Failures are typed values from the equipment package. [MapError] turns
// them into user-facing messages with a support code:
//
//   - VAL001-VAL005: Upload rejected (missing/duplicate columns, empty, malformed, no valid rows)
//   - NF001: Artifact not found (or owned by someone else)
//   - STO001: Blob or metadata storage failure
//   - RND001: Report could not be assembled
//   - FILE001-FILE004: Upload too large, not a .csv, or missing
//   - UPL002-UPL005: Busy, cancelled, timed out
package core
