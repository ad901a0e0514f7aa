// Package checksum hashes flat files and T-SQL query text.
//
// Two kinds of digest are produced:
//
//   - File digest: SHA-256 of a file's bytes, streamed. Logged for every
//     archive uploaded by export and every flat file handed to bcp, so the
//     two ends of a transfer can be compared.
//   - Normalized digest: SHA-256 of a query after comments are removed,
//     whitespace is collapsed and letters are lowercased. Two scripts with
//     the same normalized digest run the same statements.
//
// # Normalization
//
// Comments (-- to end of line, and nested /* */ blocks) are removed while
// string literals ('...' with '' escapes) and delimited identifiers ([...]
// with ]] escapes, and "...") are copied unchanged. Normalize on a query
// that holds only comments returns "", which IsBlank reports.
//
// # Example Usage
//
//	sum, err := checksum.File("sales.Customers_20240131_101500.bcp.gz")
//	if checksum.IsBlank(query) {
//	    // nothing to run
//	}
package checksum
