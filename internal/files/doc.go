// Package files resolves flat files and scripts on the local filesystem and
// handles gzip compression of flat files.
//
// Flat files follow the export naming convention
// <schema.table>_<YYYYMMDD>_<HHMMSS>.bcp[.gz]; scripts are plain .sql files
// processed in lexical order.
package files
