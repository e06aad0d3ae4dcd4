// Package core provides the extraction pipeline for payroll spreadsheets.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the HTTP server, the CLI and tests without modification.
//
// # Pipeline
//
// A file is decoded by extension ([Decode]) into records, then driven through
// three stages by [Pipeline.Run]:
//
//   - structured_match: the first record is the header. Labels are resolved
//     to canonical fields by [BuildMapping] and rows are mapped.
//   - header_relocate: when the structured stage yields no rows,
//     [LocateHeader] looks for the real header in the leading rows, below
//     the first record if that resolved any field.
//   - fallback_extract: when no stage produced rows, every cell is tested
//     against value patterns (names, ID numbers, tax PINs, amounts).
//
// The first stage producing rows wins. Rows below the minimum field count
// become [FailedRow] values with a reason; empty and stray rows are dropped
// silently and only counted.
//
// # Alias table
//
// Canonical fields, their source headers and aliases live in a [FieldSet].
// [DefaultFields] is built in; [LoadFieldSet] applies YAML overrides so new
// payroll-provider conventions need no code change.
//
// # Diagnostics
//
// Runs report progress to an injected [Sink]. [SlogSink] forwards to a
// structured logger and [Recorder] keeps events for tests.
//
// # Error Handling
//
// Decode failures are returned as [*DecodeError] wrapping a sentinel.
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FILE001-FILE006: File errors (size, format, empty)
//   - EXT001-EXT003: Extraction configuration errors
//   - UPL001-UPL003: Busy, cancelled and timed-out runs
//   - DB001: Run history storage errors
package core
