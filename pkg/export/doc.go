// Package export provides panel backup and restore functionality.
//
// # Supported Formats
//
// JSON Format:
//   - Preserves every panel with its targets and editor flags
//   - Each target carries targetFull, the query with #X references resolved
//     against the other targets of its panel
//   - Can be re-imported
//
// CSV Format:
//   - One row per target: panel_id, ref_id, target, target_full, text_editor
//   - Export-only
//
// # HTTP API
//
// Export endpoint: GET /v1/export
// Query parameters:
//   - format: "json" or "csv" (default: json)
//   - panel: panel id filter, may be repeated (optional)
//
// Import endpoint: POST /v1/import
// Content-Type: application/json
//
// # Validation
//
// Import checks each panel and skips invalid ones rather than failing the
// whole import. Targets that do not parse are still imported but switched to
// the text editor; both cases are listed in ImportResult.Errors. Targets the
// query builder would rewrite are reported in ImportResult.Warnings.
package export
