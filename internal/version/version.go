// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Chart library (SQLite), PNG/WebP export, reload events in watch mode
// 0.2.0 - Mouse hover/click/zoom on the wheel, positions table, SVG export
// 0.1.0 - Initial release: TUI chart wheel, headless summary and JSON export
