// Package bertbot exposes the static assets embedded into the binary:
// SQL migrations for the Postgres log store and the JSON assets that
// drive the survey form and the suggested-question catalog.
package bertbot

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS

//go:embed assets/*.json
var AssetsFS embed.FS
