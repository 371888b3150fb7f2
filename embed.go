package earnhub

import "embed"

//go:embed migrations
var MigrationsFS embed.FS
