// Package all registers every storage backend with the storage factory.
package all

import (
	_ "so2db/internal/storage/mssql"
	_ "so2db/internal/storage/mysql"
	_ "so2db/internal/storage/postgres"
	_ "so2db/internal/storage/sqlite"
)
