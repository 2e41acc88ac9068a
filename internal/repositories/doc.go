// Package repositories implements SQLite persistence.
//
// Key Implementations:
//   - [TokenRepository] : OAuth tokens per upstream provider, so refreshed tokens survive restarts
//
// Schema lives in shared/sql and is applied by [shared.RunMigrations].
package repositories
