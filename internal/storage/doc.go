// Package storage persists the bot's catalog: registered chats, the admin
// schedule, the broadcast header and the admin identity.
//
// Drivers:
//   - file: one JSON document rewritten atomically, plus an audit JSONL file
//   - sqlite: modernc.org/sqlite with goose migrations
//   - postgres: lib/pq with goose migrations
package storage
