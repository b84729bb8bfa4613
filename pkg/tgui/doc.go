// Package tgui provides small Telegram UI helpers:
//   - Inline keyboard builders
//   - Callback data helpers (namespace:action:payload)
//   - A message builder with HTML escaping and sensible defaults
package tgui
