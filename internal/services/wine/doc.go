// Package wine runs Windows executables through the Wine compatibility layer.
//
// The launcher prefixes every invocation with the configured wine binary,
// points WINEPREFIX at the configured prefix, and silences Wine's debug
// channels unless the caller already chose a WINEDEBUG setting.
package wine
