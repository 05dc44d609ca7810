// Package dev implements the development-mode loop: a recursive
// fsnotify watcher over the handler tree, automatic registry
// recompilation on change, and a WebSocket server that tells connected
// clients when the registry was rebuilt or a compile failed.
package dev
