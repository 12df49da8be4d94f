// Package logx is kratzbaum's structured logging on top of zerolog: pretty
// console lines with a short caller, JSON in files, and an optional cap on
// debug volume. Sinks can be swapped at runtime through Service.Apply.
package logx
