// Package cli is the interactive terminal client: the login and register
// screens, the chat screen and the loop that switches between them whenever
// the session changes.
//
// On the login and register screens the first word of a line is a command.
// On the chat screen every line is a message unless it starts with "/".
package cli
