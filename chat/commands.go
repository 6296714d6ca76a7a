package chat

import "strings"

// IsExitCommand reports whether text asks to leave the chat view.
func IsExitCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
