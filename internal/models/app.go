package models

type LineType int

const (
	UserLine LineType = iota
	AssistantLine
	ProgramLine
	VerdictLine
	ErrorLine
)

// Line is one rendered entry of the chat view
type Line struct {
	Content string
	Type    LineType
}

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Lines            []Line // Current lines to display
	Input            string // User input field
	Status           string // Status bar text
	Loading          bool   // Loading state from core
	LoadingDots      int    // Animation counter for loading dots
	Width            int    // Terminal width
	Height           int    // Terminal height
	ChatServiceReady bool   // Whether chat service is available
}
