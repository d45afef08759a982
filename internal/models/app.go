package models

// AppModel holds UI-only concerns; domain state lives in the player.
type AppModel struct {
	Status      string // Status bar text
	Title       string // Theme and mode label
	Width       int    // Terminal width
	Height      int    // Terminal height
	ShowHelp    bool
	ShowPanels  bool
	Loading     bool
	LoadingDots int
}
