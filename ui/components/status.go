package components

import (
	"fmt"
	"strings"

	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/ui/styles"
)

func RenderStatus(status string, loading bool, loadingDots int, width int) string {
	statusStyle := styles.StatusStyle(width)

	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}

	return statusStyle.Render(statusContent)
}

// PlaybackLine summarises the playback state for the status bar.
func PlaybackLine(st models.PlaybackState, length int) string {
	state := "paused"
	if st.IsPlaying {
		state = "playing"
	}
	if length == 0 {
		return fmt.Sprintf("%s  x%.1f", state, st.SpeedMultiplier)
	}
	return fmt.Sprintf("%s  %d/%d  x%.1f", state, st.CurrentIndex+1, length, st.SpeedMultiplier)
}
