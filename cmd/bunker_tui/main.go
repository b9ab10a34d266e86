package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/studzonetools/bunker/internal/bunk"
	"github.com/studzonetools/bunker/internal/config"
	"github.com/studzonetools/bunker/internal/studzone"
)

func main() {
	cfg, err := config.Load("bunker.yaml")
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	threshold, err := bunk.Threshold(cfg.Threshold)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := studzone.NewClient(cfg.PortalURL)
	p := tea.NewProgram(NewModel(client, threshold), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
