package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hveda/gallerysync/internal/models"
	"github.com/hveda/gallerysync/internal/remote/remotetest"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(14)
	favStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printStatus(s *session) {
	fmt.Println(headerStyle.Render("gallerysync status"))

	user := s.engine.Cache().User()
	if user == "" {
		user = dimStyle.Render("(signed out)")
	}
	fmt.Printf("%s %s\n", labelStyle.Render("user"), user)
	fmt.Printf("%s %d assets\n", labelStyle.Render("cache"), s.engine.Cache().Len())

	lastFetch := s.engine.Cache().LastFetch()
	if lastFetch.IsZero() {
		fmt.Printf("%s %s\n", labelStyle.Render("last fetch"), dimStyle.Render("never"))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("last fetch"), lastFetch.Format(time.RFC3339))
	}

	stats := s.engine.Queue().Stats()
	fmt.Printf("%s %d queued, %d syncing, %d failed\n",
		labelStyle.Render("queue"),
		stats[models.ActionStateQueued],
		stats[models.ActionStateSyncing],
		stats[models.ActionStateFailed])

	for _, action := range s.engine.Queue().PendingToSync() {
		line := fmt.Sprintf("  %s %s", action.Kind, action.Target().Key())
		if action.LastError != "" {
			line += dimStyle.Render(" (" + action.LastError + ")")
		}
		fmt.Println(line)
	}
}

func printItems(items []models.AssetItem, hasMore bool) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%d assets", len(items))))
	for _, item := range items {
		marker := " "
		if item.Favorite {
			marker = favStyle.Render("*")
		}
		created := time.Unix(item.CreatedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%s %-28s %-5s %s %s\n",
			marker, item.ID, item.MediaType, created, dimStyle.Render(item.Prompt))
	}
	if hasMore {
		fmt.Println(dimStyle.Render("more containers available, run load-more"))
	}
}

// seedDemoCatalog fills the fake service with a small browsable catalog.
func seedDemoCatalog(fake *remotetest.Server) {
	base := time.Now().Add(-48 * time.Hour).Unix()
	for i := 1; i <= 3; i++ {
		container := models.Container{
			ID:        fmt.Sprintf("session-%d", i),
			Name:      fmt.Sprintf("Session %d", i),
			Kind:      models.ContainerKindSession,
			CreatedAt: base + int64(i*3600),
		}
		gen := models.Generation{
			ID:        fmt.Sprintf("gen-%d", i),
			Prompt:    fmt.Sprintf("demo prompt %d", i),
			CreatedAt: base + int64(i*3600),
			ImageURLs: []string{
				fmt.Sprintf("https://cdn.example.com/gen-%d/0.png", i),
				fmt.Sprintf("https://cdn.example.com/gen-%d/1.png", i),
			},
			AspectRatio: "1:1",
		}
		fake.SeedContainer(container, gen)
	}
	fake.SeedFavorite(models.Target{GenerationID: "gen-1", MediaType: models.MediaTypeImage, MediaIndex: 0})
}
