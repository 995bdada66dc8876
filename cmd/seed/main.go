// Package main seeds the database with sample ideas for local development.
//
// Ideas are created through the idea service, so they are classified and
// indexed exactly as API-created ideas are.
//
// Usage:
//
//	go run ./cmd/seed --user alice            # seed ideas for local|alice
//	go run ./cmd/seed --user alice --count 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/search"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/store/sqlstore"
)

var samples = []string{
	"A new app called Lumen that tracks houseplant watering, I'm excited about it",
	"Weekly newsletter about urban gardening for small balconies",
	"Build a tool called Ledger to split shared household costs",
	"I'm worried our onboarding flow is too long, explore a shorter version",
	"Podcast episode idea with a focus on remote team rituals",
	"A platform called Orbit for booking neighborhood tool libraries",
	"Curious whether solar powered bike lights could be sold as a kit",
	"Frustrated with meeting notes, build a system called Recap to summarize them",
	"Community workshop about composting basics",
	"Rooftop garden for the office, happy to pitch it next quarter",
}

var sources = []domain.Source{domain.SourceManual, domain.SourceWebForm, domain.SourceAPI}

func main() {
	user := flag.String("user", "dev", "Local user name; ideas are owned by local|<user>")
	count := flag.Int("count", len(samples), "Number of ideas to create")
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	st, err := sqlstore.Open(sqlstore.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Logger: lg.Logger,
	})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	var index *search.IdeaIndex
	if cfg.Search.Enabled {
		index, err = search.NewIdeaIndex(search.Options{DataPath: cfg.Search.Path, Logger: lg.Logger})
		if err != nil {
			log.Fatalf("Failed to open search index: %v", err)
		}
		defer index.Close()
		st.SetSearchIndexer(index)
	}

	ctx := context.Background()
	owner, _, err := st.GetOrCreateUserByExternalID(ctx, auth.LocalSubjectPrefix+*user, *user+"@example.com")
	if err != nil {
		log.Fatalf("Failed to resolve user: %v", err)
	}

	searchService := service.NewSearchService(index, st, lg.Logger)
	ideas := service.NewIdeaService(st, searchService, classify.NewKeywordClassifier(), events.NewEmitter(nil, lg.Logger, nil), nil, lg.Logger)

	for n := range *count {
		content := samples[n%len(samples)]
		if n >= len(samples) {
			content = fmt.Sprintf("%s (take %d)", content, n/len(samples)+1)
		}
		idea, err := ideas.CreateIdea(ctx, owner.ID, service.CreateIdeaRequest{
			Content: content,
			Source:  sources[rand.IntN(len(sources))],
		})
		if err != nil {
			log.Fatalf("Failed to create idea: %v", err)
		}
		fmt.Printf("  %s  project=%q theme=%q emotion=%q\n", idea.ID, idea.Project, idea.Theme, idea.Emotion)
	}

	fmt.Printf("Seeded %d ideas for %s (user %s)\n", *count, *user, owner.ID)
}
