package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/quanta"
	"github.com/poiesic/quanta/ingestion"
)

// seedDoc is a built-in demo document. The markdown headings exercise the
// structural chunker; real deployments seed from a directory instead.
type seedDoc struct {
	id   string
	text string
}

var documents = []seedDoc{
	{
		id: "doc_solar_system",
		text: `# The Solar System

## Overview

The solar system consists of the Sun and the objects bound to it by gravity.
Eight planets orbit the Sun, along with dwarf planets, moons, asteroids and
comets. The four inner planets are small and rocky, while the four outer
planets are much larger and composed mostly of gas and ice.

## The Inner Planets

Mercury is the smallest planet and the closest to the Sun. It has no
atmosphere to retain heat, so its surface temperature swings by hundreds of
degrees between day and night.

Venus is similar in size to Earth but has a thick atmosphere of carbon
dioxide. A runaway greenhouse effect makes it the hottest planet, with
surface temperatures around 465 degrees Celsius.

Earth is the only known planet to support life. Liquid water covers about
71 percent of its surface, and its atmosphere shields the surface from
harmful radiation.

Mars is known as the red planet because of iron oxide on its surface. It
hosts the largest volcano in the solar system, Olympus Mons, which stands
nearly three times the height of Mount Everest.

## The Outer Planets

Jupiter is the largest planet, with a mass greater than all the other
planets combined. Its Great Red Spot is a storm larger than Earth that has
raged for centuries.

Saturn is famous for its ring system, made mostly of ice particles with
some rocky debris. It has at least 146 known moons, more than any other
planet.

Uranus rotates on its side, likely the result of an ancient collision. Its
axial tilt of about 98 degrees gives it the most extreme seasons in the
solar system.

Neptune is the most distant planet and has the strongest winds, reaching
speeds of over 2,000 kilometers per hour.
`,
	},
	{
		id: "doc_ocean_life",
		text: `# Life in the Ocean

## Sunlight Zone

The uppermost layer of the ocean extends to about 200 meters deep. Enough
sunlight penetrates to support photosynthesis, so most marine life is found
here. Phytoplankton in this zone produce at least half of the oxygen in
Earth's atmosphere.

## Twilight Zone

Between 200 and 1,000 meters, light fades to a dim glow. Many animals here
produce their own light through bioluminescence, which they use to hunt,
communicate and hide. The lanternfish, one of the most abundant vertebrates
on the planet, lives in this zone.

## Midnight Zone

Below 1,000 meters no sunlight reaches at all. Animals survive on food
drifting down from above, a slow fall of organic matter called marine snow.
The anglerfish attracts prey with a glowing lure that dangles in front of
its jaws.

## The Deepest Trenches

The Mariana Trench reaches a depth of nearly 11,000 meters, deep enough to
submerge Mount Everest with more than two kilometers to spare. Even at this
crushing pressure, amphipods and snailfish thrive.
`,
	},
	{
		id: "doc_bread_baking",
		text: `# A Short Guide to Bread Baking

## Ingredients

Basic bread needs only four ingredients: flour, water, salt and yeast.
Bread flour contains more protein than all-purpose flour, which gives the
dough more structure and a chewier crumb.

## Kneading and Fermentation

Kneading develops gluten, the network of proteins that traps gas and lets
the dough rise. Most doughs need eight to ten minutes of kneading by hand.
After kneading, the dough ferments for one to two hours at room temperature
until it roughly doubles in size.

## Baking

Bake at a high temperature, typically 230 degrees Celsius, with steam in
the first ten minutes. Steam keeps the crust soft long enough for the loaf
to expand fully, a jump bakers call oven spring. The loaf is done when it
sounds hollow tapped on the bottom, or when its internal temperature
reaches 95 degrees Celsius.
`,
	},
}

var (
	srcDir     = flag.String("src", "", "directory of markdown or text files to seed from")
	dbPath     = flag.String("db", "./quanta_db", "path to the database directory")
	collection = flag.String("collection", "demo", "collection to ingest into")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// docsFromDir returns an iterator over the markdown and text files in a
// directory, one document per file.
func docsFromDir(dir string) (iter.Seq[seedDoc], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedDoc) bool) {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext != ".md" && ext != ".txt" {
				continue
			}
			content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				slog.Warn("skipping unreadable file", "file", entry.Name(), "error", err)
				continue
			}
			doc := seedDoc{
				id:   strings.TrimSuffix(entry.Name(), ext),
				text: string(content),
			}
			if !yield(doc) {
				return
			}
		}
	}, nil
}

// docsFromSlice returns an iterator over the built-in demo documents.
func docsFromSlice(docs []seedDoc) iter.Seq[seedDoc] {
	return func(yield func(seedDoc) bool) {
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// ingestAll feeds every document from the source into the service.
func ingestAll(ctx context.Context, service *quanta.Service, source iter.Seq[seedDoc]) error {
	for doc := range source {
		result, err := service.Ingest(ctx, &ingestion.Document{
			Id:         doc.id,
			Collection: *collection,
			Text:       doc.text,
		})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", doc.id, err)
		}
		slog.Info("seeded document",
			"document", result.DocumentId,
			"units", result.Units,
			"degraded", result.Degraded)
	}
	return nil
}

func main() {
	service, err := quanta.NewService(*dbPath)
	if err != nil {
		panic(err)
	}
	defer service.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[seedDoc]
	if *srcDir != "" {
		source, err = docsFromDir(*srcDir)
		if err != nil {
			panic(err)
		}
	} else {
		source = docsFromSlice(documents)
	}

	if err := ingestAll(ctx, service, source); err != nil {
		panic(err)
	}
}
