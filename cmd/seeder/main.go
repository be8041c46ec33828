package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vinolog/vinolog"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
)

// Seed lines are "producer|region|wine|year|varietal,varietal".
// Year 0 marks a non-vintage bottle.
var bottles = []string{
	"Villa Oliveira Lda|Douro|Reserva Tinto|2017|Touriga Nacional,Tinta Roriz",
	"Villa Oliveira Lda|Douro|Reserva Tinto|2018|Touriga Nacional,Tinta Roriz",
	"Villa Oliveira Lda|Douro|Grande Colheita|2015|Touriga Franca",
	"Villa Oliveira Lda|Douro|Branco Velho|2020|Rabigato,Viosinho",
	"Quinta do Vale Escuro|Dao|Encruzado Classico|2021|Encruzado",
	"Quinta do Vale Escuro|Dao|Tinto da Casa|2019|Touriga Nacional,Alfrocheiro",
	"Bodega San Rafael|Mendoza|Alta Malbec|2020|Malbec",
	"Bodega San Rafael|Mendoza|Alta Malbec|2021|Malbec",
	"Bodega San Rafael|Mendoza|Gran Corte|2018|Malbec,Cabernet Franc",
	"Domaine Claire Fontaine|Burgundy|Les Perrieres|2019|Chardonnay",
	"Domaine Claire Fontaine|Burgundy|Vieilles Vignes|2018|Pinot Noir",
	"Domaine Claire Fontaine|Burgundy|Cremant Brut|0|Chardonnay,Pinot Noir",
	"Weingut Steinberg|Mosel|Kabinett Feinherb|2022|Riesling",
	"Weingut Steinberg|Mosel|Alte Reben Trocken|2021|Riesling",
	"Cascina Bel Colle|Piedmont|Bricco Rosso|2017|Nebbiolo",
	"Cascina Bel Colle|Piedmont|Dolcetto Vivace|2022|Dolcetto",
	"Hawk Ridge Cellars|Willamette Valley|Estate Pinot Noir|2021|Pinot Noir",
	"Hawk Ridge Cellars|Willamette Valley|Cuvee Blanc|0|Pinot Gris,Chardonnay",
	"Marlborough Sound Wines|Marlborough|Sauvignon Blanc|2023|Sauvignon Blanc",
	"Marlborough Sound Wines|Marlborough|Late Harvest|2020|Riesling",
}

var (
	dbPath   = flag.String("db", "./vinolog_db", "database directory")
	seedFile = flag.String("src", "", "file of seed lines, one bottle per line")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

type bottle struct {
	producer  string
	region    string
	wine      string
	year      int
	varietals []string
}

func parseBottle(line string) (bottle, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return bottle{}, fmt.Errorf("want 5 fields, got %d", len(parts))
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return bottle{}, fmt.Errorf("bad year %q: %w", parts[3], err)
	}

	b := bottle{
		producer: strings.TrimSpace(parts[0]),
		region:   strings.TrimSpace(parts[1]),
		wine:     strings.TrimSpace(parts[2]),
		year:     year,
	}
	for _, v := range strings.Split(parts[4], ",") {
		if v = strings.TrimSpace(v); v != "" {
			b.varietals = append(b.varietals, v)
		}
	}
	return b, nil
}

// seedCatalog writes one bottle into the catalog, reusing existing
// producer and wine rows so reruns are harmless.
func seedCatalog(ctx context.Context, db *vinolog.Database, b bottle) error {
	catalog := db.Catalog()

	producer, _, err := catalog.UpsertProducer(ctx, b.producer, b.region)
	if err != nil {
		return fmt.Errorf("producer %q: %w", b.producer, err)
	}

	wine, err := catalog.FindWineMatching(ctx, producer.Id, b.wine)
	if errors.Is(err, storage.ErrNotFound) {
		wine, err = catalog.CreateWine(ctx, &core.Wine{
			ProducerId:   producer.Id,
			Name:         b.wine,
			IsNonVintage: b.year == 0,
		})
		if err != nil {
			return fmt.Errorf("wine %q: %w", b.wine, err)
		}
	} else if err != nil {
		return fmt.Errorf("wine %q: %w", b.wine, err)
	}

	vintage, _, err := catalog.GetOrCreateVintage(ctx, wine.Id, b.year)
	if err != nil {
		return fmt.Errorf("vintage %d of %q: %w", b.year, b.wine, err)
	}

	if _, err := catalog.AddVarietals(ctx, vintage.Id, b.varietals...); err != nil {
		return fmt.Errorf("varietals for %q: %w", b.wine, err)
	}
	return nil
}

func main() {
	db, err := vinolog.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	if *seedFile != "" {
		source, err = linesFromFile(*seedFile)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(bottles)
	}

	seeded := 0
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, err := parseBottle(line)
		if err != nil {
			slog.Error("skipping seed line", "line", line, "err", err)
			continue
		}
		if err := seedCatalog(ctx, db, b); err != nil {
			panic(err)
		}
		seeded++
	}

	slog.Info("catalog seeded", "bottles", seeded)
}
