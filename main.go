package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/pelltigre/sketchparty/config"
	"github.com/pelltigre/sketchparty/database"
	"github.com/pelltigre/sketchparty/recognition"
	"github.com/pelltigre/sketchparty/server"
	"github.com/pelltigre/sketchparty/words"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	db, derr := database.Open(cfg.PostgresDSN())
	if derr != nil {
		panic(derr)
	}
	log.Printf("Connected to database.")

	if derr := database.Automigrate(db); derr != nil {
		panic(derr)
	}
	log.Printf("Migrated the database.")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pool, err := words.Load(cfg.Game.WordListPath, rng)
	if err != nil {
		panic(err)
	}
	log.Printf("Loaded word pool with %d words.", pool.Size())

	classifier := recognition.NewClient(
		cfg.Classifier.URL,
		time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second,
		pool,
		rand.New(rand.NewSource(time.Now().UnixNano()+1)))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := classifier.Healthy(ctx); err != nil {
		log.Printf("Classifier unreachable, rounds will resolve via fallback: %s", err)
	}
	cancel()

	srv := server.New(db, pool, classifier)
	if err := srv.Connect(cfg.Server.Address, cfg.Server.AllowedOrigins); err != nil {
		panic(err)
	}
}
