package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/logger"
	"github.com/stemsi/student-records/internal/model"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/service"
	"github.com/stemsi/student-records/internal/validator"
)

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Oki Setiana",
	"Putri Dian", "Rafi Ahmad", "Toni Setiawan", "Wahyu Hidayat", "Citra Kirana",
}

func main() {
	count := flag.Int("n", 50, "Number of students to create")
	seed := flag.Uint64("seed", 1, "Random seed for generated ages and scores")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// The demo seed record is not wanted on top of generated ones.
	cfg.SeedDemo = false
	store, err := repository.NewStudentStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open student store")
	}
	defer store.Close()

	if cfg.IsDemo() {
		log.Warn().Msg("Memory backend selected: seeded students vanish when this command exits")
	}

	studentService := service.NewStudentService(store, cfg.DBTimeout, log)
	rng := rand.New(rand.NewPCG(*seed, *seed))

	fmt.Printf("=== Seeding %d Students into %s ===\n", *count, store.Name())

	successCount := 0
	for i := 0; i < *count; i++ {
		in := generateStudent(rng, i)

		student, err := studentService.CreateStudent(ctx, in)
		if err != nil {
			fmt.Printf("Error creating student %s: %v\n", *in.Name, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students (last id %d)...\n", i+1, student.ID)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, *count)
}

func generateStudent(rng *rand.Rand, i int) model.StudentInput {
	name := names[i%len(names)]
	if i >= len(names) {
		name = fmt.Sprintf("%s %d", name, i/len(names)+1)
	}

	gender := "M"
	if i%2 != 0 {
		gender = "F"
	}

	age := 15 + rng.IntN(5)
	midterm := score(rng)
	final := score(rng)

	return model.StudentInput{
		Name:    &name,
		Age:     &age,
		Gender:  &gender,
		Midterm: &midterm,
		Final:   &final,
	}
}

// score returns a value in [40, 100] with one decimal place.
func score(rng *rand.Rand) float64 {
	return math.Round((40+rng.Float64()*60)*10) / 10
}
