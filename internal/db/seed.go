package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var eveningStyles = []string{"quiet", "board games", "bar crawl", "party"}

var defaultTopics = []string{
	"politics", "childhood", "cats", "exes", "movies",
	"games", "music", "travel", "nothing in particular",
}

// HashPhone produces the stable lookup key for a phone number. Raw
// numbers are never stored.
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])
}

// SeedTestData resets the database and populates it with a demo user
// plus ten nearby candidates with varied profiles, so the feed has
// something to rank in development.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"messages", "matches", "swipes", "reviews", "reputations",
		"places", "abuse_reports", "payments", "audit_logs",
		"locations", "profiles", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	demo := User{
		ID:        uuid.NewString(),
		PhoneHash: HashPhone("+79999999999"),
		Age:       29,
		Gender:    "male",
		Status:    UserStatusActive,
		KYCStatus: StatusPending,
	}
	if err := db.Create(&demo).Error; err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	demoProfile := Profile{
		UserID:        demo.ID,
		Nickname:      "Anton",
		FavoriteDrink: "prosecco",
		TalkTopics:    StringList{"board games", "cats"},
		MoodTags:      StringList{"quiet"},
		Photos:        StringList{"https://example.com/photo1.jpg"},
	}
	demoLocation := Location{
		UserID:         demo.ID,
		Lat:            55.751244,
		Lon:            37.618423,
		City:           "Moscow",
		VisibilityMode: VisibilityVisible,
		SearchRadiusM:  3000,
		LastSeenAt:     time.Now(),
	}
	if err := db.Create(&demoProfile).Error; err != nil {
		return err
	}
	if err := db.Create(&demoLocation).Error; err != nil {
		return err
	}
	if err := db.Create(&Reputation{UserID: demo.ID, Badges: StringList{}}).Error; err != nil {
		return err
	}

	for idx := 0; idx < 10; idx++ {
		gender := "male"
		if idx%2 == 0 {
			gender = "female"
		}
		drink := "beer"
		if idx%2 == 0 {
			drink = "wine"
		}
		user := User{
			ID:        uuid.NewString(),
			PhoneHash: HashPhone(fmt.Sprintf("+7999000000%d", idx)),
			Age:       22 + idx,
			Gender:    gender,
			Status:    UserStatusActive,
			IsPro:     idx%3 == 0,
			KYCStatus: StatusApproved,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		start := idx % len(defaultTopics)
		end := start + 3
		if end > len(defaultTopics) {
			end = len(defaultTopics)
		}
		profile := Profile{
			UserID:        user.ID,
			Nickname:      fmt.Sprintf("Candidate %d", idx+1),
			FavoriteDrink: drink,
			TalkTopics:    StringList(defaultTopics[start:end]),
			MoodTags:      StringList{eveningStyles[idx%len(eveningStyles)]},
			Photos:        StringList{fmt.Sprintf("https://example.com/u%d.jpg", idx+1)},
		}
		location := Location{
			UserID:         user.ID,
			Lat:            55.75 + r.Float64()*0.05,
			Lon:            37.6 + r.Float64()*0.05,
			City:           "Moscow",
			VisibilityMode: VisibilityVisible,
			SearchRadiusM:  3000,
			LastSeenAt:     time.Now(),
		}
		if err := db.Create(&profile).Error; err != nil {
			return err
		}
		if err := db.Create(&location).Error; err != nil {
			return err
		}
		if err := db.Create(&Reputation{UserID: user.ID, Badges: StringList{}}).Error; err != nil {
			return err
		}
	}
	log.Println("Seeded demo user and 10 candidates.")

	return nil
}
