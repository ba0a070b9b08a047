package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"roomchat/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "list-rooms":
		rooms, err := storageSvc.ListAllRooms()
		if err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
		for _, r := range rooms {
			kind := "public"
			if r.IsPrivate {
				kind = "private code=" + r.RoomCode
			}
			fmt.Printf("%s  %-30s  %s  members=%d\n", r.ID, r.Name, kind, len(r.Members))
		}
	case "delete-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin delete-room <room_id>")
			os.Exit(1)
		}
		roomID := os.Args[2]
		if err := storageSvc.DeleteRoom(roomID); err != nil {
			log.Fatalf("Error deleting room: %v", err)
		}
		fmt.Printf("Room %s has been deleted.\n", roomID)
	case "purge-empty-rooms":
		if err := purgeEmptyRooms(storageSvc); err != nil {
			log.Fatalf("Error purging empty rooms: %v", err)
		}
	case "set-offline":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin set-offline <user_id>")
			os.Exit(1)
		}
		userID := os.Args[2]
		if err := setOffline(storageSvc, userID); err != nil {
			log.Fatalf("Error setting user offline: %v", err)
		}
		fmt.Printf("User %s has been marked offline.\n", userID)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func purgeEmptyRooms(s storage.Storage) error {
	rooms, err := s.ListAllRooms()
	if err != nil {
		return err
	}
	purged := 0
	for _, r := range rooms {
		if len(r.Members) > 0 {
			continue
		}
		deleted, err := s.DeleteRoomIfEmpty(r.ID)
		if err != nil {
			return err
		}
		if deleted {
			purged++
		}
	}
	fmt.Printf("Purged %d empty rooms.\n", purged)
	return nil
}

// setOffline лагодить присутність користувача після збою сервера.
func setOffline(s storage.Storage, userID string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}
	return s.SetUserPresence(userID, false, time.Now())
}
