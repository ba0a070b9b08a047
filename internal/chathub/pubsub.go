package chathub

import (
	"encoding/json"
	"log"

	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"
)

// StartPubSubListener запускає Goroutine, яка слухає Redis Pub/Sub.
// Кожна кімната має власний канал; хаб підписаний на всі одразу, тож
// повідомлення, опубліковані іншим екземпляром сервера, теж доставляються
// локальним підписникам.
func (m *ManagerService) StartPubSubListener() {
	pubsub := m.Storage.SubscribeEvents()
	if pubsub == nil {
		return // Без Redis (наприклад, у тестах) — події йдуть напряму через PubSubCh
	}

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("Error unmarshalling pub/sub event: %v", err)
				continue
			}

			m.PubSubCh <- TopicEvent{
				Topic: storage.TopicFromChannel(msg.Channel),
				Event: ev,
			}
		}
	}()
}
