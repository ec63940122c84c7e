package notify

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Dispatcher publishes family events to connected WebSocket clients and,
// fire-and-forget, to any webhook URLs the family registered.
type Dispatcher struct {
	hub    *Hub
	db     *sql.DB
	client *http.Client
}

func NewDispatcher(hub *Hub, dbx *sql.DB) *Dispatcher {
	return &Dispatcher{
		hub: hub,
		db:  dbx,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (d *Dispatcher) Publish(familyID int, eventType string, payload any) {
	evt := NewEvent(eventType, payload)
	d.hub.Broadcast(familyID, evt)
	go d.postWebhooks(familyID, evt)
}

func (d *Dispatcher) postWebhooks(familyID int, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT url FROM webhooks WHERE family_id = $1
	`, familyID)
	if err != nil {
		log.Println("notify: webhook lookup:", err)
		return
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return
		}
		urls = append(urls, url)
	}
	if rows.Err() != nil || len(urls) == 0 {
		return
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return
	}

	for _, url := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-TaskTracker-Event", evt.Type)

		res, err := d.client.Do(req)
		if err != nil {
			log.Println("notify: webhook post failed:", err)
			continue
		}
		res.Body.Close()
	}
}
