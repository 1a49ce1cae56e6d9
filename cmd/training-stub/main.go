// Command training-stub is a local stand-in for the remote voice training
// API, useful for development and manual testing against a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type trainResponse struct {
	ProfileID   string    `json:"profile_id"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

var processingDelay = flag.Duration("delay", 500*time.Millisecond, "Simulated training time")

func trainHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	userID := r.FormValue("user_id")
	model := r.FormValue("model")

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("TRAINING REQUEST RECEIVED:")
	log.Printf("  Name: %s", name)
	log.Printf("  User ID: %s", userID)
	log.Printf("  Model: %s", model)
	log.Printf("  Filename: %s", header.Filename)
	log.Printf("  Audio Size: %d bytes", len(audioData))
	log.Printf("  Authorization: %s", r.Header.Get("Authorization"))

	if len(audioData) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trainResponse{
			Status:      "failed",
			Message:     "empty audio asset",
			ProcessedAt: time.Now(),
		})
		return
	}

	// Simulate training time
	time.Sleep(*processingDelay)

	response := trainResponse{
		ProfileID:   "stub-" + uuid.NewString(),
		Status:      "ok",
		ProcessedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("TRAINING RESPONSE SENT: profile %s", response.ProfileID)
}

func main() {
	port := flag.Int("port", 9000, "Listen port")
	flag.Parse()

	http.HandleFunc("/train", trainHandler)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Training stub server starting on %s", addr)
	log.Printf("Endpoint: http://localhost%s/train", addr)
	log.Printf("Point training.endpoint at this URL in config.yaml")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
