package exist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

func testCreds() ports.Credentials {
	return ports.Credentials{
		AccountID:   "exist:testuser",
		TokenType:   "Bearer",
		AccessToken: "access-1",
	}
}

func TestClient_Habits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attributes/", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 4,
			"next":  nil,
			"results": []map[string]any{
				{"name": "water_plants", "label": "a habit 3p7 water the plants", "active": true, "manual": true},
				{"name": "stretch", "label": "habit 7p7 morning stretch", "active": true, "manual": true},
				{"name": "steps", "label": "Steps", "active": true, "manual": false},
				{"name": "mood", "label": "Mood", "active": true, "manual": true},
			},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})

	habits, err := client.Habits(context.Background(), testCreds())

	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "water_plants", habits[0].ItemID)
	assert.Equal(t, "Water The Plants", habits[0].Title)
	assert.Equal(t, "Morning Stretch", habits[1].Title)
	assert.Equal(t, "exist:testuser", habits[0].AccountID)
}

func TestClient_Habits_Pagination(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/attributes/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 2,
			"next":  server.URL + "/attributes/page2/",
			"results": []map[string]any{
				{"name": "habit_one", "label": "habit 1r first habit"},
			},
		})
	})
	mux.HandleFunc("/attributes/page2/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 2,
			"next":  nil,
			"results": []map[string]any{
				{"name": "habit_two", "label": "habit d1-5 second habit"},
			},
		})
	})

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})

	habits, err := client.Habits(context.Background(), testCreds())

	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "First Habit", habits[0].Title)
	assert.Equal(t, "Second Habit", habits[1].Title)
}

func TestClient_Habits_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid token"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})

	_, err := client.Habits(context.Background(), testCreds())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exist returned 401")
}
