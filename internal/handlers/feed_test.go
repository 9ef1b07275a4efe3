package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veotube/backend/internal/navigation"
)

func TestFeedStreamsCommittedFrames(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	srv := httptest.NewServer(h.mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/navigation/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first navigation.Frame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	if first.View != navigation.ViewSplash {
		t.Fatalf("expected splash frame first got %+v", first)
	}

	resp, err := http.Post(srv.URL+"/api/v1/navigation/ready", "application/json", nil)
	if err != nil {
		t.Fatalf("post ready: %v", err)
	}
	resp.Body.Close()

	for {
		var frame navigation.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if frame.Seq <= first.Seq {
			continue
		}
		if frame.View != navigation.ViewHome {
			t.Fatalf("expected home frame got %+v", frame)
		}
		return
	}
}
