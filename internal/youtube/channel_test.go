package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

const testChannelID = "UCuAXFkgsw1L7xaCfnd5JJOw"

func newTestLister(t *testing.T, handler http.HandlerFunc) *ChannelLister {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	lister, err := NewChannelLister(context.Background(), "test-key", 100,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("Failed to create lister: %v", err)
	}
	return lister
}

func fakeAPI(t *testing.T, searches *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			*searches++
			if q := r.URL.Query().Get("q"); q != "@somecreator" {
				t.Errorf("unexpected search query %q", q)
			}
			w.Write([]byte(`{"items":[{"snippet":{"channelId":"` + testChannelID + `"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/channels"):
			if id := r.URL.Query().Get("id"); id != testChannelID {
				t.Errorf("unexpected channel id %q", id)
			}
			w.Write([]byte(`{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUuploads"}}}]}`))
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			if max := r.URL.Query().Get("maxResults"); max != "50" {
				t.Errorf("expected maxResults=50, got %q", max)
			}
			w.Write([]byte(`{"items":[
				{"snippet":{"title":"Newest","resourceId":{"videoId":"aaaaaaaaaaa"},
					"thumbnails":{"high":{"url":"https://i.ytimg.com/vi/aaaaaaaaaaa/hqdefault.jpg"},
					"maxres":{"url":"https://i.ytimg.com/vi/aaaaaaaaaaa/maxresdefault.jpg"}}}},
				{"snippet":{"title":"Older","resourceId":{"videoId":"bbbbbbbbbbb"},
					"thumbnails":{"medium":{"url":"https://i.ytimg.com/vi/bbbbbbbbbbb/mqdefault.jpg"}}}},
				{"snippet":{"title":"Broken"}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func TestResolveAndListByHandle(t *testing.T) {
	searches := 0
	lister := newTestLister(t, fakeAPI(t, &searches))

	records, err := lister.ResolveAndList(context.Background(), "https://www.youtube.com/@somecreator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if searches != 1 {
		t.Errorf("expected one search call, got %d", searches)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].ID != "aaaaaaaaaaa" || records[0].Title != "Newest" {
		t.Errorf("unexpected first record %+v", records[0])
	}
	if records[0].ThumbnailURL != "https://i.ytimg.com/vi/aaaaaaaaaaa/maxresdefault.jpg" {
		t.Errorf("expected maxres thumbnail, got %s", records[0].ThumbnailURL)
	}
	if records[1].ThumbnailURL != "https://i.ytimg.com/vi/bbbbbbbbbbb/mqdefault.jpg" {
		t.Errorf("expected medium thumbnail, got %s", records[1].ThumbnailURL)
	}
	if !records[1].Selected {
		t.Error("listed records should start selected")
	}
}

func TestResolveAndListByChannelID(t *testing.T) {
	searches := 0
	lister := newTestLister(t, fakeAPI(t, &searches))

	if _, err := lister.ResolveAndList(context.Background(), "https://www.youtube.com/channel/"+testChannelID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searches != 0 {
		t.Errorf("channel IDs should not be searched, got %d searches", searches)
	}
}

func TestResolveAndListChannelNotFound(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	})

	_, err := lister.ResolveAndList(context.Background(), "@nobody")
	if !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
	if msg := UserMessage(err); !strings.Contains(msg, "Channel not found") {
		t.Errorf("unexpected user message %q", msg)
	}
}

func TestResolveAndListAPIError(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	})

	_, err := lister.ResolveAndList(context.Background(), "@somecreator")
	if !errors.Is(err, ErrSearchFailed) {
		t.Fatalf("expected ErrSearchFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected API message in error, got %v", err)
	}
}

func TestChannelSearchTerm(t *testing.T) {
	tests := []struct {
		input   string
		id      string
		query   string
		wantErr bool
	}{
		{testChannelID, testChannelID, "", false},
		{"https://www.youtube.com/channel/" + testChannelID + "/videos", testChannelID, "", false},
		{"https://www.youtube.com/@creator", "", "@creator", false},
		{"https://www.youtube.com/c/CustomName?view=0", "", "CustomName", false},
		{"@creator", "", "@creator", false},
		{"   ", "", "", true},
	}

	for _, tt := range tests {
		id, query, err := ChannelSearchTerm(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ChannelSearchTerm(%q) error = %v", tt.input, err)
			continue
		}
		if id != tt.id || query != tt.query {
			t.Errorf("ChannelSearchTerm(%q) = %q, %q; want %q, %q", tt.input, id, query, tt.id, tt.query)
		}
	}
}

func TestNewChannelListerRequiresKey(t *testing.T) {
	if _, err := NewChannelLister(context.Background(), "", 1); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
