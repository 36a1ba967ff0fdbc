package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/kdimtricp/thumbstudio/internal/models"
)

// MaxChannelVideos is the number of most recent uploads listed per channel.
const MaxChannelVideos = 50

// Sentinel errors for channel listing.
var (
	ErrMissingAPIKey     = errors.New("youtube: API key is missing")
	ErrInvalidChannelRef = errors.New("youtube: invalid channel URL")
	ErrChannelNotFound   = errors.New("youtube: channel not found")
	ErrSearchFailed      = errors.New("youtube: channel search failed")
	ErrChannelDetails    = errors.New("youtube: failed to retrieve channel details")
	ErrListFailed        = errors.New("youtube: failed to retrieve video list")
)

var channelIDPattern = regexp.MustCompile(`(?:channel/)?(UC[\w-]{22})`)

// ChannelLister resolves a channel reference and lists its latest uploads
// through the YouTube Data API v3.
type ChannelLister struct {
	service *yt.Service
	limiter *rate.Limiter
}

// NewChannelLister creates a lister authenticated with apiKey. Calls to the
// API are paced at rps requests per second.
func NewChannelLister(ctx context.Context, apiKey string, rps float64, opts ...option.ClientOption) (*ChannelLister, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if rps <= 0 {
		rps = 5
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &ChannelLister{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// ResolveAndList returns up to MaxChannelVideos of the channel's uploads,
// newest first. A channel without uploads yields an empty slice and no error.
func (l *ChannelLister) ResolveAndList(ctx context.Context, ref string) ([]models.VideoRecord, error) {
	channelID, err := l.resolveChannelID(ctx, ref)
	if err != nil {
		return nil, err
	}

	uploads, err := l.uploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	records, err := l.listUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	log.Printf("youtube: listed %d videos for channel %s", len(records), channelID)
	return records, nil
}

// ChannelSearchTerm splits a channel reference into either a channel ID or
// the name to search for.
func ChannelSearchTerm(ref string) (channelID, query string, err error) {
	input := strings.TrimSpace(ref)
	if m := channelIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], "", nil
	}

	query = input
	if strings.Contains(query, "youtube.com/") || strings.Contains(query, "youtu.be/") {
		if i := strings.IndexAny(query, "?#"); i >= 0 {
			query = query[:i]
		}
		var parts []string
		for _, p := range strings.Split(query, "/") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		query = ""
		if len(parts) > 0 {
			query = parts[len(parts)-1]
		}
	}

	if query == "" {
		return "", "", ErrInvalidChannelRef
	}
	return "", query, nil
}

func (l *ChannelLister) resolveChannelID(ctx context.Context, ref string) (string, error) {
	channelID, query, err := ChannelSearchTerm(ref)
	if err != nil || channelID != "" {
		return channelID, err
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := l.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSearchFailed, apiMessage(err))
	}

	for _, item := range resp.Items {
		if item.Snippet != nil && item.Snippet.ChannelId != "" {
			return item.Snippet.ChannelId, nil
		}
		if item.Id != nil && item.Id.ChannelId != "" {
			return item.Id.ChannelId, nil
		}
	}
	return "", ErrChannelNotFound
}

func (l *ChannelLister) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := l.service.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrChannelDetails, apiMessage(err))
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: channel %s", ErrChannelNotFound, channelID)
	}

	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: no uploads playlist", ErrChannelDetails)
	}
	return details.RelatedPlaylists.Uploads, nil
}

func (l *ChannelLister) listUploads(ctx context.Context, playlistID string) ([]models.VideoRecord, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := l.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(MaxChannelVideos).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrListFailed, apiMessage(err))
	}

	records := make([]models.VideoRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippet := item.Snippet
		if snippet == nil || snippet.ResourceId == nil || snippet.ResourceId.VideoId == "" {
			continue
		}

		rec := models.NewVideoRecord(snippet.ResourceId.VideoId, snippet.Title)
		if thumb := bestThumbnail(snippet.Thumbnails); thumb != "" {
			rec.ThumbnailURL = thumb
		}
		records = append(records, rec)
	}
	return records, nil
}

// bestThumbnail picks the highest resolution the API reports.
func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func apiMessage(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return err.Error()
}

// UserMessage converts a listing error into the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "YouTube API key is not configured. Set YOUTUBE_API_KEY."
	case errors.Is(err, ErrInvalidChannelRef):
		return "Invalid channel URL."
	case errors.Is(err, ErrChannelNotFound):
		return "Channel not found on YouTube. Please check the URL."
	case errors.Is(err, ErrSearchFailed), errors.Is(err, ErrChannelDetails), errors.Is(err, ErrListFailed):
		return strings.TrimPrefix(err.Error(), "youtube: ")
	case err != nil:
		return "Failed to fetch channel information: " + err.Error()
	}
	return ""
}
