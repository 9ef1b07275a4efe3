package catalog

import (
	"time"

	"github.com/veotube/backend/internal/models"
)

// SeedVideos returns the example catalog shown to a fresh session. The
// timestamps are relative to now so the seeds always fall in the "today" bucket.
func SeedVideos(now time.Time) []models.Video {
	ms := now.UnixMilli()
	return []models.Video{
		{
			ID:           "1",
			URL:          "https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerJoyrides.mp4",
			ThumbnailURL: "https://images.unsplash.com/photo-1464822759023-fed622ff2c3b?q=80&w=2070&auto=format&fit=crop",
			Prompt:       "Uma viagem cinematográfica pelas montanhas",
			Description:  "Explore as paisagens mais incríveis das montanhas rochosas neste vídeo 4K.",
			Format:       models.FormatLandscape,
			Status:       models.StatusCompleted,
			CreatedAt:    ms,
			Likes:        1205,
			Views:        "12K",
			Author:       "TravelBot",
			AuthorID:     "bot1",
		},
		{
			ID:           "2",
			URL:          "https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
			ThumbnailURL: "https://images.unsplash.com/photo-1542435503-956c469947f6?q=80&w=1974&auto=format&fit=crop",
			Prompt:       "Cena de ação rápida com efeitos especiais",
			Description:  "Bastidores de como criamos esses efeitos especiais usando apenas IA.",
			AffiliateLink: &models.AffiliateLink{
				URL:   "https://example.com/curso-vfx",
				Label: "Aprenda VFX",
			},
			Format:    models.FormatLandscape,
			Status:    models.StatusCompleted,
			CreatedAt: ms - 100_000,
			Likes:     850,
			Views:     "8.5K",
			Author:    "ActionAI",
			AuthorID:  "bot2",
		},
		{
			ID:          "4",
			URL:         "https://storage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
			Prompt:      "Animação surreal de sonhos",
			Description: "Já sonhou com elefantes voadores? Essa animação foi gerada inteiramente a partir de um sonho que tive.",
			Format:      models.FormatShort,
			Status:      models.StatusCompleted,
			CreatedAt:   ms - 50_000,
			Likes:       5600,
			Views:       "100K",
			Author:      "DreamGen",
			AuthorID:    "bot3",
		},
	}
}
