package catalog

import "github.com/veotube/backend/internal/models"

// SeedCourses returns the fixed listing of the courses portal.
func SeedCourses() []models.Course {
	return []models.Course{
		{
			ID:         "c1",
			Title:      "Dominando Edição de Vídeo com IA",
			Instructor: "Alex Silva",
			Duration:   "12h",
			Modules:    24,
			Thumbnail:  "https://images.unsplash.com/photo-1574717024653-61fd2cf4d44d?q=80&w=2070&auto=format&fit=crop",
			Progress:   45,
		},
		{
			ID:         "c2",
			Title:      "Marketing de Conteúdo para Shorts",
			Instructor: "Julia Costa",
			Duration:   "8h",
			Modules:    15,
			Thumbnail:  "https://images.unsplash.com/photo-1460925895917-afdab827c52f?q=80&w=2015&auto=format&fit=crop",
			Progress:   0,
		},
		{
			ID:         "c3",
			Title:      "Design de Miniaturas Atraentes",
			Instructor: "Marco Polo",
			Duration:   "5h",
			Modules:    10,
			Thumbnail:  "https://images.unsplash.com/photo-1542744094-3a31f272c490?q=80&w=2070&auto=format&fit=crop",
			Progress:   100,
		},
	}
}

// SeedEpisodes returns the fixed podcast listing, newest first.
func SeedEpisodes() []models.Episode {
	return []models.Episode{
		{
			ID:          "e1",
			Title:       "O Futuro da Inteligência Artificial nos Vídeos",
			Show:        "VeoTalks",
			Duration:    "45min",
			Date:        "Hoje",
			Cover:       "https://images.unsplash.com/photo-1478737270239-2fccd2c78621?q=80&w=2070&auto=format&fit=crop",
			Description: "Neste episódio discutimos como os novos modelos de IA estão mudando a forma como consumimos conteúdo.",
		},
		{
			ID:          "e2",
			Title:       "Como monetizar seu canal em 2024",
			Show:        "Criadores Prime",
			Duration:    "32min",
			Date:        "Ontem",
			Cover:       "https://images.unsplash.com/photo-1590602847861-f357a9332bbc?q=80&w=2070&auto=format&fit=crop",
			Description: "Dicas práticas de quem já vive do YouTube e agora está no VeoTube.",
		},
		{
			ID:          "e3",
			Title:       "Especial: Entrevista com Sam Altman",
			Show:        "Tech Insight",
			Duration:    "1h 12min",
			Date:        "3 dias atrás",
			Cover:       "https://images.unsplash.com/photo-1557426272-fc759fbb7a8d?q=80&w=2070&auto=format&fit=crop",
			Description: "Uma conversa profunda sobre o rumo da humanidade com o CEO da OpenAI.",
		},
	}
}
