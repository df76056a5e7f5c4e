package application

import (
	"math"

	"grounded/forum/domain"
)

// BaselineCredibility é a credibilidade de quem ainda não postou no tópico.
const BaselineCredibility = 75

// AverageCredibility é a média (arredondada, .5 para cima) da confiança dos
// posts do autor. Sem posts do autor devolve BaselineCredibility.
func AverageCredibility(posts []domain.Post, actorID string) int {
	sum, n := 0, 0
	for _, p := range posts {
		if p.Author.ID != actorID {
			continue
		}
		sum += p.Confidence
		n++
	}
	if n == 0 {
		return BaselineCredibility
	}
	return int(math.Floor(float64(sum)/float64(n) + 0.5))
}
