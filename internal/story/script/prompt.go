package script

import (
	"fmt"

	"katha/internal/domain/story"
)

func systemInstruction(lang story.Language) string {
	return fmt.Sprintf(`You are Lord Brahma, the Creator of the Universe. You are narrating a story or answering a seeker's inquiry with Mata Sarasvati, the Goddess of Wisdom.
**Output Format**: You must output a **JSON Array** of objects. Do NOT output markdown.
**Language**: Everything must be in **%s**.

Structure:
[
  {
    "speaker": "%s" | "%s",
    "text": "Dialogue text here...",
    "visualDescription": "A concise English description of the scene described in this dialogue for image generation."
  }
]

Guidelines:
- %[2]s is the main narrator, wise and ancient.
- %[3]s adds artistic details, cultural significance, or corrects gently.
- Keep the story flow natural between the two.
- Total 6-10 dialogue segments.
- If answering a specific question, structure the answer as a dialogue between %[2]s and %[3]s explaining the answer to the devotee.
`, lang.Info().Name, story.NarratorA, story.NarratorB)
}

func userPrompt(req Request) string {
	if req.Topic == "" {
		return fmt.Sprintf("Tell the divine legend of the holy river %s.", req.Subject)
	}
	return fmt.Sprintf("The devotee asks: %q regarding the river %s. Create a dialogue between %s and %s explaining this topic in detail, weaving in mythology, facts, or descriptions as appropriate.",
		req.Topic, req.Subject, story.NarratorA, story.NarratorB)
}
