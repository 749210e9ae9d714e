package openai

import "fmt"

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

const (
	introInstruction = `Begin with a phrase like "Welcome to our presentation on evaluating the effectiveness of a tool" before continuing the explanation.`

	continuationInstruction = `Start the explanation immediately without any welcome phrase or introduction. Continue naturally as if the content is a direct continuation from the previous page. Do not use phrases like "It seems like" or "So you are working".`
)

// BuildMessages assembles the lecturer system frame plus the page text.
// Page 1 gets an introductory framing; later pages are told to continue
// without reintroduction.
func BuildMessages(style string, pageNumber int, pageText string) []Message {
	position := continuationInstruction
	if pageNumber <= 1 {
		position = introInstruction
	}

	system := fmt.Sprintf(`You are an expert lecturer. Explain the content clearly and in %s style. %s
First, determine whether the provided text is from a lecture or from an assignment.
If it is from a lecture PDF, explain it in a way that helps the audience understand the concepts clearly.
If it is from an assignment, guide the reader step-by-step on how to approach and complete the assignment.
Do not use markdown or special formatting like tables, bold (**), headings (##), or bullet points (- or *). Write only clean, plain text.`, style, position)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: pageText},
	}
}
