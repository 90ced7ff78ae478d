package evol

import (
	"fmt"
	"strings"
)

func seedPrompt(content string, limit int) string {
	return fmt.Sprintf(`Based on this document, generate one clear, specific question that can be answered using the information provided.

Document content:
%s

Requirements:
- Question should be specific and answerable from the document
- Avoid yes/no questions
- Focus on key information or concepts
- Keep it concise but meaningful

Question:`, truncate(content, limit))
}

func simplePrompt(question, operation string) string {
	return fmt.Sprintf(`You are an expert at evolving questions to make them more sophisticated and challenging.

Original question: %s

Task: %s

Requirements:
- The evolved question should still be answerable from the original document context
- Make it more sophisticated but not impossible to answer
- Maintain clarity while adding complexity
- Don't change the core topic, just make it more challenging

Evolved question:`, question, fmt.Sprintf(operation, question))
}

func multiContextPrompt(question string, docs []Document, limit int) string {
	var parts []string
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("Document %d: %s", i+1, truncate(doc.Content, limit)))
	}
	combined := strings.Join(parts, "\n\n")

	return fmt.Sprintf(`You are creating questions that require synthesizing information from multiple documents.

Base question: %s

Available document contexts:
%s

Create a new question that:
- Requires information from at least 2 different documents
- Asks for comparison, connection, or synthesis across documents
- Is more complex than the original question
- Can still be answered using the provided documents

Examples of multi-context questions:
- "How do the requirements in Document 1 relate to the processes described in Document 2?"
- "Compare and contrast the approaches described in Documents 1 and 2"
- "What are the implications of Document 1's policies for the scenarios in Document 2?"

Multi-context question:`, question, combined)
}

// multiAspectPrompt is the single-document fallback for multi-context
// evolution: same output type, depth within one document instead of
// synthesis across several.
func multiAspectPrompt(question string) string {
	return fmt.Sprintf(`Create a more complex question that examines multiple aspects of the topic.

Original question: %s

Transform this into a question that:
- Examines multiple facets or aspects of the topic
- Requires connecting different concepts within the document
- Is more comprehensive and analytical

Multi-aspect question:`, question)
}

func reasoningPrompt(question string) string {
	return fmt.Sprintf(`Transform this question to require logical reasoning, cause-effect analysis, or inferential thinking.

Original question: %s

Create a reasoning question that:
- Requires "if-then" logical analysis
- Asks for cause and effect relationships
- Involves problem-solving or strategic thinking
- Requires inference beyond direct facts
- Uses scenario-based reasoning

Examples:
- "If [condition X] occurs, what would be the implications for [outcome Y], and how should one respond?"
- "Given [constraints A and B], what approach would you recommend for [situation C] and why?"
- "What are the potential consequences of [action X], and how might they affect [stakeholder Y]?"

Reasoning question:`, question)
}

func answerPrompt(question string, docs []Document, limit int) string {
	var parts []string
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("Document %d:\n%s", i+1, doc.Content))
	}
	// The combined context is bounded as a whole so prompts stay within a
	// predictable size regardless of document count.
	combined := truncate(strings.Join(parts, "\n\n"), limit)

	return fmt.Sprintf(`Answer the following question based on the provided document context. Be comprehensive, accurate, and well-structured.

Context:
%s

Question: %s

Instructions:
- Answer based only on the information provided in the context
- Be thorough and provide detailed explanations
- If the question requires reasoning, show your logical steps
- If information is not available, state that clearly
- Structure your answer clearly with appropriate paragraphs

Answer:`, combined, question)
}
