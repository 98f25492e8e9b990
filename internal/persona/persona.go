package persona

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Persona is the person the agent speaks for, plus the context documents
// it answers from
type Persona struct {
	Name    string
	Summary string
	Bio     string
}

// Load reads the summary and bio documents. The summary is required, a
// missing bio file is tolerated. Either document may be plain text or a PDF
// (by .pdf extension), e.g. a LinkedIn profile export.
func Load(name, summaryPath, bioPath string) (*Persona, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("persona name is required")
	}

	summary, err := readDocument(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var bio []byte
	if bioPath != "" {
		bio, err = readDocument(bioPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read bio: %w", err)
		}
	}

	return &Persona{
		Name:    name,
		Summary: strings.TrimSpace(string(summary)),
		Bio:     strings.TrimSpace(string(bio)),
	}, nil
}

func readDocument(path string) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return os.ReadFile(path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}
	return buf.Bytes(), nil
}

// SystemPrompt is the base instruction for the answering model
func (p *Persona) SystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are acting as %s. You are answering questions on %s's website, ", p.Name, p.Name)
	fmt.Fprintf(&b, "particularly questions related to %s's career, background, skills and experience. ", p.Name)
	fmt.Fprintf(&b, "Your responsibility is to represent %s for interactions on the website as faithfully as possible. ", p.Name)
	fmt.Fprintf(&b, "You are given a summary of %s's background and profile which you can use to answer questions. ", p.Name)
	b.WriteString("Be professional and engaging, as if talking to a potential client or future employer who came across the website. ")
	b.WriteString("If you don't know the answer to any question, use your record_unknown_question tool to record the question that you couldn't answer, even if it's about something trivial or unrelated to career. ")
	b.WriteString("If the user is engaging in discussion, try to steer them towards getting in touch via email; ask for their email and record it using your record_user_details tool.")
	p.writeContext(&b)
	fmt.Fprintf(&b, "With this context, please chat with the user, always staying in character as %s.", p.Name)
	return b.String()
}

// EvaluatorPrompt instructs the judge model
func (p *Persona) EvaluatorPrompt() string {
	var b strings.Builder
	b.WriteString("You are an evaluator that decides whether a response to a question is acceptable. ")
	b.WriteString("You are provided with a conversation between a User and an Agent. Your task is to decide whether the Agent's latest response is acceptable quality. ")
	fmt.Fprintf(&b, "The Agent is playing the role of %s and is representing %s on their website. ", p.Name, p.Name)
	b.WriteString("The Agent has been instructed to be professional and engaging, as if talking to a potential client or future employer who came across the website. ")
	fmt.Fprintf(&b, "The Agent has been provided with context on %s in the form of their summary and profile details. Here's the information:", p.Name)
	p.writeContext(&b)
	b.WriteString("With this context, please evaluate the latest response, replying with whether the response is acceptable and your feedback.")
	return b.String()
}

func (p *Persona) writeContext(b *strings.Builder) {
	fmt.Fprintf(b, "\n\n## Summary:\n%s\n\n", p.Summary)
	if p.Bio != "" {
		fmt.Fprintf(b, "## Profile:\n%s\n\n", p.Bio)
	}
}
