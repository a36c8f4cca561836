package models

import "github.com/tbenoist/harmonia/internal/locale"

// Question is multilingual reference data, read-only to this core; the
// administrative import tooling owns mutation. Number identifies the
// question across the whole questionnaire; Type is language-independent.
type Question struct {
	Number       int
	Type         string
	Text         locale.Strings
	Bloc         locale.Strings
	Module       locale.Strings
	Options      locale.Lists
	Annotation   locale.Strings
	CommentLabel locale.Strings
}

// LocalizedQuestion is a Question flattened into one locale with the
// standard fallback applied to every field.
type LocalizedQuestion struct {
	Number       int      `json:"number"`
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Bloc         string   `json:"bloc"`
	Module       string   `json:"module"`
	Options      []string `json:"options,omitempty"`
	Annotation   string   `json:"annotation,omitempty"`
	CommentLabel string   `json:"comment_label,omitempty"`
}

// Localize resolves every multilingual field for the requested locale.
func (q *Question) Localize(requested string) LocalizedQuestion {
	return LocalizedQuestion{
		Number:       q.Number,
		Type:         q.Type,
		Text:         q.Text.Resolve(requested),
		Bloc:         q.Bloc.Resolve(requested),
		Module:       q.Module.Resolve(requested),
		Options:      q.Options.Resolve(requested),
		Annotation:   q.Annotation.Resolve(requested),
		CommentLabel: q.CommentLabel.Resolve(requested),
	}
}
