package models

import (
	"testing"
	"time"
)

func TestArtifactsRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	text := &Text{}
	a := GenerationArtifacts{
		GeneratedContent: "<p>hello</p>",
		GoogleQuery:      "best coffee machines 2024",
		SelectedSources:  []string{"https://a.example", "https://b.example"},
		ScrapedContent:   []string{"source one text"},
		LastEditedAt:     &now,
		EditedBy:         "admin",
	}
	if err := text.SetArtifacts(a); err != nil {
		t.Fatalf("SetArtifacts: %v", err)
	}
	got := text.Artifacts()
	if got.GeneratedContent != a.GeneratedContent {
		t.Errorf("GeneratedContent = %q, want %q", got.GeneratedContent, a.GeneratedContent)
	}
	if got.GoogleQuery != a.GoogleQuery {
		t.Errorf("GoogleQuery = %q, want %q", got.GoogleQuery, a.GoogleQuery)
	}
	if len(got.SelectedSources) != 2 || got.SelectedSources[0] != "https://a.example" {
		t.Errorf("SelectedSources = %v", got.SelectedSources)
	}
	if got.EditedBy != "admin" || got.LastEditedAt == nil || !got.LastEditedAt.Equal(now) {
		t.Errorf("edit metadata = %q / %v", got.EditedBy, got.LastEditedAt)
	}
}

func TestArtifactsEmptyBlob(t *testing.T) {
	text := &Text{}
	a := text.Artifacts()
	if a.GeneratedContent != "" || a.SelectedSources != nil {
		t.Errorf("empty blob should decode to zero value, got %+v", a)
	}
}

func TestAppendWriterPassKeepsArraysAligned(t *testing.T) {
	text := &Text{}
	passes := []struct{ prompt, response string }{
		{"write section 1", "<p>one</p>"},
		{"write section 2", "<p>two</p>"},
		{"write section 3", "<p>three</p>"},
	}
	for i, p := range passes {
		if err := text.AppendWriterPass(p.prompt, p.response); err != nil {
			t.Fatalf("AppendWriterPass: %v", err)
		}
		prompts := text.WriterPromptList()
		responses := text.WriterResponseList()
		if len(prompts) != len(responses) {
			t.Fatalf("after pass %d: %d prompts, %d responses", i+1, len(prompts), len(responses))
		}
		if len(prompts) != i+1 {
			t.Fatalf("after pass %d: got %d prompts", i+1, len(prompts))
		}
	}
	prompts := text.WriterPromptList()
	responses := text.WriterResponseList()
	for i := range passes {
		if prompts[i] != passes[i].prompt || responses[i] != passes[i].response {
			t.Errorf("pass %d: got %q/%q", i, prompts[i], responses[i])
		}
	}
}
