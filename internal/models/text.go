package models

import (
	"encoding/json"
	"time"

	"smartcopy/internal/domain"

	"gorm.io/gorm"
)

// GenerationArtifacts is the typed form of the Text.Content blob. It is
// (de)serialized at the model boundary so callers never parse raw JSON.
type GenerationArtifacts struct {
	GeneratedContent string     `json:"generatedContent,omitempty"`
	GoogleQuery      string     `json:"googleQuery,omitempty"`
	SelectedSources  []string   `json:"selectedSources,omitempty"`
	ScrapedContent   []string   `json:"scrapedContent,omitempty"`
	LastEditedAt     *time.Time `json:"lastEditedAt,omitempty"`
	EditedBy         string     `json:"editedBy,omitempty"`
}

// Text is one commissioned piece of content inside an Order. The driver
// mutates its generation-state fields stage by stage; WriterPrompts and
// WriterResponses are index-aligned JSON arrays and must stay equal length.
type Text struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OrderID    uint       `gorm:"not null;index" json:"order_id"`
	Topic      string     `gorm:"size:512;not null" json:"topic"`
	Length     int        `gorm:"not null" json:"length"` // target character count
	Pages      int        `gorm:"not null;default:1" json:"pages"`
	Language   string     `gorm:"size:10;not null" json:"language"`
	TextType   string     `gorm:"size:32;not null" json:"text_type"`
	PriceCents int64      `gorm:"not null" json:"price_cents"`
	Progress   string     `gorm:"size:20;index" json:"progress"` // stage name, completed, or failed
	StartTime  *time.Time `json:"start_time"`

	Content string `gorm:"type:longtext" json:"-"` // GenerationArtifacts JSON

	QueryPrompt       string `gorm:"type:text" json:"query_prompt"`
	QueryResponse     string `gorm:"type:text" json:"query_response"`
	SelectPrompt      string `gorm:"type:text" json:"select_prompt"`
	SelectResponse    string `gorm:"type:text" json:"select_response"`
	StructurePrompt   string `gorm:"type:text" json:"structure_prompt"`
	StructureResponse string `gorm:"type:text" json:"structure_response"`
	WriterPrompts     string `gorm:"type:longtext" json:"-"` // JSON array
	WriterResponses   string `gorm:"type:longtext" json:"-"` // JSON array

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Text) TableName() string {
	return "texts"
}

func (t *Text) IsCompleted() bool { return t.Progress == domain.StageCompleted }
func (t *Text) IsTerminal() bool {
	switch t.Progress {
	case domain.StageCompleted, domain.StageFailed, domain.StageCancelled:
		return true
	}
	return false
}

// Artifacts decodes the Content blob. An empty or corrupt blob decodes to a
// zero value so callers can always merge-and-save.
func (t *Text) Artifacts() GenerationArtifacts {
	var a GenerationArtifacts
	if t.Content != "" {
		_ = json.Unmarshal([]byte(t.Content), &a)
	}
	return a
}

func (t *Text) SetArtifacts(a GenerationArtifacts) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	t.Content = string(b)
	return nil
}

func (t *Text) WriterPromptList() []string   { return decodeStringList(t.WriterPrompts) }
func (t *Text) WriterResponseList() []string { return decodeStringList(t.WriterResponses) }

// AppendWriterPass stores a prompt/response pair. Pairs are only ever written
// together, which keeps the two arrays index-aligned at every persist.
func (t *Text) AppendWriterPass(prompt, response string) error {
	prompts := append(t.WriterPromptList(), prompt)
	responses := append(t.WriterResponseList(), response)
	pb, err := json.Marshal(prompts)
	if err != nil {
		return err
	}
	rb, err := json.Marshal(responses)
	if err != nil {
		return err
	}
	t.WriterPrompts = string(pb)
	t.WriterResponses = string(rb)
	return nil
}

func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	_ = json.Unmarshal([]byte(s), &list)
	return list
}
