package handler

import (
	"time"

	"smartcopy/internal/models"
	"smartcopy/internal/pipeline"

	"github.com/gin-gonic/gin"
)

// textView renders a text for API responses. progress_percent is the
// elapsed-time estimate, not a measured ratio; see pipeline.EstimateProgress.
func textView(t *models.Text, now time.Time) gin.H {
	a := t.Artifacts()
	return gin.H{
		"id":                t.ID,
		"order_id":          t.OrderID,
		"topic":             t.Topic,
		"length":            t.Length,
		"pages":             t.Pages,
		"language":          t.Language,
		"text_type":         t.TextType,
		"price_cents":       t.PriceCents,
		"progress":          t.Progress,
		"progress_percent":  pipeline.EstimateProgress(t.Progress, t.StartTime, t.Length, now),
		"start_time":        t.StartTime,
		"generated_content": a.GeneratedContent,
		"last_edited_at":    a.LastEditedAt,
		"edited_by":         a.EditedBy,
		"created_at":        t.CreatedAt,
		"updated_at":        t.UpdatedAt,
	}
}

// textDetailView adds the generation audit trail for admin views.
func textDetailView(t *models.Text, now time.Time) gin.H {
	v := textView(t, now)
	a := t.Artifacts()
	v["google_query"] = a.GoogleQuery
	v["selected_sources"] = a.SelectedSources
	v["scraped_content"] = a.ScrapedContent
	v["query_prompt"] = t.QueryPrompt
	v["query_response"] = t.QueryResponse
	v["select_prompt"] = t.SelectPrompt
	v["select_response"] = t.SelectResponse
	v["structure_prompt"] = t.StructurePrompt
	v["structure_response"] = t.StructureResponse
	v["writer_prompts"] = t.WriterPromptList()
	v["writer_responses"] = t.WriterResponseList()
	return v
}

func orderView(o *models.Order, now time.Time) gin.H {
	texts := make([]gin.H, 0, len(o.Texts))
	for i := range o.Texts {
		texts = append(texts, textView(&o.Texts[i], now))
	}
	return gin.H{
		"id":                o.ID,
		"order_number":      o.OrderNumber,
		"user_id":           o.UserID,
		"status":            o.Status,
		"total_price_cents": o.TotalPriceCents,
		"notes":             o.Notes,
		"texts":             texts,
		"created_at":        o.CreatedAt,
		"updated_at":        o.UpdatedAt,
	}
}
