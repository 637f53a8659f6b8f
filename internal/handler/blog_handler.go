package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"smartcopy/internal/models"
	"smartcopy/internal/repository"
	"smartcopy/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BlogHandler struct {
	blogRepo *repository.BlogRepository
	cloud    cloudinary.Client
}

func NewBlogHandler(blogRepo *repository.BlogRepository, cloud cloudinary.Client) *BlogHandler {
	return &BlogHandler{blogRepo: blogRepo, cloud: cloud}
}

// ListPublished handles GET /api/v1/blog.
func (h *BlogHandler) ListPublished(c *gin.Context) {
	page, limit := parsePagination(c)
	posts, total, err := h.blogRepo.ListPublished(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": posts, "total": total, "page": page, "limit": limit})
}

// GetBySlug handles GET /api/v1/blog/:slug and bumps the view counter.
func (h *BlogHandler) GetBySlug(c *gin.Context) {
	p, err := h.blogRepo.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type BlogPostRequest struct {
	Slug       string `json:"slug"`
	Title      string `json:"title" binding:"required"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	Status     string `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	CoverImage string `json:"cover_image"`
	Author     string `json:"author"`
}

// AdminCreate handles POST /admin/blog.
func (h *BlogHandler) AdminCreate(c *gin.Context) {
	var req BlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	status := req.Status
	if status == "" {
		status = "DRAFT"
	}
	p := &models.BlogPost{
		Slug:       slug,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Status:     status,
		CoverImage: req.CoverImage,
		Author:     req.Author,
	}
	if err := h.blogRepo.Create(p); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// AdminList handles GET /admin/blog with optional status filter.
func (h *BlogHandler) AdminList(c *gin.Context) {
	page, limit := parsePagination(c)
	posts, total, err := h.blogRepo.ListAll(c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": posts, "total": total, "page": page, "limit": limit})
}

// AdminUpdate handles PATCH /admin/blog/:id.
func (h *BlogHandler) AdminUpdate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.blogRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	var req struct {
		Slug       *string `json:"slug"`
		Title      *string `json:"title"`
		Excerpt    *string `json:"excerpt"`
		Content    *string `json:"content"`
		Status     *string `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
		CoverImage *string `json:"cover_image"`
		Author     *string `json:"author"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Slug != nil {
		p.Slug = *req.Slug
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Excerpt != nil {
		p.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.CoverImage != nil {
		p.CoverImage = *req.CoverImage
	}
	if req.Author != nil {
		p.Author = *req.Author
	}
	if err := h.blogRepo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// AdminDelete handles DELETE /admin/blog/:id.
func (h *BlogHandler) AdminDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.blogRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if err := h.blogRepo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UploadCover handles POST /admin/blog/upload-cover (multipart field "file").
func (h *BlogHandler) UploadCover(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads not configured"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()
	publicID := fmt.Sprintf("cover_%d", time.Now().UnixNano())
	url, thumb, err := h.cloud.UploadImage(c.Request.Context(), f, "blog", publicID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "thumbnail_url": thumb})
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a title into a URL-safe slug.
func Slugify(title string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
