package repository

import (
	"time"

	"smartcopy/internal/domain"
	"smartcopy/internal/models"

	"gorm.io/gorm"
)

type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) Create(p *models.BlogPost) error {
	if p.Status == domain.BlogStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return r.db.Create(p).Error
}

func (r *BlogRepository) GetByID(id uint) (*models.BlogPost, error) {
	var p models.BlogPost
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BlogRepository) GetBySlug(slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	err := r.db.Where("slug = ?", slug).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPublishedBySlug also bumps the view counter; the increment is done in
// SQL so concurrent readers do not lose counts.
func (r *BlogRepository) GetPublishedBySlug(slug string) (*models.BlogPost, error) {
	var p models.BlogPost
	err := r.db.Where("slug = ? AND status = ?", slug, domain.BlogStatusPublished).First(&p).Error
	if err != nil {
		return nil, err
	}
	_ = r.db.Model(&p).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	p.ViewCount++
	return &p, nil
}

func (r *BlogRepository) ListPublished(page, limit int) ([]models.BlogPost, int64, error) {
	q := r.db.Model(&models.BlogPost{}).Where("status = ?", domain.BlogStatusPublished)
	var total int64
	q.Count(&total)
	var list []models.BlogPost
	err := q.Order("published_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *BlogRepository) ListAll(status string, page, limit int) ([]models.BlogPost, int64, error) {
	q := r.db.Model(&models.BlogPost{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.BlogPost
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *BlogRepository) Update(p *models.BlogPost) error {
	if p.Status == domain.BlogStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return r.db.Save(p).Error
}

func (r *BlogRepository) Delete(id uint) error {
	return r.db.Delete(&models.BlogPost{}, id).Error
}
