// internal/domain/recommend/entity.go
package recommend

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// ItemSimilarity is one directed edge of the co-occurrence model. The
// model is symmetric; both directions are stored so lookups by either
// product stay a single indexed query.
type ItemSimilarity struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uint      `gorm:"not null;uniqueIndex:idx_similarity_pair" json:"product_id"`
	SimilarProductID uint      `gorm:"not null;uniqueIndex:idx_similarity_pair" json:"similar_product_id"`
	Score            float64   `gorm:"not null" json:"score"`
	ModelVersion     string    `gorm:"not null;size:20" json:"model_version"`
	CreatedAt        time.Time `json:"created_at"`

	// Relationships
	SimilarProduct *product.Product `gorm:"foreignKey:SimilarProductID" json:"similar_product,omitempty"`
}

// UserRecommendation is one materialized ranked suggestion for a user
type UserRecommendation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ProductID    uint      `gorm:"not null" json:"product_id"`
	Rank         int       `gorm:"not null" json:"rank"`
	Score        float64   `gorm:"not null" json:"score"`
	ModelVersion string    `gorm:"not null;size:20" json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Product *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides
func (ItemSimilarity) TableName() string     { return "item_similarities" }
func (UserRecommendation) TableName() string { return "user_recommendations" }
