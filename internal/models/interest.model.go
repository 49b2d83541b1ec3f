package models

import "sort"

type Interest struct {
	BaseModel
	Slug            string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
	Name            string `gorm:"type:varchar(100);not null"            json:"name"`
	Description     string `gorm:"type:text"                             json:"description,omitempty"`
	NewsAPICategory string `gorm:"column:newsapi_category;type:varchar(50);not null" json:"newsapi_category"`
	DisplayOrder    int    `gorm:"default:0"                             json:"display_order"`
}

// SortInterests orders interests by display order, then slug.
func SortInterests(interests []Interest) {
	sort.SliceStable(interests, func(i, j int) bool {
		if interests[i].DisplayOrder != interests[j].DisplayOrder {
			return interests[i].DisplayOrder < interests[j].DisplayOrder
		}
		return interests[i].Slug < interests[j].Slug
	})
}

var PredefinedInterests = []Interest{
	{Slug: "economics", Name: "Economics", NewsAPICategory: "business", DisplayOrder: 1,
		Description: "Markets, business and the economy"},
	{Slug: "politics", Name: "Politics", NewsAPICategory: "general", DisplayOrder: 2,
		Description: "Domestic politics and elections"},
	{Slug: "foreign-affairs", Name: "Foreign Affairs", NewsAPICategory: "general", DisplayOrder: 3,
		Description: "International relations and world events"},
	{Slug: "sports", Name: "Sports", NewsAPICategory: "sports", DisplayOrder: 4,
		Description: "Scores, leagues and athletes"},
	{Slug: "technology", Name: "Technology", NewsAPICategory: "technology", DisplayOrder: 5,
		Description: "Tech industry, products and research"},
	{Slug: "science", Name: "Science", NewsAPICategory: "science", DisplayOrder: 6,
		Description: "Scientific discoveries and research"},
	{Slug: "health", Name: "Health", NewsAPICategory: "health", DisplayOrder: 7,
		Description: "Medicine, wellness and public health"},
	{Slug: "entertainment", Name: "Entertainment", NewsAPICategory: "entertainment", DisplayOrder: 8,
		Description: "Film, music, television and culture"},
}
