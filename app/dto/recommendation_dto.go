package dto

// ListRecommendationsRequest represents filter criteria for recommendations
type ListRecommendationsRequest struct {
	UserID   uint    `json:"-"`
	Month    *string `json:"-"`
	Limit    int     `json:"-"`
	Category *string `json:"-" validate:"omitempty,oneof=energy transport lifestyle water"`
	Impact   *string `json:"-" validate:"omitempty,oneof=high medium low"`
}

// RecommendationDTO represents one emission-reduction suggestion
type RecommendationDTO struct {
	ID              uint    `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Impact          string  `json:"impact"`
	PotentialSaving float64 `json:"potential_saving"`
}

// ListRecommendationsResponse represents recommendations ordered by relevance
// to the user's dominant emission group for the month
type ListRecommendationsResponse struct {
	Items            []RecommendationDTO `json:"items"`
	DominantCategory string              `json:"dominant_category,omitempty"`
}
