package models

type Favorites struct {
	Favorites []Product `json:"favorites"`
}

type AddFavoriteRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type FavoriteStatus struct {
	ProductID string `json:"product_id"`
	Favorite  bool   `json:"favorite"`
}
