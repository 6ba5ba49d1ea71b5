package handler

import (
	"time"

	"github.com/propertypulse/backend/internal/model"
)

type PropertyResponse struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	PropertyType string `json:"propertyType"`
	ListingType  string `json:"listingType"`
	MonthlyRent  string `json:"monthlyRent,omitempty"`
	SalePrice    string `json:"salePrice,omitempty"`
	Available    bool   `json:"available"`
	LandlordID   uint64 `json:"landlordId"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toPropertyResponse(p *model.Property) PropertyResponse {
	return PropertyResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		PropertyType: string(p.PropertyType),
		ListingType:  string(p.ListingType),
		MonthlyRent:  p.MonthlyRent.String(),
		SalePrice:    p.SalePrice.String(),
		Available:    p.Available,
		LandlordID:   p.LandlordID,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPropertyResponses(list []model.Property) []PropertyResponse {
	resp := make([]PropertyResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPropertyResponse(&list[i]))
	}
	return resp
}
