package http

import (
	"errors"
	"net/http"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
)

// RecipeHandler serves GET /feed/recipes/{id}, returning the merged
// ScrollRecipe (defaults overlaid with the user's recipe file) that
// {id}'s scroll sessions currently run against.
type RecipeHandler struct {
	RecipeFor func(userID string) entity.ScrollRecipe
}

func (h *RecipeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("recipe id is required"))
		return
	}
	respond.JSON(w, http.StatusOK, h.RecipeFor(userID))
}

// QueriesHandler serves GET /feed/recipes/{id}/queries, returning the
// query configs the recipe at {id} enables across all tiers.
type QueriesHandler struct {
	ConfigsFor func(userID string) []entity.QueryConfig
}

func (h *QueriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("recipe id is required"))
		return
	}
	respond.JSON(w, http.StatusOK, h.ConfigsFor(userID))
}
