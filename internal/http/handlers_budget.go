package http

import (
	"net/http"

	"budge/internal/core"
)

type budgetResponse struct {
	Message string      `json:"message,omitempty"`
	Budget  core.Budget `json:"budget"`
}

type categoryResponse struct {
	Message  string        `json:"message"`
	Category core.Category `json:"category"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.budgets.GetBudget(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(budgetResponse{Budget: budget}).Write(w)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range in.Categories {
		in.Categories[i].Name = sanitizeInput(in.Categories[i].Name)
	}

	budget, err := s.budgets.UpsertBudget(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.appMetrics.budgetsSaved.Add(1)

	NewJSONResponse().Body(budgetResponse{Budget: budget}).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.budgets.ListCategories(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	// ids are assigned by the store
	in.ID = ""
	in.Name = sanitizeInput(in.Name)

	c, err := s.budgets.CreateCategory(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(categoryResponse{Message: "Category created successfully", Category: c}).
		Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch core.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if patch.Name != nil {
		name := sanitizeInput(*patch.Name)
		patch.Name = &name
	}

	c, err := s.budgets.UpdateCategory(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Body(categoryResponse{Message: "Category updated successfully", Category: c}).
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.DeleteCategory(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	MessageResponse("Category deleted successfully").Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.budgets.Summary(r.Context(), userIDFrom(r.Context()), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}
