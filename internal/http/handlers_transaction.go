package http

import (
	"net/http"

	"budge/internal/core"
)

type transactionResponse struct {
	Message     string           `json:"message,omitempty"`
	Transaction core.Transaction `json:"transaction"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.transactions.List(r.Context(), userIDFrom(r.Context()), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(page).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)

	tx, err := s.transactions.Create(r.Context(), userIDFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.appMetrics.transactionsCreated.Add(1)

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(transactionResponse{Message: "Transaction created successfully", Transaction: tx}).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(transactionResponse{Transaction: tx}).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch core.TransactionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if patch.Description != nil {
		desc := sanitizeInput(*patch.Description)
		patch.Description = &desc
	}

	tx, err := s.transactions.Update(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Body(transactionResponse{Message: "Transaction updated successfully", Transaction: tx}).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	MessageResponse("Transaction deleted successfully").Write(w)
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r.URL.Query(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	spending, err := s.transactions.SpendingByCategory(r.Context(), userIDFrom(r.Context()), period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(spending).Write(w)
}
