package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
	"github.com/neuro86/neuro86/pkg/usecase"
	"github.com/neuro86/neuro86/pkg/utils/errutil"
)

type storyResponse struct {
	ID        types.StoryID           `json:"id"`
	Title     string                  `json:"title"`
	RawText   string                  `json:"raw_text"`
	Timeline  *model.TimelineDocument `json:"timeline,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type similarStoryResponse struct {
	storyResponse
	Score float64 `json:"score"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func toStoryResponse(s *model.Story) storyResponse {
	return storyResponse{
		ID:        s.ID,
		Title:     s.Title,
		RawText:   s.RawText,
		Timeline:  s.Timeline,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// handleStoryError maps pipeline and lookup errors to the response envelope
func handleStoryError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyNarrative):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrStoryNotFound), errors.Is(err, usecase.ErrUserNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}

func (s *Server) submitStoryHandler() http.HandlerFunc {
	type request struct {
		Story string `json:"story"`
	}
	type response struct {
		Success bool          `json:"success"`
		Story   storyResponse `json:"story"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "malformed request body"), http.StatusBadRequest)
			return
		}

		story, err := s.uc.Story.Submit(ctx, user.ID, req.Story)
		if err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, response{Success: true, Story: toStoryResponse(story)})
	}
}

func (s *Server) listStoriesHandler() http.HandlerFunc {
	type response struct {
		Stories []storyResponse `json:"stories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		stories, err := s.uc.Story.List(ctx, user.ID)
		if err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		resp := response{Stories: make([]storyResponse, len(stories))}
		for i, st := range stories {
			resp.Stories[i] = toStoryResponse(st)
		}
		writeJSON(ctx, w, http.StatusOK, resp)
	}
}

func (s *Server) editStoryHandler() http.HandlerFunc {
	type request struct {
		RawText string `json:"raw_text"`
	}
	type response struct {
		Success bool          `json:"success"`
		Story   storyResponse `json:"story"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)
		id := types.StoryID(chi.URLParam(r, "id"))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "malformed request body"), http.StatusBadRequest)
			return
		}

		story, err := s.uc.Story.Edit(ctx, user.ID, id, req.RawText)
		if err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, response{Success: true, Story: toStoryResponse(story)})
	}
}

func (s *Server) deleteStoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)
		id := types.StoryID(chi.URLParam(r, "id"))

		if err := s.uc.Story.Delete(ctx, user.ID, id); err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) deleteAllStoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		if err := s.uc.Story.DeleteAll(ctx, user.ID); err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) similarStoriesHandler() http.HandlerFunc {
	type response struct {
		Stories []similarStoryResponse `json:"stories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		similar := s.uc.Similar.FindForUser(ctx, user.ID)

		resp := response{Stories: make([]similarStoryResponse, len(similar))}
		for i, sim := range similar {
			resp.Stories[i] = similarStoryResponse{
				storyResponse: toStoryResponse(sim.Story),
				Score:         sim.Score,
			}
		}
		writeJSON(ctx, w, http.StatusOK, resp)
	}
}

func (s *Server) timelineHandler() http.HandlerFunc {
	type response struct {
		Timeline *model.TimelineDocument `json:"timeline"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		timeline, err := s.uc.Story.Timeline(ctx, user.ID)
		if err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		// Events are stored in extraction order; order by date for the caller
		sorted := &model.TimelineDocument{
			PatientDetails: timeline.PatientDetails,
			Events:         timeline.SortedEvents(),
		}
		writeJSON(ctx, w, http.StatusOK, response{Timeline: sorted})
	}
}

func (s *Server) checkStoryHandler() http.HandlerFunc {
	type response struct {
		HasStory bool `json:"hasStory"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFromContext(ctx)

		has, err := s.uc.Story.HasStories(ctx, user.ID)
		if err != nil {
			handleStoryError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, response{HasStory: has})
	}
}

func (s *Server) authLinkHandler() http.HandlerFunc {
	type userResponse struct {
		ID            types.UserID `json:"id"`
		DisplayName   string       `json:"display_name,omitempty"`
		Authenticated bool         `json:"authenticated"`
	}
	type response struct {
		User userResponse `json:"user"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		// The identity middleware already performed the resolve-or-merge; this
		// endpoint just acknowledges it so clients can link eagerly at sign-in
		user := userFromContext(ctx)

		writeJSON(ctx, w, http.StatusOK, response{User: userResponse{
			ID:            user.ID,
			DisplayName:   user.DisplayName,
			Authenticated: !user.IsAnonymous(),
		}})
	}
}

func (s *Server) researchHandler() http.HandlerFunc {
	type response struct {
		Research []model.ResearchItem `json:"research"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, response{Research: s.resources.Research})
	}
}

func (s *Server) facilitiesHandler() http.HandlerFunc {
	type response struct {
		State      string           `json:"state"`
		Facilities []model.Facility `json:"facilities"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state := strings.ToUpper(chi.URLParam(r, "state"))
		if len(state) != 2 {
			errutil.HandleHTTP(ctx, w, goerr.New("state must be a two-letter code"), http.StatusBadRequest)
			return
		}

		writeJSON(ctx, w, http.StatusOK, response{
			State:      state,
			Facilities: s.resources.FacilitiesByState(state),
		})
	}
}
