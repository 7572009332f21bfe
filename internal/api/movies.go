// internal/api/movies.go
package api

import (
	"net/http"

	"castingagency/internal/auth"
	"castingagency/internal/domain"
)

type moviesResponse struct {
	Success bool           `json:"success"`
	Movies  []domain.Movie `json:"movies"`
}

type movieResponse struct {
	Success bool          `json:"success"`
	Movie   *domain.Movie `json:"movie"`
}

type deletedResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

func (a *API) listMovies(w http.ResponseWriter, r *http.Request, _ *auth.ClaimSet) {
	movies, err := a.repo.ListMovies(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(movies) == 0 {
		a.writeError(w, r, domain.ErrNotFound)
		return
	}
	a.writeJSON(w, r, http.StatusOK, moviesResponse{Success: true, Movies: movies})
}

func (a *API) createMovie(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	var in domain.MovieInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	changes, err := in.ForCreate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	movie, err := a.repo.CreateMovie(r.Context(), changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Movie created", "id", movie.ID, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, movieResponse{Success: true, Movie: movie})
}

func (a *API) updateMovie(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := a.repo.GetMovie(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	var in domain.MovieInput
	if err := decode(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	changes, err := in.ForUpdate()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	movie, err := a.repo.UpdateMovie(r.Context(), id, changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Movie updated", "id", movie.ID, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, movieResponse{Success: true, Movie: movie})
}

func (a *API) deleteMovie(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.repo.DeleteMovie(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Movie deleted", "id", id, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, deletedResponse{Success: true, Deleted: id})
}
