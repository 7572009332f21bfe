// internal/api/actors.go
package api

import (
	"net/http"

	"castingagency/internal/auth"
	"castingagency/internal/domain"
)

type actorsResponse struct {
	Success bool           `json:"success"`
	Actors  []domain.Actor `json:"actors"`
}

type actorResponse struct {
	Success bool          `json:"success"`
	Actor   *domain.Actor `json:"actor"`
}

func (a *API) listActors(w http.ResponseWriter, r *http.Request, _ *auth.ClaimSet) {
	actors, err := a.repo.ListActors(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(actors) == 0 {
		a.writeError(w, r, domain.ErrNotFound)
		return
	}
	a.writeJSON(w, r, http.StatusOK, actorsResponse{Success: true, Actors: actors})
}

func (a *API) createActor(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	changes, err := actorChanges(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	actor, err := a.repo.CreateActor(r.Context(), changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Actor created", "id", actor.ID, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, actorResponse{Success: true, Actor: actor})
}

func (a *API) updateActor(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := a.repo.GetActor(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	changes, err := actorChanges(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	actor, err := a.repo.UpdateActor(r.Context(), id, changes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Actor updated", "id", actor.ID, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, actorResponse{Success: true, Actor: actor})
}

func (a *API) deleteActor(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.repo.DeleteActor(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Info("Actor deleted", "id", id, "subject", claims.Subject)
	a.writeJSON(w, r, http.StatusOK, deletedResponse{Success: true, Deleted: id})
}

func actorChanges(r *http.Request) (domain.ActorChanges, error) {
	var in domain.ActorInput
	if err := decode(r, &in); err != nil {
		return domain.ActorChanges{}, err
	}
	return in.Validate()
}
