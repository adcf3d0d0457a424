package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"warzone-tracker/internal/constants"
	"warzone-tracker/internal/domain"
	"warzone-tracker/internal/service"
)

// TrackerServer exposes the profile, squad, and match operations over JSON.
type TrackerServer struct {
	profiles *service.ProfileService
	squads   *service.SquadService
	matches  *service.MatchService
	logger   zerolog.Logger
}

func NewTrackerServer(profiles *service.ProfileService, squads *service.SquadService, matches *service.MatchService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{profiles: profiles, squads: squads, matches: matches, logger: logger}
}

// Register wires the routes onto the router.
func (s *TrackerServer) Register(r *mux.Router) {
	r.HandleFunc("/profile/{platform}/{username}", s.handleGetProfile).Methods(http.MethodGet)
	r.HandleFunc("/squad", s.handleCreateSquad).Methods(http.MethodPost)
	r.HandleFunc("/squad/compare", s.handleCompareSquad).Methods(http.MethodPost)
	r.HandleFunc("/match/{matchID}", s.handleGetMatch).Methods(http.MethodGet)
}

func (s *TrackerServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	vars := mux.Vars(r)
	profile, err := s.profiles.GetOrCreate(ctx, vars["platform"], vars["username"])
	if err != nil {
		writeClassifiedError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// squadRequest mirrors the original wire shape: two parallel arrays.
type squadRequest struct {
	Usernames []string `json:"usernames"`
	Platforms []string `json:"platforms"`
}

func (req *squadRequest) members() ([]domain.SquadMember, bool) {
	if len(req.Usernames) == 0 || len(req.Usernames) != len(req.Platforms) {
		return nil, false
	}
	members := make([]domain.SquadMember, len(req.Usernames))
	for i := range req.Usernames {
		if req.Usernames[i] == "" || req.Platforms[i] == "" {
			return nil, false
		}
		members[i] = domain.SquadMember{Username: req.Usernames[i], Platform: req.Platforms[i]}
	}
	return members, true
}

type squadResponse struct {
	SquadID             string                     `json:"squadID,omitempty"`
	PlayersSharedStats  []domain.PlayerSharedStats `json:"playersSharedGamesStats"`
	SharedGamesStats    []domain.MatchSummary      `json:"sharedGamesGeneralStats"`
	AllTimePlayersStats []service.MemberLifetime   `json:"allTimePlayersStats"`
	CreatedAt           string                     `json:"dateCreated,omitempty"`
}

func (s *TrackerServer) handleCreateSquad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	members, ok := decodeSquadRequest(w, r)
	if !ok {
		return
	}

	squad, lifetimes, err := s.squads.CreateOrGet(ctx, members)
	if err != nil {
		writeClassifiedError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, squadResponse{
		SquadID:             squad.ID,
		PlayersSharedStats:  squad.PlayerStats,
		SharedGamesStats:    squad.MatchSummaries,
		AllTimePlayersStats: lifetimes,
		CreatedAt:           squad.CreatedAt.Format("2006-01-02"),
	})
}

func (s *TrackerServer) handleCompareSquad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	members, ok := decodeSquadRequest(w, r)
	if !ok {
		return
	}

	squad, lifetimes, err := s.squads.Compare(ctx, members)
	if err != nil {
		writeClassifiedError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, squadResponse{
		PlayersSharedStats:  squad.PlayerStats,
		SharedGamesStats:    squad.MatchSummaries,
		AllTimePlayersStats: lifetimes,
	})
}

func (s *TrackerServer) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	match, err := s.matches.GetMatch(ctx, mux.Vars(r)["matchID"])
	if err != nil {
		writeClassifiedError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func decodeSquadRequest(w http.ResponseWriter, r *http.Request) ([]domain.SquadMember, bool) {
	var req squadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity,
			"Invalid inputs passed, please check your data.", "body must be JSON with usernames and platforms arrays")
		return nil, false
	}
	members, ok := req.members()
	if !ok {
		writeError(w, http.StatusUnprocessableEntity,
			"Invalid inputs passed, please check your data.", "usernames and platforms must be non-empty and the same length")
		return nil, false
	}
	return members, true
}
