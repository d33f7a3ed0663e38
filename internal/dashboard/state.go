package dashboard

import (
	"github.com/i474232898/weather-dashboard/internal/history"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Phase is the discriminant of LoadState.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseSuccess Phase = "success"
)

// LoadState is a single discriminated value; Message is only set in PhaseError.
type LoadState struct {
	Phase   Phase
	Message string
}

// State is everything the rendering layer observes. Weather survives a failed
// load so stale data can be shown under the error.
type State struct {
	SearchQuery   string
	Load          LoadState
	Weather       *weather.Bundle
	History       []weather.HistoryEntry
	Authorization location.AuthorizationState
}

func (s State) IsLoading() bool {
	return s.Load.Phase == PhaseLoading
}

func (s State) ErrorMessage() string {
	if s.Load.Phase == PhaseError {
		return s.Load.Message
	}
	return ""
}

// View is the JSON shape of State for renderers.
type View struct {
	SearchQuery        string                      `json:"searchQuery"`
	IsLoading          bool                        `json:"isLoading"`
	ErrorMessage       string                      `json:"errorMessage,omitempty"`
	Weather            *weather.Bundle             `json:"weather"`
	History            []weather.HistoryEntry      `json:"history"`
	AuthorizationState location.AuthorizationState `json:"authorizationState"`
}

func (s State) View() View {
	h := s.History
	if h == nil {
		h = []weather.HistoryEntry{}
	}
	return View{
		SearchQuery:        s.SearchQuery,
		IsLoading:          s.IsLoading(),
		ErrorMessage:       s.ErrorMessage(),
		Weather:            s.Weather,
		History:            h,
		AuthorizationState: s.Authorization,
	}
}

// Action is an input to Reduce.
type Action interface {
	isAction()
}

type (
	QueryChanged         struct{ Query string }
	LoadStarted          struct{}
	LoadFailed           struct{ Message string }
	HistoryLoaded        struct{ Entries []weather.HistoryEntry }
	AuthorizationChanged struct{ State location.AuthorizationState }

	// LoadSucceeded carries the new bundle. Entry is recorded in history when non-nil.
	LoadSucceeded struct {
		Bundle *weather.Bundle
		Entry  *weather.HistoryEntry
	}
)

func (QueryChanged) isAction()         {}
func (LoadStarted) isAction()          {}
func (LoadFailed) isAction()           {}
func (HistoryLoaded) isAction()        {}
func (AuthorizationChanged) isAction() {}
func (LoadSucceeded) isAction()        {}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case QueryChanged:
		s.SearchQuery = a.Query
	case LoadStarted:
		s.Load = LoadState{Phase: PhaseLoading}
	case LoadSucceeded:
		s.Load = LoadState{Phase: PhaseSuccess}
		s.Weather = a.Bundle
		if a.Entry != nil {
			s.History = history.Record(s.History, *a.Entry)
		}
	case LoadFailed:
		s.Load = LoadState{Phase: PhaseError, Message: a.Message}
	case HistoryLoaded:
		s.History = a.Entries
	case AuthorizationChanged:
		s.Authorization = a.State
	}
	return s
}
