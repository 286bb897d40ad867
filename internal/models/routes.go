package models

import "github.com/mideind/straeto/internal/feed"

type Route struct {
	ID        string         `json:"id"`
	ShortName string         `json:"shortName"`
	LongName  string         `json:"longName"`
	Type      feed.RouteKind `json:"type"`
}

func NewRoute(r feed.Route) Route {
	return Route{
		ID:        r.ID,
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Type:      r.Kind,
	}
}
