package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"github.com/mideind/straeto/internal/feed"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	dataStruct := debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	}
	if err := debugTemplate.Execute(w, dataStruct); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	snap := webUI.Engine.Snapshot()
	if snap == nil && dataType != "realtime_vehicles" {
		writeDebugData(w, "Schedule not loaded", map[string]string{"error": "no feed has been loaded yet"})
		return
	}

	var data interface{}
	var title string

	switch dataType {
	case "stats":
		data = snap.Info()
		title = "GTFS Static - Load statistics"
	case "routes":
		data = snap.Schedule.Routes()
		title = "GTFS Static - Routes"
	case "stops":
		data = snap.Stops.All()
		title = "GTFS Static - Stops"
	case "services":
		today := feed.DateOf(webUI.Engine.Now())
		active := snap.Calendar.ActiveOn(today)
		services := make(map[string]bool, snap.Calendar.Len())
		for _, id := range snap.Calendar.Services() {
			_, ok := active[id]
			services[id] = ok
		}
		data = services
		title = "GTFS Static - Services active on " + today.String()
	case "realtime_vehicles":
		if webUI.Tracker == nil {
			data = map[string]string{"error": "real-time tracking is disabled"}
		} else {
			data = webUI.Tracker.Vehicles()
		}
		title = "GTFS Realtime - Vehicles"
	default:
		data = map[string]string{
			"error": "Please use one of the following: stats, routes, stops, services, realtime_vehicles.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
