package routing

import (
	"fmt"
	"math"
	"strings"

	"kml-eagle/internal/models"
)

// ArrivalText closes every non-empty direction list.
const ArrivalText = "You have arrived at your destination"

// Directions formats the steps of every leg for display and appends an
// arrival line when there is at least one step.
func Directions(r *models.RouteResult) []models.Direction {
	out := []models.Direction{}
	for _, l := range r.Legs {
		for _, s := range l.Steps {
			out = append(out, models.Direction{
				Text:     instruction(s),
				Distance: fmt.Sprintf("%.2f km", s.Distance/1000),
				Duration: fmt.Sprintf("%d min", int(math.Round(s.Duration/60))),
			})
		}
	}

	if len(out) > 0 {
		out = append(out, models.Direction{Text: ArrivalText, Distance: "0 m", Duration: "0 min"})
	}
	return out
}

// instruction uses the server supplied text when present and otherwise
// builds one from the maneuver.
func instruction(s models.Step) string {
	if s.Maneuver.Instruction != "" {
		return s.Maneuver.Instruction
	}

	onto := ""
	if s.Name != "" {
		onto = " onto " + s.Name
	}
	modifier := s.Maneuver.Modifier

	switch s.Maneuver.Type {
	case "depart":
		if s.Name != "" {
			return "Head out on " + s.Name
		}
		return "Depart"
	case "arrive":
		return "Arrive at waypoint"
	case "roundabout", "rotary":
		return "Enter the roundabout" + onto
	case "continue", "new name":
		return "Continue" + onto
	case "merge":
		return "Merge" + onto
	case "fork":
		return "Keep " + orDefault(modifier, "straight") + " at the fork" + onto
	case "end of road":
		return "Turn " + orDefault(modifier, "straight") + " at the end of the road" + onto
	case "":
		return strings.TrimSpace("Continue" + onto)
	default:
		if modifier == "" || modifier == "straight" {
			return "Go straight" + onto
		}
		if modifier == "uturn" {
			return "Make a U-turn" + onto
		}
		return "Turn " + modifier + onto
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
