package inspector

import (
	"math"
	"strconv"

	"github.com/windstorm12/emergent-systems-lab/sim"
)

// Section is a titled group of fields in the inspector panel.
type Section struct {
	Title  string
	Fields []Field
}

// Sections lays out the inspection data of one agent. maxSpeed scales the
// speed bar; flipY marks heading angles for a camera with world +Y up.
func Sections(d sim.AgentDetail, maxSpeed float64, flipY bool) []Section {
	speed := math.Hypot(d.Velocity.X, d.Velocity.Y)
	heading := math.Atan2(d.Velocity.Y, d.Velocity.X)

	angleOpts := map[string]string{}
	if flipY {
		angleOpts["flip"] = "y"
	}

	kinematics := ExtractFields("Pos", d.Position)
	kinematics = append(kinematics, ExtractFields("Vel", d.Velocity)...)
	kinematics = append(kinematics,
		Field{
			Name:    "Speed",
			Value:   speed,
			Widget:  WidgetBar,
			Options: map[string]string{"max": strconv.FormatFloat(maxSpeed, 'f', -1, 64)},
		},
		Field{Name: "Heading", Value: heading, Widget: WidgetAngle, Options: angleOpts},
		Field{Name: "Neighbors", Value: d.Neighbors, Widget: WidgetLabel},
	)

	sections := []Section{
		{Title: "AGENT", Fields: ExtractFields("", d.Agent)},
		{Title: "KINEMATICS", Fields: kinematics},
	}

	if d.Assembly != nil && d.Target != nil {
		dist := math.Hypot(d.Target.X-d.Position.X, d.Target.Y-d.Position.Y)
		assembly := ExtractFields("Target", d.Target)
		assembly = append(assembly,
			Field{Name: "Distance", Value: dist, Widget: WidgetLabel, Options: map[string]string{"fmt": "%.2f"}},
			Field{Name: "Phase", Value: d.Assembly.Phase(), Widget: WidgetLabel},
		)
		assembly = append(assembly, ExtractFields("", d.Assembly)...)
		sections = append(sections, Section{Title: "ASSEMBLY", Fields: assembly})
	}

	return sections
}
