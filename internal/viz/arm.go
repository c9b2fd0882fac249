package viz

import (
	"github.com/golang/geo/r3"

	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/state"
)

// Links returns the base origin followed by the origin of every frame of the
// chain at q, all in the base frame.
func Links(model *robot.Model, q state.JointPositions) ([]r3.Vector, error) {
	frames := model.Frames()
	points := make([]r3.Vector, 0, len(frames)+1)
	points = append(points, r3.Vector{})
	for _, f := range frames {
		pose, err := model.ForwardGeometry(q, f)
		if err != nil {
			return nil, err
		}
		points = append(points, pose.Position())
	}
	return points, nil
}

// DrawArm draws the links between consecutive points and marks every joint.
func DrawArm(v *Viewport, points []r3.Vector) {
	for i := 1; i < len(points); i++ {
		v.Line(points[i-1], points[i])
	}
	for _, p := range points[:max(len(points)-1, 0)] {
		x, y := v.Project(p)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				v.canvas.Set(x+dx, y+dy)
			}
		}
	}
}
