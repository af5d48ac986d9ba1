package render

import (
	"quarkcube/device"
	"quarkcube/quarkgl"
)

// DefaultStep turns the mesh once every 20000 frames.
const DefaultStep = quarkgl.FullTurn / 20000

// Animation spins the mesh about the vertical axis.
type Animation struct {
	Angle quarkgl.Scalar
	Step  quarkgl.Scalar
}

// NewAnimation returns an animation at angle zero advancing by DefaultStep.
func NewAnimation() *Animation {
	return &Animation{Step: DefaultStep}
}

// Advance moves the angle one step forward and folds it into [0, 2π).
func (a *Animation) Advance() quarkgl.Scalar {
	a.Angle = quarkgl.WrapAngle(a.Angle + a.Step)
	return a.Angle
}

// Update advances the animation and sets the world transform of env.
func (a *Animation) Update(env *Environment) error {
	if env == nil || env.dev == nil {
		return ErrNoEnvironment
	}
	return env.dev.SetTransform(device.TransformWorld, quarkgl.WorldMatrix(a.Advance()))
}
