package rigid2d

// fakeBody is one body's mutable state in the minimal BodyState test double
// below: a plain slice-backed store, the shape a real caller's body/fixture
// table would back BodyState with.
type fakeBody struct {
	motion           BodyMotionType
	invMass, invI    float64
	localCenter      Vec2
	sweep            Sweep
	v                Vec2
	w                float64
	force            Vec2
	torque           float64
	gravityScale     float64
	linearDamping    float64
	angularDamping   float64
	autoSleep        bool
	sleepTime        float64
	awake            bool
}

// fakeBodyState is a slice-backed BodyState for exercising the solver and
// island driver without a real body/fixture object graph.
type fakeBodyState struct {
	bodies []*fakeBody
}

func newFakeBodyState(bodies ...*fakeBody) *fakeBodyState {
	return &fakeBodyState{bodies: bodies}
}

func (s *fakeBodyState) Count() int                        { return len(s.bodies) }
func (s *fakeBodyState) Type(i int) BodyMotionType          { return s.bodies[i].motion }
func (s *fakeBodyState) InvMass(i int) float64              { return s.bodies[i].invMass }
func (s *fakeBodyState) InvI(i int) float64                 { return s.bodies[i].invI }
func (s *fakeBodyState) LocalCenter(i int) Vec2             { return s.bodies[i].localCenter }
func (s *fakeBodyState) Sweep(i int) Sweep                  { return s.bodies[i].sweep }
func (s *fakeBodyState) SetSweep(i int, sw Sweep)           { s.bodies[i].sweep = sw }
func (s *fakeBodyState) Velocity(i int) (Vec2, float64)     { return s.bodies[i].v, s.bodies[i].w }
func (s *fakeBodyState) SetVelocity(i int, v Vec2, w float64) {
	s.bodies[i].v, s.bodies[i].w = v, w
}
func (s *fakeBodyState) Force(i int) Vec2             { return s.bodies[i].force }
func (s *fakeBodyState) Torque(i int) float64         { return s.bodies[i].torque }
func (s *fakeBodyState) GravityScale(i int) float64   { return s.bodies[i].gravityScale }
func (s *fakeBodyState) LinearDamping(i int) float64  { return s.bodies[i].linearDamping }
func (s *fakeBodyState) AngularDamping(i int) float64 { return s.bodies[i].angularDamping }
func (s *fakeBodyState) AutoSleepEnabled(i int) bool  { return s.bodies[i].autoSleep }
func (s *fakeBodyState) SleepTime(i int) float64      { return s.bodies[i].sleepTime }
func (s *fakeBodyState) SetSleepTime(i int, t float64) { s.bodies[i].sleepTime = t }
func (s *fakeBodyState) SetAwake(i int, awake bool)    { s.bodies[i].awake = awake }

func dynamicFakeBody(mass, inertia float64, c Vec2) *fakeBody {
	invMass := 0.0
	if mass > 0 {
		invMass = 1.0 / mass
	}
	invI := 0.0
	if inertia > 0 {
		invI = 1.0 / inertia
	}
	return &fakeBody{
		motion:       DynamicBody,
		invMass:      invMass,
		invI:         invI,
		sweep:        Sweep{C0: c, C: c},
		gravityScale: 1.0,
		autoSleep:    true,
		awake:        true,
	}
}

func staticFakeBody(c Vec2) *fakeBody {
	return &fakeBody{
		motion: StaticBody,
		sweep:  Sweep{C0: c, C: c},
		awake:  true,
	}
}
