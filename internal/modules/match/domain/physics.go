package domain

// Court geometry and movement constants. The court is a unit square with the
// playable area ending slightly before 1.0 so the ball and paddles stay fully
// visible on the client.
const (
	TopBoundary    = 0.0
	BottomBoundary = 0.985
	LeftBoundary   = 0.0
	RightBoundary  = 0.985

	PaddleHeight = 0.2
	PaddleStep   = 0.04
	PaddleAX     = 0.03
	PaddleBX     = 0.965

	WinningScore = 10
)

var (
	DefaultBallPosition = Ball{X: 0.5, Y: 0.5}
	DefaultVelocity     = Velocity{VX: -0.0025, VY: 0.0025}

	// serveVelocities is the fixed candidate set a new serve direction is picked
	// from after every goal.
	serveVelocities = []Velocity{
		{VX: 0.004, VY: 0.0025},
		{VX: 0.0025, VY: 0.005},
		{VX: 0.005, VY: 0.0025},
		{VX: -0.004, VY: -0.0025},
		{VX: -0.003, VY: 0.0025},
	}
)

type Ball struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// ScoreEvent reports which side scored during a step, if any.
type ScoreEvent int

const (
	ScoreNone ScoreEvent = iota
	ScoreA
	ScoreB
)

// StepResult is the outcome of advancing the simulation by one tick.
type StepResult struct {
	Ball     Ball
	Velocity Velocity
	Score    ScoreEvent
}

// Step advances the ball by one fixed tick. Checks run in a fixed order -
// paddle reflection, goal, wall reflection - and every reflection is guarded
// by "still moving toward the boundary" so a ball resting on a boundary never
// oscillates from stale velocity. pick chooses the serve velocity index after
// a goal; it receives len(serveVelocities).
func Step(ball Ball, vel Velocity, paddleA, paddleB float64, pick func(n int) int) StepResult {
	// Paddle reflections. The ball crosses a paddle's x-line this tick while
	// its y lies within the paddle span.
	if vel.VX < 0 && ball.X+vel.VX <= PaddleAX && withinPaddle(ball.Y, paddleA) {
		vel.VX = -vel.VX
	}
	if vel.VX > 0 && ball.X+vel.VX >= PaddleBX && withinPaddle(ball.Y, paddleB) {
		vel.VX = -vel.VX
	}

	// Goals. Only reachable when the paddle check above did not reflect,
	// since a reflection flips the direction guard.
	if vel.VX < 0 && ball.X+vel.VX <= LeftBoundary {
		return StepResult{
			Ball:     DefaultBallPosition,
			Velocity: serveVelocities[pick(len(serveVelocities))],
			Score:    ScoreB,
		}
	}
	if vel.VX > 0 && ball.X+vel.VX >= RightBoundary {
		return StepResult{
			Ball:     DefaultBallPosition,
			Velocity: serveVelocities[pick(len(serveVelocities))],
			Score:    ScoreA,
		}
	}

	// Top and bottom wall reflections.
	if vel.VY > 0 && ball.Y+vel.VY >= BottomBoundary {
		vel.VY = -vel.VY
	}
	if vel.VY < 0 && ball.Y+vel.VY <= TopBoundary {
		vel.VY = -vel.VY
	}

	ball.X += vel.VX
	ball.Y += vel.VY

	return StepResult{Ball: ball, Velocity: vel, Score: ScoreNone}
}

func withinPaddle(ballY, paddleY float64) bool {
	return ballY >= paddleY && ballY <= paddleY+PaddleHeight
}
