// Package viper integrates the motion of a serpent: it steers the head,
// records it on a temporal track, derives body segments by sampling the
// track behind the head, and trims samples the body no longer reaches.
package viper

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/systems/collision"
	"github.com/zeusync/vipers/internal/core/systems/physics"
	"github.com/zeusync/vipers/internal/core/track"
)

// HeadSegment is the index of the head in the viper's collider.
const HeadSegment = 0

// Steering is one tick of player input.
type Steering struct {
	// Turn in [-1, 1]; positive turns counter-clockwise.
	Turn  float64
	Boost bool
}

func (s Steering) clamped() Steering {
	if math.IsNaN(s.Turn) {
		s.Turn = 0
	}
	s.Turn = math.Max(-1, math.Min(1, s.Turn))
	return s
}

// Option configures a viper at construction.
type Option func(*Viper)

// WithID sets the viper and collider identifier.
func WithID(id string) Option {
	return func(v *Viper) { v.id = id }
}

// WithLogger attaches a logger.
func WithLogger(logger log.Log) Option {
	return func(v *Viper) { v.logger = logger }
}

// Viper is one serpent. It exclusively owns its track and collider; the
// collider's Tag is the *Viper itself.
type Viper struct {
	id     string
	cfg    Config
	logger log.Log

	track    *track.Track
	collider *collision.Segmented
	segments []*physics.Polygon

	now    track.Time
	head   physics.Vec2
	angle  float64
	speed  float64
	length float64 // temporal length in seconds
	growth float64 // budget not yet turned into length
	alive  bool
}

// New places a straight viper with its head at pos, facing angle, at
// simulation time now.
func New(cfg Config, pos physics.Vec2, angle float64, now track.Time, opts ...Option) (*Viper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v := &Viper{
		cfg:    cfg,
		track:  track.New(),
		now:    now,
		head:   pos,
		angle:  angle,
		speed:  cfg.Speed,
		length: cfg.InitialLength,
		alive:  true,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.id == "" {
		v.id = uuid.NewString()
	}
	if v.logger == nil {
		v.logger = log.NewNop()
	}
	v.logger = v.logger.Named("viper").With(log.String("viper", v.id))
	v.collider = collision.NewSegmented(true, collision.WithID(v.id), collision.WithTag(v))

	tail := pos.Sub(physics.FromAngle(angle, cfg.Speed*cfg.InitialLength))
	if err := v.track.PushFront(tail, now-cfg.InitialLength); err != nil {
		return nil, err
	}
	if err := v.track.PushFront(pos, now); err != nil {
		return nil, err
	}
	if err := v.rebuild(); err != nil {
		return nil, err
	}
	return v, nil
}

// Tick advances the viper by dt seconds. A dead viper does nothing.
func (v *Viper) Tick(dt float64, steer Steering) error {
	if !v.alive {
		return nil
	}
	if !(dt > 0) {
		return fmt.Errorf("tick %v: %w", dt, ErrInvalidStep)
	}
	steer = steer.clamped()

	v.angle = math.Mod(v.angle+steer.Turn*v.cfg.TurnRate*dt, 2*math.Pi)
	v.speed = v.cfg.Speed
	if steer.Boost && v.length > v.cfg.MinLength {
		v.speed *= v.cfg.BoostFactor
		v.length = math.Max(v.cfg.MinLength, v.length-v.cfg.BoostCost*dt)
	}
	v.head = v.head.Add(physics.FromAngle(v.angle, v.speed*dt))
	v.now += dt

	if err := v.track.PushFront(v.head, v.now); err != nil {
		return fmt.Errorf("viper %s: %w", v.id, err)
	}

	if v.growth > 0 {
		g := math.Min(v.growth, v.cfg.GrowthRate*dt)
		v.growth -= g
		v.length += g
	}

	if err := v.rebuild(); err != nil {
		return fmt.Errorf("viper %s: %w", v.id, err)
	}
	v.track.TrimBefore(v.now - v.length)
	return nil
}

// rebuild samples the track from the head back to now-length and replaces
// the collider segments: one head quad, then body quads of SegmentDuration.
func (v *Viper) rebuild() error {
	end := v.now - v.length
	cursor := v.track.Cursor()
	half := v.cfg.Width / 2

	at := v.now
	front, frontNormal, err := v.sample(cursor, at, half)
	if err != nil {
		return err
	}

	v.segments = v.segments[:0]
	step := v.cfg.HeadDuration
	for at > end {
		next := math.Max(end, at-step)
		back, backNormal, err := v.sample(cursor, next, half)
		if err != nil {
			return err
		}
		v.segments = append(v.segments, physics.Quad(front, back, frontNormal, backNormal))
		front, frontNormal, at = back, backNormal, next
		step = v.cfg.SegmentDuration
	}

	v.collider.Reset()
	for i, seg := range v.segments {
		v.collider.Append(seg, i == HeadSegment)
	}
	return nil
}

func (v *Viper) sample(cursor *track.Cursor, at track.Time, half float64) (pos, normal physics.Vec2, err error) {
	pos, err = cursor.Position(at)
	if err != nil {
		return pos, normal, err
	}
	dir, err := cursor.Gradient(at)
	if err != nil {
		return pos, normal, err
	}
	if dir.LenSqr() == 0 {
		dir = physics.FromAngle(v.angle, 1)
	}
	return pos, physics.Perp(dir.Normalize()).Mul(half), nil
}

// Grow queues seconds of length, turned into body at GrowthRate.
func (v *Viper) Grow(seconds float64) {
	if seconds > 0 {
		v.growth += seconds
	}
}

// Shrink removes seconds of length, never going below MinLength.
func (v *Viper) Shrink(seconds float64) {
	if seconds > 0 {
		v.length = math.Max(v.cfg.MinLength, v.length-seconds)
	}
}

// Kill stops the viper. Its owner is responsible for releasing the
// collider registration.
func (v *Viper) Kill() {
	if !v.alive {
		return
	}
	v.alive = false
	v.collider.SetActive(false)
	v.logger.Debug("viper killed",
		log.Float64("time", v.now),
		log.Float64("length", v.length))
}

// Sample returns n points spread evenly in time from the head to the end
// of the body.
func (v *Viper) Sample(n int) []physics.Vec2 {
	if n < 2 {
		n = 2
	}
	out := make([]physics.Vec2, 0, n)
	cursor := v.track.Cursor()
	for i := range n {
		at := v.now - v.length*float64(i)/float64(n-1)
		p, err := cursor.Position(at)
		if err != nil {
			break
		}
		out = append(out, p)
	}
	return out
}

// ArcLength returns the spatial length of the body.
func (v *Viper) ArcLength() float64 {
	tail, ok := v.track.Tail()
	if !ok {
		return 0
	}
	l, err := v.track.Length(v.now, math.Max(tail.Time, v.now-v.length))
	if err != nil {
		return 0
	}
	return l
}

func (v *Viper) ID() string                     { return v.id }
func (v *Viper) Alive() bool                    { return v.alive }
func (v *Viper) Head() physics.Vec2             { return v.head }
func (v *Viper) Angle() float64                 { return v.angle }
func (v *Viper) Speed() float64                 { return v.speed }
func (v *Viper) Now() track.Time                { return v.now }
func (v *Viper) TemporalLength() float64        { return v.length }
func (v *Viper) PendingGrowth() float64         { return v.growth }
func (v *Viper) Config() Config                 { return v.cfg }
func (v *Viper) Track() *track.Track            { return v.track }
func (v *Viper) Collider() *collision.Segmented { return v.collider }
