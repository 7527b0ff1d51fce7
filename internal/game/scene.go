// Package game hosts vipers, food and walls in a rectangular arena and runs
// the fixed-step simulation that drives them.
package game

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/vipers/internal/core/events/bus"
	"github.com/zeusync/vipers/internal/core/observability/log"
	"github.com/zeusync/vipers/internal/core/systems/collision"
	"github.com/zeusync/vipers/internal/core/systems/physics"
	"github.com/zeusync/vipers/internal/core/viper"
)

// wallTag marks the arena wall collider.
type wallTag struct{}

type player struct {
	viper   *viper.Viper
	reg     *collision.Registration
	steerer Steerer
	score   int
}

type food struct {
	id   string
	body *collision.Body
	reg  *collision.Registration
}

func (f *food) circle() physics.Circle { return f.body.Shape().(physics.Circle) }

// Scene owns the collision manager and everything registered in it. Step and
// Run must be called from one goroutine; Snapshot and Metrics may be called
// from any goroutine.
type Scene struct {
	mu sync.RWMutex

	cfg     Config
	base    log.Log
	logger  log.Log
	events  bus.EventBus
	manager *collision.Manager
	rng     *rand.Rand

	walls   *collision.Segmented
	wallReg *collision.Registration
	inner   physics.Bounds

	players []*player
	foods   []*food

	tick    uint64
	now     float64
	debt    time.Duration
	metrics Metrics

	// events queued under mu, delivered once it is released
	pending []bus.Event
}

// New builds the arena walls and the initial food. events may be nil.
func New(cfg Config, logger log.Log, events bus.EventBus) (*Scene, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if err := cfg.Viper.Validate(); err != nil {
		return nil, err
	}
	if cfg.FixedStep <= 0 || cfg.MaxTicksPerStep < 1 {
		return nil, fmt.Errorf("scene: fixed step %v with %d ticks per step: %w",
			cfg.FixedStep, cfg.MaxTicksPerStep, viper.ErrInvalidStep)
	}
	if cfg.SpawnAttempts < 1 {
		cfg.SpawnAttempts = 1
	}
	seed := xxhash.Sum64String(cfg.Seed)
	s := &Scene{
		cfg:     cfg,
		base:    logger,
		logger:  logger.Named("scene"),
		events:  events,
		manager: collision.NewManager(logger),
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	if err := s.buildWalls(); err != nil {
		return nil, err
	}
	for range cfg.FoodCount {
		if _, err := s.spawnFood(); err != nil {
			return nil, err
		}
	}
	s.logger.Info("scene ready",
		log.String("seed", cfg.Seed),
		log.Float64("width", cfg.Width),
		log.Float64("height", cfg.Height),
		log.Int("food", len(s.foods)))
	return s, nil
}

// buildWalls registers one inactive collider holding the four wall bars.
func (s *Scene) buildWalls() error {
	w, h, t := s.cfg.Width, s.cfg.Height, s.cfg.WallThickness
	s.walls = collision.NewSegmented(false, collision.WithID("walls"), collision.WithTag(wallTag{}))
	s.walls.SetSegments([]*physics.Polygon{
		physics.Rect(physics.V2(0, 0), physics.V2(w, t)),
		physics.Rect(physics.V2(w-t, 0), physics.V2(t, h)),
		physics.Rect(physics.V2(0, h-t), physics.V2(w, t)),
		physics.Rect(physics.V2(0, 0), physics.V2(t, h)),
	}, nil)
	s.inner = physics.Bounds{Min: physics.V2(t, t), Max: physics.V2(w-t, h-t)}

	reg, err := s.manager.Register(s.walls)
	if err != nil {
		return err
	}
	s.wallReg = reg
	return nil
}

// Populate spawns the configured number of vipers, each with a wander
// steerer seeded from the scene rng.
func (s *Scene) Populate() error {
	margin := s.cfg.Viper.Speed * 0.5
	safe := s.inner.Expand(-margin)
	for range s.cfg.Vipers {
		if _, err := s.SpawnViper(NewWanderSteerer(s.rng.Uint64(), safe)); err != nil {
			return err
		}
	}
	return nil
}

// SpawnViper places a new straight viper on free ground.
func (s *Scene) SpawnViper(steerer Steerer) (*viper.Viper, error) {
	if steerer == nil {
		return nil, ErrNoSteerer
	}
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	vc := s.cfg.Viper
	reach := vc.Speed * vc.InitialLength
	clearance := vc.Width * 2
	area := s.inner.Expand(-clearance)

	for range s.cfg.SpawnAttempts {
		angle := s.rng.Float64() * 2 * math.Pi
		head := s.randomPoint(area)
		tail := head.Sub(physics.FromAngle(angle, reach))
		if !area.Contains(tail) {
			continue
		}
		normal := physics.Perp(physics.FromAngle(angle, clearance))
		forward := physics.FromAngle(angle, clearance)
		probe := physics.Quad(head.Add(forward), tail.Sub(forward), normal, normal)
		if s.manager.IsOccupied(probe) {
			continue
		}

		v, err := viper.New(vc, head, angle, s.now, viper.WithLogger(s.base))
		if err != nil {
			return nil, err
		}
		if err := s.addLocked(v, steerer); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("viper after %d attempts: %w", s.cfg.SpawnAttempts, ErrNoFreeSpace)
}

// AddViper registers a viper built by the caller, for hosts that place
// vipers themselves. The viper should share the scene clock (see Now).
func (s *Scene) AddViper(v *viper.Viper, steerer Steerer) error {
	if steerer == nil {
		return ErrNoSteerer
	}
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(v, steerer)
}

func (s *Scene) addLocked(v *viper.Viper, steerer Steerer) error {
	reg, err := s.manager.Register(v.Collider())
	if err != nil {
		return err
	}
	s.players = append(s.players, &player{viper: v, reg: reg, steerer: steerer})
	head := v.Head()
	s.logger.Info("viper spawned",
		log.String("viper", v.ID()),
		log.Float64("x", head.X()),
		log.Float64("y", head.Y()))
	s.publish(EventViperSpawned, ViperSpawned{ViperID: v.ID(), Position: head, Angle: v.Angle()})
	return nil
}

func (s *Scene) spawnFood() (*food, error) {
	shape, err := s.freeFoodSpot()
	if err != nil {
		return nil, err
	}
	return s.addFood(shape)
}

func (s *Scene) addFood(shape physics.Circle) (*food, error) {
	f := &food{id: uuid.NewString()}
	f.body = collision.NewBody(shape, false, collision.WithID(f.id), collision.WithTag(f))
	reg, err := s.manager.Register(f.body)
	if err != nil {
		return nil, err
	}
	f.reg = reg
	s.foods = append(s.foods, f)
	return f, nil
}

func (s *Scene) freeFoodSpot() (physics.Circle, error) {
	r := s.cfg.FoodRadius
	area := s.inner.Expand(-r)
	for range s.cfg.SpawnAttempts {
		c := physics.Circle{Center: s.randomPoint(area), Radius: r}
		if !s.manager.IsOccupied(c) {
			return c, nil
		}
	}
	return physics.Circle{}, fmt.Errorf("food after %d attempts: %w", s.cfg.SpawnAttempts, ErrNoFreeSpace)
}

func (s *Scene) randomPoint(b physics.Bounds) physics.Vec2 {
	size := b.Size()
	return physics.V2(b.Min.X()+s.rng.Float64()*size.X(), b.Min.Y()+s.rng.Float64()*size.Y())
}

// Step adds elapsed wall time to the simulation debt and runs as many fixed
// ticks as the debt covers, at most MaxTicksPerStep. Debt left over after
// the cap is dropped. It returns the number of ticks run.
func (s *Scene) Step(elapsed time.Duration) (int, error) {
	if elapsed > 0 {
		s.debt += elapsed
	}
	ticks := 0
	for s.debt >= s.cfg.FixedStep && ticks < s.cfg.MaxTicksPerStep {
		if err := s.Tick(); err != nil {
			return ticks, err
		}
		s.debt -= s.cfg.FixedStep
		ticks++
	}
	if s.debt >= s.cfg.FixedStep {
		dropped := s.debt - s.debt%s.cfg.FixedStep
		s.debt -= dropped
		s.mu.Lock()
		s.metrics.DroppedDebt += dropped
		s.mu.Unlock()
		s.logger.Warn("simulation falling behind",
			log.Duration("dropped", dropped),
			log.Int("ticks", ticks))
	}
	return ticks, nil
}

// Tick runs one fixed step: steering, integration, collision, reactions.
// Steerers run before the scene is locked and may read it.
func (s *Scene) Tick() error {
	defer s.flush()

	start := time.Now()
	s.mu.RLock()
	movers := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		if p.viper.Alive() {
			movers = append(movers, p)
		}
	}
	s.mu.RUnlock()

	steering := make([]viper.Steering, len(movers))
	for i, p := range movers {
		steering[i] = p.steerer.Steer(p.viper)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dt := s.cfg.FixedStep.Seconds()
	for i, p := range movers {
		if !p.viper.Alive() {
			continue
		}
		if err := p.viper.Tick(dt, steering[i]); err != nil {
			return err
		}
	}
	s.now += dt
	s.tick++

	results := s.manager.CheckForCollisions()
	s.react(results)

	s.metrics.observe(time.Since(start), len(results))
	s.metrics.VipersAlive = s.aliveLocked()
	return nil
}

type death struct {
	cause    string
	killedBy string
}

// react applies results that involve a viper head. Deaths are applied after
// every result is seen so that mutual hits kill both vipers.
func (s *Scene) react(results []collision.Result) {
	deaths := make(map[*viper.Viper]death)
	eaten := make(map[*food]bool)

	for _, r := range results {
		for _, pair := range [2]collision.Result{r, r.Swap()} {
			v, ok := pair.A.Collider.Tag().(*viper.Viper)
			if !ok || pair.A.Segment != viper.HeadSegment || !v.Alive() {
				continue
			}
			if _, dead := deaths[v]; dead {
				continue
			}
			switch other := pair.B.Collider.Tag().(type) {
			case *food:
				if !eaten[other] {
					eaten[other] = true
					s.eat(v, other)
				}
			case wallTag:
				deaths[v] = death{cause: CauseWall}
			case *viper.Viper:
				deaths[v] = death{cause: CauseViper, killedBy: other.ID()}
			}
		}
	}

	for _, p := range s.players {
		if d, ok := deaths[p.viper]; ok {
			s.kill(p, d)
		}
	}
}

func (s *Scene) eat(v *viper.Viper, f *food) {
	at := f.circle().Center
	v.Grow(s.cfg.FoodGrowth)
	if p := s.playerOf(v); p != nil {
		p.score++
	}
	s.metrics.FoodEaten++
	s.publish(EventFoodEaten, FoodEaten{ViperID: v.ID(), FoodID: f.id, At: at, Length: v.TemporalLength()})

	spot, err := s.freeFoodSpot()
	if err != nil {
		s.logger.Warn("food not respawned", log.String("food", f.id), log.Error(err))
		f.reg.Release()
		s.foods = removeFood(s.foods, f)
		return
	}
	f.body.SetShape(spot)
}

func (s *Scene) kill(p *player, d death) {
	p.viper.Kill()
	p.reg.Release()
	s.metrics.Deaths++
	s.logger.Info("viper died",
		log.String("viper", p.viper.ID()),
		log.String("cause", d.cause),
		log.String("killed_by", d.killedBy),
		log.Int("score", p.score),
		log.Uint64("tick", s.tick))
	s.publish(EventViperDied, ViperDied{
		ViperID:  p.viper.ID(),
		Cause:    d.cause,
		KilledBy: d.killedBy,
		Length:   p.viper.TemporalLength(),
		Score:    p.score,
	})
}

func (s *Scene) publish(typ string, payload any) {
	if s.events == nil {
		return
	}
	s.pending = append(s.pending, bus.NewEvent(typ, "scene", payload, map[string]any{"tick": s.tick, "time": s.now}))
}

// flush delivers queued events. Handlers may call back into the scene.
func (s *Scene) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(pending) == 0 {
		return
	}
	if err := s.events.PublishBatch(pending...); err != nil {
		s.logger.Warn("event handler failed", log.Error(err))
	}
}

func (s *Scene) playerOf(v *viper.Viper) *player {
	for _, p := range s.players {
		if p.viper == v {
			return p
		}
	}
	return nil
}

func removeFood(foods []*food, f *food) []*food {
	for i, x := range foods {
		if x == f {
			return append(foods[:i], foods[i+1:]...)
		}
	}
	return foods
}

func (s *Scene) aliveLocked() int {
	n := 0
	for _, p := range s.players {
		if p.viper.Alive() {
			n++
		}
	}
	return n
}

// Alive returns how many vipers are still alive.
func (s *Scene) Alive() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliveLocked()
}

// Metrics returns a copy of the loop metrics.
func (s *Scene) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.metrics
	m.VipersAlive = s.aliveLocked()
	return m
}

// Now returns the simulation time in seconds.
func (s *Scene) Now() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Inner returns the walkable area inside the walls.
func (s *Scene) Inner() physics.Bounds { return s.inner }

// Manager exposes the collision manager for inspection.
func (s *Scene) Manager() *collision.Manager { return s.manager }

// Close releases every registration the scene holds. The scene must not be
// stepped afterwards.
func (s *Scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.reg.Release()
	}
	for _, f := range s.foods {
		f.reg.Release()
	}
	s.wallReg.Release()
	s.logger.Debug("scene closed", log.Int("remaining", s.manager.Len()))
}

// Run drives Step from the ticks channel until ctx is done, the channel is
// closed, or every spawned viper is dead.
func (s *Scene) Run(ctx context.Context, ticks <-chan time.Time) error {
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scene stopped", log.Uint64("tick", s.tick))
			return nil
		case now, ok := <-ticks:
			if !ok {
				return nil
			}
			if _, err := s.Step(now.Sub(last)); err != nil {
				return err
			}
			last = now
			if len(s.players) > 0 && s.Alive() == 0 {
				s.logger.Info("all vipers dead", log.Uint64("tick", s.tick))
				return nil
			}
		}
	}
}
