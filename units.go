package sapmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tomblancdev/sapmodel-go/native"
)

// ForceUnit is a native force unit code.
type ForceUnit int

const (
	ForceLb   ForceUnit = 1
	ForceKip  ForceUnit = 2
	ForceN    ForceUnit = 3
	ForceKN   ForceUnit = 4
	ForceKgf  ForceUnit = 5
	ForceTonf ForceUnit = 6
)

func (f ForceUnit) String() string {
	switch f {
	case ForceLb:
		return "lb"
	case ForceKip:
		return "kip"
	case ForceN:
		return "N"
	case ForceKN:
		return "kN"
	case ForceKgf:
		return "kgf"
	case ForceTonf:
		return "tonf"
	default:
		return fmt.Sprintf("ForceUnit(%d)", int(f))
	}
}

// LengthUnit is a native length unit code.
type LengthUnit int

const (
	LengthInch   LengthUnit = 1
	LengthFt     LengthUnit = 2
	LengthMicron LengthUnit = 3
	LengthMM     LengthUnit = 4
	LengthCM     LengthUnit = 5
	LengthM      LengthUnit = 6
)

func (l LengthUnit) String() string {
	switch l {
	case LengthInch:
		return "in"
	case LengthFt:
		return "ft"
	case LengthMicron:
		return "micron"
	case LengthMM:
		return "mm"
	case LengthCM:
		return "cm"
	case LengthM:
		return "m"
	default:
		return fmt.Sprintf("LengthUnit(%d)", int(l))
	}
}

// TemperatureUnit is a native temperature unit code.
type TemperatureUnit int

const (
	TemperatureF TemperatureUnit = 1
	TemperatureC TemperatureUnit = 2
)

func (t TemperatureUnit) String() string {
	switch t {
	case TemperatureF:
		return "F"
	case TemperatureC:
		return "C"
	default:
		return fmt.Sprintf("TemperatureUnit(%d)", int(t))
	}
}

// Units is the active unit configuration of a model.
type Units struct {
	Force       ForceUnit       `json:"force" yaml:"force"`
	Length      LengthUnit      `json:"length" yaml:"length"`
	Temperature TemperatureUnit `json:"temperature" yaml:"temperature"`
}

// Common unit configurations.
var (
	// DefaultUnits is assumed until the first successful native get or set.
	DefaultUnits = Units{Force: ForceKN, Length: LengthM, Temperature: TemperatureC}

	// USUnits is the customary kip-inch-Fahrenheit configuration.
	USUnits = Units{Force: ForceKip, Length: LengthInch, Temperature: TemperatureF}
)

func (u Units) String() string {
	return fmt.Sprintf("%s, %s, %s", u.Force, u.Length, u.Temperature)
}

func (u Units) validate(cc CallContext) error {
	if err := validateEnum(cc, "force", int(u.Force), []int{1, 2, 3, 4, 5, 6}); err != nil {
		return err
	}
	if err := validateEnum(cc, "length", int(u.Length), []int{1, 2, 3, 4, 5, 6}); err != nil {
		return err
	}
	return validateEnum(cc, "temperature", int(u.Temperature), []int{1, 2})
}

// UnitCache caches the unit configuration of one model handle.
type UnitCache struct {
	h *ModelHandle

	mu     sync.RWMutex
	cached Units
	gen    uint64 // bumped by every successful set
}

// Cached returns the cached configuration without calling the native layer.
func (u *UnitCache) Cached() Units {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cached
}

// Get reads the present units from the native layer.
//
// Any failure is logged at warning level and the last cached value is
// returned instead: callers usually need some unit context for display even
// when the application is momentarily unavailable.
func (u *UnitCache) Get(ctx context.Context) Units {
	cc := callContext("GetPresentUnits_2")
	gen := u.generation()
	units, err := u.read(ctx, cc)
	if err != nil {
		cached := u.Cached()
		u.h.log().Warn("reading present units failed, using cached units",
			slog.String("handle", u.h.id),
			slog.String("cached", cached.String()),
			slog.Any("error", err),
		)
		return cached
	}
	return u.storeRead(gen, units)
}

func (u *UnitCache) generation() uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.gen
}

// storeRead caches units read while the cache was at generation gen. A set
// that landed after the read started wins, and its value is returned.
func (u *UnitCache) storeRead(gen uint64, units Units) Units {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gen == gen {
		u.cached = units
	}
	return u.cached
}

func (u *UnitCache) read(ctx context.Context, cc CallContext) (Units, error) {
	units, err := scalar(ctx, u.h, cc, native.Request{Op: cc.Operation}, func(c *Columns, i int) Units {
		return Units{
			Force:       ForceUnit(c.Int("Force", i)),
			Length:      LengthUnit(c.Int("Length", i)),
			Temperature: TemperatureUnit(c.Int("Temperature", i)),
		}
	})
	if err != nil {
		return Units{}, err
	}
	if err := units.validate(cc); err != nil {
		return Units{}, newError(KindUnexpected, cc, "native layer reported unknown units", err)
	}
	return units, nil
}

// Set changes the present units. The cache is updated only when the native
// call succeeds; failures are returned to the caller.
func (u *UnitCache) Set(ctx context.Context, units Units) error {
	cc := callContext("SetPresentUnits_2", units.String())
	if err := units.validate(cc); err != nil {
		return err
	}
	err := u.h.exec(ctx, cc, native.Request{
		Op: cc.Operation,
		Args: map[string]any{
			"Force":       int(units.Force),
			"Length":      int(units.Length),
			"Temperature": int(units.Temperature),
		},
	})
	if err != nil {
		return err
	}
	u.store(units)
	return nil
}

func (u *UnitCache) store(units Units) {
	u.mu.Lock()
	u.cached = units
	u.gen++
	u.mu.Unlock()
}
