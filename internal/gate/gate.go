package gate

import (
	"errors"
	"fmt"

	"github.com/saif-almayahi/muroor/internal/registry"
	"github.com/saif-almayahi/muroor/internal/security"
)

type Kind string

const (
	KindPage         Kind = "page"
	KindControlPanel Kind = "control_panel"
	KindPrecinct     Kind = "precinct"
	KindWeighStation Kind = "weigh_station"
	KindRadar        Kind = "radar"
)

// Resource names something the gate can protect: a page, the control panel,
// or one precinct/station/radar.
type Resource struct {
	Kind Kind   `json:"type"`
	ID   string `json:"id"`
}

// Challenge is the single pending password prompt. At most one exists at a
// time; a new request replaces it.
type Challenge struct {
	Resource
	Title string `json:"title"`
}

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrNoChallenge     = errors.New("no pending challenge")
	ErrWrongPassword   = errors.New("wrong password")
)

// lock is the tagged protection state for one resource. An unprotected lock
// is distinct from one whose code merely happens to be blank; the empty
// string is never used as a sentinel.
type lock struct {
	protected bool
	hash      string
}

type Decision struct {
	Granted   bool       `json:"granted"`
	Challenge *Challenge `json:"challenge,omitempty"`
}

// Gate decides whether selecting a resource needs a password first. Not safe
// for concurrent use; callers serialize access alongside the store.
type Gate struct {
	locks         map[Resource]lock
	pending       *Challenge
	panelUnlocked bool
}

func ControlPanel() Resource {
	return Resource{Kind: KindControlPanel, ID: "control_panel"}
}

// New seeds an open gate for every known resource.
func New() *Gate {
	g := &Gate{locks: make(map[Resource]lock)}
	g.locks[ControlPanel()] = lock{}
	for key := range registry.PageTitles {
		g.locks[Resource{Kind: KindPage, ID: key}] = lock{}
	}
	for _, name := range registry.PrecinctNames {
		g.locks[Resource{Kind: KindPrecinct, ID: name}] = lock{}
	}
	for _, name := range registry.WeighStationNames {
		g.locks[Resource{Kind: KindWeighStation, ID: name}] = lock{}
	}
	for _, name := range registry.RadarLocations {
		g.locks[Resource{Kind: KindRadar, ID: name}] = lock{}
	}
	return g
}

// SetSecret configures a resource's access code. An empty secret reverts
// the resource to unprotected.
func (g *Gate) SetSecret(res Resource, secret string) error {
	if _, ok := g.locks[res]; !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownResource, res.Kind, res.ID)
	}
	if secret == "" {
		g.locks[res] = lock{}
		if res == ControlPanel() {
			g.panelUnlocked = false
		}
		return nil
	}
	hash, err := security.HashPIN(secret)
	if err != nil {
		return err
	}
	g.locks[res] = lock{protected: true, hash: hash}
	return nil
}

// Protected reports whether a resource currently demands a code.
func (g *Gate) Protected(res Resource) (bool, error) {
	l, ok := g.locks[res]
	if !ok {
		return false, fmt.Errorf("%w: %s %q", ErrUnknownResource, res.Kind, res.ID)
	}
	return l.protected, nil
}

// Request asks to open a resource. Unprotected resources are granted
// outright, as is the control panel while its session latch holds.
// Anything else becomes the pending challenge, replacing any prior one.
func (g *Gate) Request(res Resource) (Decision, error) {
	l, ok := g.locks[res]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s %q", ErrUnknownResource, res.Kind, res.ID)
	}
	if !l.protected {
		return Decision{Granted: true}, nil
	}
	if res.Kind == KindControlPanel && g.panelUnlocked {
		return Decision{Granted: true}, nil
	}
	g.pending = &Challenge{Resource: res, Title: challengeTitle(res)}
	return Decision{Challenge: g.pending}, nil
}

// Submit answers the pending challenge. A match grants the resource and
// clears the challenge; a mismatch keeps the challenge live for retry.
func (g *Gate) Submit(candidate string) (Resource, error) {
	if g.pending == nil {
		return Resource{}, ErrNoChallenge
	}
	l := g.locks[g.pending.Resource]
	if !l.protected || !security.VerifyPassword(candidate, l.hash) {
		return Resource{}, ErrWrongPassword
	}
	res := g.pending.Resource
	if res.Kind == KindControlPanel {
		g.panelUnlocked = true
	}
	g.pending = nil
	return res, nil
}

// Cancel abandons the pending challenge, if any.
func (g *Gate) Cancel() {
	g.pending = nil
}

func (g *Gate) Pending() *Challenge {
	if g.pending == nil {
		return nil
	}
	c := *g.pending
	return &c
}

func challengeTitle(res Resource) string {
	switch res.Kind {
	case KindControlPanel:
		return "الوصول إلى لوحة التحكم"
	case KindPage:
		if title, ok := registry.PageTitles[res.ID]; ok {
			return "الوصول إلى " + title
		}
		return "الوصول إلى " + res.ID
	default:
		return "الوصول إلى " + res.ID
	}
}
